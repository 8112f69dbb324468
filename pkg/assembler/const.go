// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


package assembler

const (
	INSTRUCTION_NONE InstructionType = iota
	INSTRUCTION_LABEL
	INSTRUCTION_ADDRESS
	INSTRUCTION_COMPUTE
)

const (
	FIELD_DEST FieldType = iota
	FIELD_COMP
	FIELD_JUMP
)

const (
	// Address instructions carry a 15-bit value; bit 15 selects the C form
	ADDRESS_BITS        = 15
	ADDRESS_MAX  uint16 = 1<<ADDRESS_BITS - 1

	// ROM holds 32K instructions
	PROGRAM_MAX uint32 = 1 << ADDRESS_BITS

	// Variables are allocated upwards from here until the screen map
	VARIABLE_BASE  uint16 = 16
	VARIABLE_LIMIT uint16 = SYMBOL_SCREEN

	COMPUTE_PREFIX uint16 = 0b111 << 13
)

const (
	SYMBOL_SP     uint16 = 0
	SYMBOL_LCL    uint16 = 1
	SYMBOL_ARG    uint16 = 2
	SYMBOL_THIS   uint16 = 3
	SYMBOL_THAT   uint16 = 4
	SYMBOL_SCREEN uint16 = 0x4000
	SYMBOL_KBD    uint16 = 0x6000
)

const (
	COMMENT_MARKER = "//"
	ADDRESS_MARKER = '@'
	LABEL_OPEN     = '('
	LABEL_CLOSE    = ')'
	DEST_SEPARATOR = "="
	JUMP_SEPARATOR = ";"
)
