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


package machine

const (
	ROM_SIZE = 1 << 15
	RAM_SIZE = 1 << 15

	ADDRESS_MASK uint16 = RAM_SIZE - 1
)

const (
	MEMSPACE_RAM    uint16 = 0x0000
	MEMSPACE_SCREEN uint16 = 0x4000
	MEMSPACE_KBD    uint16 = 0x6000
)

const (
	SCREEN_WIDTH  = 512
	SCREEN_HEIGHT = 256
	SCREEN_WORDS  = SCREEN_WIDTH * SCREEN_HEIGHT / 16
)

const (
	DEV_KBD uint16 = MEMSPACE_KBD
)

// C    |1 1 1|a|zx nx zy ny f no|d1 d2 d3|j1 j2 j3|
const (
	BIT_COMPUTE uint16 = 1 << 15
	BIT_A       uint16 = 1 << 12

	ALU_ZX uint16 = 1 << 11
	ALU_NX uint16 = 1 << 10
	ALU_ZY uint16 = 1 << 9
	ALU_NY uint16 = 1 << 8
	ALU_F  uint16 = 1 << 7
	ALU_NO uint16 = 1 << 6

	DEST_A uint16 = 1 << 5
	DEST_D uint16 = 1 << 4
	DEST_M uint16 = 1 << 3

	JUMP_LT uint16 = 1 << 2
	JUMP_EQ uint16 = 1 << 1
	JUMP_GT uint16 = 1 << 0

	JUMP_MASK = JUMP_LT | JUMP_EQ | JUMP_GT
)

// Hack keyboard codes for keys outside printable ASCII
const (
	KEY_NEWLINE   uint16 = 128
	KEY_BACKSPACE uint16 = 129
	KEY_LEFT      uint16 = 130
	KEY_UP        uint16 = 131
	KEY_RIGHT     uint16 = 132
	KEY_DOWN      uint16 = 133
	KEY_HOME      uint16 = 134
	KEY_END       uint16 = 135
	KEY_PAGEUP    uint16 = 136
	KEY_PAGEDOWN  uint16 = 137
	KEY_INSERT    uint16 = 138
	KEY_DELETE    uint16 = 139
	KEY_ESCAPE    uint16 = 140
	KEY_F1        uint16 = 141
)
