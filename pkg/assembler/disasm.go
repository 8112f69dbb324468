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

import (
	"fmt"
	"strings"
)

var compMnemonics = [...]string{
	"0", "1", "-1", "D", "A", "M", "!D", "!A", "!M", "-D", "-A", "-M",
	"D+1", "A+1", "M+1", "D-1", "A-1", "M-1", "D+A", "D+M", "D-A", "D-M",
	"A-D", "M-D", "D&A", "D&M", "D|A", "D|M",
}

var destMnemonics = [...]string{"", "M", "D", "MD", "A", "AM", "AD", "AMD"}

var jumpMnemonics = [...]string{
	"", "JGT", "JEQ", "JGE", "JLT", "JNE", "JLE", "JMP",
}

// Disassemble renders a machine word in canonical assembly form. Compute
// words whose comp bits match no mnemonic render as <invalid 0x....>.
func Disassemble(word uint16) string {
	if word>>ADDRESS_BITS == 0 {
		return fmt.Sprintf("%c%d", ADDRESS_MARKER, word)
	}

	if word&COMPUTE_PREFIX != COMPUTE_PREFIX {
		return fmt.Sprintf("<invalid %#04x>", word)
	}

	bits := (word >> 6) & 0x7F
	comp := ""

	for _, mnemonic := range compMnemonics {
		if value, _ := parseComp(mnemonic); value == bits {
			comp = mnemonic
			break
		}
	}

	if len(comp) == 0 {
		return fmt.Sprintf("<invalid %#04x>", word)
	}

	var builder strings.Builder

	if dest := destMnemonics[(word>>3)&0x7]; len(dest) > 0 {
		builder.WriteString(dest + DEST_SEPARATOR)
	}

	builder.WriteString(comp)

	if jump := jumpMnemonics[word&0x7]; len(jump) > 0 {
		builder.WriteString(JUMP_SEPARATOR + jump)
	}

	return builder.String()
}
