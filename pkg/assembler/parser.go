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
	"strings"
	"unicode"

	"github.com/lassandro/gohack/pkg/encoding"
)

// DEST |d1 d2 d3| A D M
func parseDest(ident string) (uint16, bool) {
	switch ident {
	case "":
		return 0b000, true
	case "M":
		return 0b001, true
	case "D":
		return 0b010, true
	case "MD", "DM":
		return 0b011, true
	case "A":
		return 0b100, true
	case "AM", "MA":
		return 0b101, true
	case "AD", "DA":
		return 0b110, true
	case "AMD", "ADM", "MAD", "MDA", "DAM", "DMA":
		return 0b111, true
	}

	return 0, false
}

// JUMP |j1 j2 j3| < = >
func parseJump(ident string) (uint16, bool) {
	switch ident {
	case "":
		return 0b000, true
	case "JGT":
		return 0b001, true
	case "JEQ":
		return 0b010, true
	case "JGE":
		return 0b011, true
	case "JLT":
		return 0b100, true
	case "JNE":
		return 0b101, true
	case "JLE":
		return 0b110, true
	case "JMP":
		return 0b111, true
	}

	return 0, false
}

// COMP |a|zx nx zy ny f no|
func parseComp(ident string) (uint16, bool) {
	switch ident {
	// a=0
	case "0":
		return 0b0_101010, true
	case "1":
		return 0b0_111111, true
	case "-1":
		return 0b0_111010, true
	case "D":
		return 0b0_001100, true
	case "A":
		return 0b0_110000, true
	case "!D":
		return 0b0_001101, true
	case "!A":
		return 0b0_110001, true
	case "-D":
		return 0b0_001111, true
	case "-A":
		return 0b0_110011, true
	case "D+1":
		return 0b0_011111, true
	case "A+1":
		return 0b0_110111, true
	case "D-1":
		return 0b0_001110, true
	case "A-1":
		return 0b0_110010, true
	case "D+A", "A+D":
		return 0b0_000010, true
	case "D-A":
		return 0b0_010011, true
	case "A-D":
		return 0b0_000111, true
	case "D&A", "A&D":
		return 0b0_000000, true
	case "D|A", "A|D":
		return 0b0_010101, true

	// a=1
	case "M":
		return 0b1_110000, true
	case "!M":
		return 0b1_110001, true
	case "-M":
		return 0b1_110011, true
	case "M+1":
		return 0b1_110111, true
	case "M-1":
		return 0b1_110010, true
	case "D+M", "M+D":
		return 0b1_000010, true
	case "D-M":
		return 0b1_010011, true
	case "M-D":
		return 0b1_000111, true
	case "D&M", "M&D":
		return 0b1_000000, true
	case "D|M", "M|D":
		return 0b1_010101, true
	}

	return 0, false
}

func isSymbol(ident string) bool {
	if len(ident) == 0 || (ident[0] >= '0' && ident[0] <= '9') {
		return false
	}

	for _, char := range ident {
		switch {
		case char > unicode.MaxASCII:
			return false
		case unicode.IsLetter(char), unicode.IsDigit(char):
		case char == '_', char == '.', char == '$', char == ':':
		default:
			return false
		}
	}

	return true
}

// ParseLine classifies a single source line. Blank and comment-only lines
// yield an INSTRUCTION_NONE instruction. The returned position points at the
// first significant character of the line.
func ParseLine(line string, cursor Cursor) (Instruction, error) {
	cursor.Source = line

	code := line
	if i := strings.Index(code, COMMENT_MARKER); i != -1 {
		code = code[:i]
	}

	trimmed := strings.TrimSpace(code)

	if len(trimmed) == 0 {
		return Instruction{Type: INSTRUCTION_NONE, Position: cursor}, nil
	}

	leading := len(code) - len(strings.TrimLeftFunc(code, unicode.IsSpace))
	cursor.Column = leading + 1
	cursor.Byte = cursor.LineByte + int64(leading)
	cursor.Size = int64(len(trimmed))

	switch trimmed[0] {
	case ADDRESS_MARKER:
		return parseAddress(trimmed[1:], cursor)
	case LABEL_OPEN:
		return parseLabel(trimmed, cursor)
	}

	return parseCompute(trimmed, cursor)
}

// @value | @symbol
func parseAddress(operand string, cursor Cursor) (Instruction, error) {
	result := Instruction{
		Type:     INSTRUCTION_ADDRESS,
		Position: cursor,
		Symbol:   operand,
	}

	switch {
	case len(operand) == 0:
		return result, &MalformedInstructionError{
			cursor, "missing address operand",
		}

	case encoding.IsDecimal(operand):
		if _, err := encoding.DecodeInt(operand, ADDRESS_BITS); err != nil {
			return result, &OversizedLiteralError{cursor, ADDRESS_MAX, operand}
		}

	case operand[0] == '-' && encoding.IsDecimal(operand[1:]):
		return result, &MalformedInstructionError{
			cursor, "negative address operand",
		}

	case !isSymbol(operand):
		return result, &InvalidSymbolError{cursor, operand}
	}

	return result, nil
}

// (symbol)
func parseLabel(text string, cursor Cursor) (Instruction, error) {
	result := Instruction{Type: INSTRUCTION_LABEL, Position: cursor}

	end := strings.IndexByte(text, LABEL_CLOSE)

	switch {
	case end == -1:
		return result, &MalformedInstructionError{
			cursor, "label declaration is missing ')'",
		}
	case end != len(text)-1:
		return result, &MalformedInstructionError{
			cursor, "unexpected text after label declaration",
		}
	}

	result.Symbol = text[1:end]

	if len(result.Symbol) == 0 {
		return result, &MalformedInstructionError{
			cursor, "empty label declaration",
		}
	}

	if !isSymbol(result.Symbol) {
		return result, &InvalidSymbolError{cursor, result.Symbol}
	}

	return result, nil
}

// dest=comp;jump, with dest= and ;jump optional
func parseCompute(text string, cursor Cursor) (Instruction, error) {
	result := Instruction{Type: INSTRUCTION_COMPUTE, Position: cursor}

	rest := strings.Join(strings.Fields(text), "")

	if strings.Count(rest, JUMP_SEPARATOR) > 1 {
		return result, &MalformedInstructionError{cursor, "more than one ';'"}
	}

	if strings.Count(rest, DEST_SEPARATOR) > 1 {
		return result, &MalformedInstructionError{cursor, "more than one '='"}
	}

	if i := strings.Index(rest, JUMP_SEPARATOR); i != -1 {
		result.Jump = rest[i+1:]
		rest = rest[:i]

		if len(result.Jump) == 0 {
			return result, &MalformedInstructionError{
				cursor, "missing jump after ';'",
			}
		}
	}

	if i := strings.Index(rest, DEST_SEPARATOR); i != -1 {
		result.Dest = rest[:i]
		rest = rest[i+1:]

		if len(result.Dest) == 0 {
			return result, &MalformedInstructionError{
				cursor, "missing destination before '='",
			}
		}
	}

	result.Comp = rest

	if len(result.Comp) == 0 {
		return result, &MalformedInstructionError{
			cursor, "missing computation",
		}
	}

	if _, ok := parseComp(result.Comp); !ok {
		return result, &UnknownMnemonicError{cursor, FIELD_COMP, result.Comp}
	}

	if _, ok := parseDest(result.Dest); !ok {
		return result, &UnknownMnemonicError{cursor, FIELD_DEST, result.Dest}
	}

	if _, ok := parseJump(result.Jump); !ok {
		return result, &UnknownMnemonicError{cursor, FIELD_JUMP, result.Jump}
	}

	return result, nil
}

// EncodeCompute packs a compute instruction as 111 a cccccc ddd jjj.
func EncodeCompute(instruction Instruction) (uint16, error) {
	comp, ok := parseComp(instruction.Comp)
	if !ok {
		return 0, &UnknownMnemonicError{
			instruction.Position, FIELD_COMP, instruction.Comp,
		}
	}

	dest, ok := parseDest(instruction.Dest)
	if !ok {
		return 0, &UnknownMnemonicError{
			instruction.Position, FIELD_DEST, instruction.Dest,
		}
	}

	jump, ok := parseJump(instruction.Jump)
	if !ok {
		return 0, &UnknownMnemonicError{
			instruction.Position, FIELD_JUMP, instruction.Jump,
		}
	}

	return COMPUTE_PREFIX | comp<<6 | dest<<3 | jump, nil
}

// EncodeAddress packs an address instruction as 0 vvvvvvvvvvvvvvv.
func EncodeAddress(addr uint16) uint16 {
	return addr & ADDRESS_MAX
}
