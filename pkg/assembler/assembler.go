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
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/lassandro/gohack/pkg/encoding"
)

const maxLineSize = 1 << 20

// AssembleHackSource translates Hack assembly read from input into machine
// words. Every error found is returned and no words are produced when there
// is any. When symtable is non-nil its maps are filled with debugging
// information for the program.
func AssembleHackSource(input io.Reader, symtable *SymTable) (result []uint16, errs []error) {
	var lines []string

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	scanner.Split(ScanRawLines)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, []error{&IOError{err}}
	}

	return assemble(lines, symtable)
}

// ScanRawLines is a bufio.SplitFunc like bufio.ScanLines that keeps any
// trailing '\r', so that len(token)+1 is the byte length of the line.
func ScanRawLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// Assemble translates source lines into 16-character binary strings, one
// per executable instruction.
func Assemble(lines []string) ([]string, error) {
	result, errs := assemble(lines, nil)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	words := make([]string, len(result))

	for i, word := range result {
		words[i] = encoding.FormatWord(word)
	}

	return words, nil
}

// WriteHack writes one binary string per word, each newline-terminated.
func WriteHack(output io.Writer, words []uint16) error {
	writer := bufio.NewWriter(output)

	for _, word := range words {
		if _, err := writer.WriteString(encoding.FormatWord(word) + "\n"); err != nil {
			return &IOError{err}
		}
	}

	if err := writer.Flush(); err != nil {
		return &IOError{err}
	}

	return nil
}

func assemble(lines []string, symtable *SymTable) (result []uint16, errs []error) {
	var table = NewSymbolTable()
	var instructions = make([]Instruction, 0, len(lines))
	var program uint32 = 0

	// Labels declared once ROM is full
	var overflow = make(map[string]bool)

	var cursor = Cursor{Line: 1}

	errs = make([]error, 0)

	// Pass one:
	// - Classify every line
	// - Bind labels to the address of the next instruction
	for _, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		instruction, err := ParseLine(line, cursor)

		cursor.Line++
		cursor.Byte += int64(len(raw) + 1)
		cursor.LineByte += int64(len(raw) + 1)

		if err != nil {
			errs = append(errs, err)
			continue
		}

		switch instruction.Type {
		case INSTRUCTION_LABEL:
			if program >= PROGRAM_MAX {
				overflow[instruction.Symbol] = true
				continue
			}

			name := instruction.Symbol
			addr := uint16(program)

			if bound, ok := table.BindLabel(name, addr); !ok {
				errs = append(
					errs,
					&RedeclaredLabelError{instruction.Position, name, bound, addr},
				)

				continue
			}

			if symtable != nil {
				if _, exists := symtable.Labels[addr]; !exists {
					symtable.Labels[addr] = name
				}
			}

		case INSTRUCTION_ADDRESS, INSTRUCTION_COMPUTE:
			if program >= PROGRAM_MAX {
				errs = append(errs, &OversizedBinaryError{})
				return nil, errs
			}

			instructions = append(instructions, instruction)
			program++
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	result = make([]uint16, 0, len(instructions))

	// Pass two:
	// - Resolve address operands, allocating variables on first use
	// - Encode each instruction in source order
	for _, instruction := range instructions {
		var scratch uint16

		switch instruction.Type {
		case INSTRUCTION_ADDRESS:
			name := instruction.Symbol

			if encoding.IsDecimal(name) {
				value, err := encoding.DecodeInt(name, ADDRESS_BITS)

				if err != nil {
					errs = append(
						errs,
						&OversizedLiteralError{instruction.Position, ADDRESS_MAX, name},
					)

					continue
				}

				scratch = EncodeAddress(value)
				break
			}

			addr, exists := table.Lookup(name)

			if !exists && overflow[name] {
				errs = append(
					errs, &LabelOverflowError{instruction.Position, name},
				)

				continue
			}

			if !exists {
				var ok bool

				if addr, ok = table.AllocateVariable(name); !ok {
					errs = append(
						errs, &SymbolOverflowError{instruction.Position, name},
					)

					continue
				}

				if symtable != nil {
					symtable.Variables[addr] = name
				}
			}

			scratch = EncodeAddress(addr)

		case INSTRUCTION_COMPUTE:
			word, err := EncodeCompute(instruction)

			if err != nil {
				errs = append(errs, err)
				continue
			}

			scratch = word
		}

		if symtable != nil {
			symtable.Symbols[uint16(len(result))] = instruction.Position.LineByte
		}

		result = append(result, scratch)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return result, nil
}
