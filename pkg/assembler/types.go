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
)

type InstructionType uint
type FieldType uint

type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
	Source   string
}

// Instruction is one classified source line. Symbol is set for labels and
// address instructions, Dest/Comp/Jump for compute instructions.
type Instruction struct {
	Type     InstructionType
	Position Cursor
	Symbol   string
	Dest     string
	Comp     string
	Jump     string
}

// SymTable is the debugging sidecar produced alongside a binary.
type SymTable struct {
	Source    string
	Symbols   map[uint16]int64
	Labels    map[uint16]string
	Variables map[uint16]string
}

func NewSymTable(source string) *SymTable {
	return &SymTable{
		Source:    source,
		Symbols:   make(map[uint16]int64),
		Labels:    make(map[uint16]string),
		Variables: make(map[uint16]string),
	}
}

// Label returns the address of a named label.
func (table *SymTable) Label(name string) (uint16, bool) {
	for addr, label := range table.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

func (field FieldType) String() string {
	switch field {
	case FIELD_DEST:
		return "dest"
	case FIELD_COMP:
		return "comp"
	case FIELD_JUMP:
		return "jump"
	}

	return "<invalid>"
}

type TokenError interface {
	GetPosition() Cursor
}

type MalformedInstructionError struct {
	Position Cursor
	Reason   string
}

func (err *MalformedInstructionError) GetPosition() Cursor {
	return err.Position
}

func (err *MalformedInstructionError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Malformed instruction: %s\n\tline:%s",
		err.Position.Line,
		err.Position.Column,
		err.Reason,
		err.Position.Source,
	)
}

type UnknownMnemonicError struct {
	Position Cursor
	Field    FieldType
	Received string
}

func (err *UnknownMnemonicError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownMnemonicError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown %s mnemonic '%s'\n\tline:%s",
		err.Position.Line,
		err.Position.Column,
		err.Field,
		err.Received,
		err.Position.Source,
	)
}

type InvalidSymbolError struct {
	Position Cursor
	Received string
}

func (err *InvalidSymbolError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidSymbolError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid symbol '%s'\n\tline:%s",
		err.Position.Line,
		err.Position.Column,
		err.Received,
		err.Position.Source,
	)
}

type OversizedLiteralError struct {
	Position Cursor
	Required uint16
	Received string
}

func (err *OversizedLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Literal exceeds allowed size\n\twant:<=%d\n\thave:%s",
		err.Position.Line,
		err.Position.Column,
		err.Required,
		err.Received,
	)
}

type RedeclaredLabelError struct {
	Position Cursor
	Received string
	Bound    uint16
	Address  uint16
}

func (err *RedeclaredLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Redeclaration of label '%s'\n\twant:%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Received,
		err.Bound,
		err.Address,
	)
}

type SymbolOverflowError struct {
	Position Cursor
	Received string
}

func (err *SymbolOverflowError) GetPosition() Cursor {
	return err.Position
}

func (err *SymbolOverflowError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: No variable space left for '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

// LabelOverflowError is a reference to a label declared after the last ROM
// address, which no instruction can carry.
type LabelOverflowError struct {
	Position Cursor
	Received string
}

func (err *LabelOverflowError) GetPosition() Cursor {
	return err.Position
}

func (err *LabelOverflowError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Label '%s' is declared past the end of ROM",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type OversizedBinaryError struct{}

func (err *OversizedBinaryError) Error() string {
	return "Binary exceeds allowed size"
}

type IOError struct {
	Err error
}

func (err *IOError) Error() string {
	return fmt.Sprintf("I/O failure: %v", err.Err)
}

func (err *IOError) Unwrap() error {
	return err.Err
}
