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

// SymbolTable maps symbol names to 15-bit addresses. Architecture symbols
// are bound on creation and can never be rebound.
type SymbolTable struct {
	symbols    map[string]uint16
	predefined map[string]bool
	labels     map[string]uint16
	variables  map[string]uint16
	cursor     uint16
}

func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{
		symbols:    make(map[string]uint16),
		predefined: make(map[string]bool),
		labels:     make(map[string]uint16),
		variables:  make(map[string]uint16),
		cursor:     VARIABLE_BASE,
	}

	for i := uint16(0); i < 16; i++ {
		table.predefine(fmt.Sprintf("R%d", i), i)
	}

	table.predefine("SP", SYMBOL_SP)
	table.predefine("LCL", SYMBOL_LCL)
	table.predefine("ARG", SYMBOL_ARG)
	table.predefine("THIS", SYMBOL_THIS)
	table.predefine("THAT", SYMBOL_THAT)
	table.predefine("SCREEN", SYMBOL_SCREEN)
	table.predefine("KBD", SYMBOL_KBD)

	return table
}

func (table *SymbolTable) predefine(name string, addr uint16) {
	table.symbols[name] = addr
	table.predefined[name] = true
}

func (table *SymbolTable) Lookup(name string) (uint16, bool) {
	addr, exists := table.symbols[name]
	return addr, exists
}

func (table *SymbolTable) IsPredefined(name string) bool {
	return table.predefined[name]
}

// BindLabel binds name to addr. Binding the same label to the same address
// again is a no-op. It fails for predefined symbols and for labels already
// bound elsewhere, returning the existing address.
func (table *SymbolTable) BindLabel(name string, addr uint16) (uint16, bool) {
	if bound, exists := table.symbols[name]; exists {
		if table.predefined[name] || bound != addr {
			return bound, false
		}

		return bound, true
	}

	table.symbols[name] = addr
	table.labels[name] = addr

	return addr, true
}

// AllocateVariable returns the address bound to name, binding it to the
// next free variable slot first if needed. It fails once the variable space
// runs into the screen map.
func (table *SymbolTable) AllocateVariable(name string) (uint16, bool) {
	if addr, exists := table.symbols[name]; exists {
		return addr, true
	}

	if table.cursor >= VARIABLE_LIMIT {
		return 0, false
	}

	addr := table.cursor
	table.cursor++

	table.symbols[name] = addr
	table.variables[name] = addr

	return addr, true
}

func (table *SymbolTable) Labels() map[string]uint16 {
	return copyBindings(table.labels)
}

func (table *SymbolTable) Variables() map[string]uint16 {
	return copyBindings(table.variables)
}

func copyBindings(bindings map[string]uint16) map[string]uint16 {
	result := make(map[string]uint16, len(bindings))

	for name, addr := range bindings {
		result[name] = addr
	}

	return result
}
