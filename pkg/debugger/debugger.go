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


package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lassandro/gohack/pkg/assembler"
	"github.com/lassandro/gohack/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output != nil {
		return dbg.Output
	}

	return os.Stdout
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint adds a breakpoint unless one exists at addr already.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// AddWatchpoint adds a watchpoint unless an identical one exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

// Resolve maps a label, variable, or predefined symbol to its address.
func (dbg *Debugger) Resolve(name string) (uint16, bool) {
	if dbg.SymTable != nil {
		if addr, ok := dbg.SymTable.Label(name); ok {
			return addr, true
		}

		for addr, variable := range dbg.SymTable.Variables {
			if variable == name {
				return addr, true
			}
		}
	}

	table := assembler.NewSymbolTable()
	if table.IsPredefined(name) {
		return table.Lookup(name)
	}

	return 0, false
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	if dbg.Source == nil {
		fmt.Fprintln(dbg.out(), "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.out(), "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(dbg.out(), "No instruction found at %d\n", addr)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(dbg.out(), err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(assembler.ScanRawLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		raw := scanner.Text()
		line := strings.TrimSuffix(raw, "\r")

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(dbg.out(), "\033[1m[%5d]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(dbg.out(), "\033[1;30m~~~~~~~\033[0m ")
		}

		fmt.Fprintln(dbg.out(), line)

		offset += int64(len(raw) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(dbg.out(), err)
	}
}

// PrintDisassembly lists ROM words from addr, for programs loaded without
// their source.
func (dbg *Debugger) PrintDisassembly(mc *machine.Machine, addr uint16, count uint16) {
	for i := addr; i < addr+count && i < mc.Size; i++ {
		marker := " "
		if i == mc.State.Program {
			marker = ">"
		}

		fmt.Fprintf(
			dbg.out(),
			"%s\033[1m[%5d]\033[0m %016b  %s\n",
			marker,
			i,
			mc.ROM[i],
			assembler.Disassemble(mc.ROM[i]),
		)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	for i := addr; i < addr+count && int(i) < len(mc.Memory); i++ {
		if i == addr {
			fmt.Fprintf(dbg.out(), "\033[1m[%5d]\033[0m ", i)
		} else if (i-addr)%4 == 0 {
			fmt.Fprintln(dbg.out())
			fmt.Fprintf(dbg.out(), "\033[1m[%5d]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(dbg.out(), "\033[1;30m%6d\033[0m ", int16(result))
		} else {
			fmt.Fprintf(dbg.out(), "%6d ", int16(result))
		}
	}

	fmt.Fprintln(dbg.out())
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	fmt.Fprintf(
		dbg.out(),
		"\033[1mA:\033[0m %6d\t\033[1mD:\033[0m %6d\t\033[1mPC:\033[0m %5d\n",
		int16(mc.A),
		int16(mc.D),
		mc.Program,
	)
}

func (dbg *Debugger) PrintLabels() {
	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.out(), "No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Fprintf(
			dbg.out(), "\033[1m[%5d]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}
