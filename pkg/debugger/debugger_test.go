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


package debugger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gohack/pkg/assembler"
	"github.com/lassandro/gohack/pkg/debugger"
	"github.com/lassandro/gohack/pkg/machine"
)

const multSource = `@R2
M=0
@R1
D=M
@n
M=D
(LOOP)
@n
D=M
@END
D;JLE
@R0
D=M
@R2
M=D+M
@n
M=M-1
@LOOP
0;JMP
(END)
@END
0;JMP
`

func load(t *testing.T, source string) (*machine.Machine, *debugger.Debugger) {
	t.Helper()

	symtable := assembler.NewSymTable("mult.asm")
	words, errs := assembler.AssembleHackSource(strings.NewReader(source), symtable)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	var mc machine.Machine
	if err := mc.Load(words); err != nil {
		t.Fatal(err)
	}

	mc.State.Memory[0] = 4
	mc.State.Memory[1] = 3

	dbg := &debugger.Debugger{
		Source:   strings.NewReader(source),
		SymTable: symtable,
		Output:   new(bytes.Buffer),
	}

	mc.Debugger = dbg

	return &mc, dbg
}

func TestBreakpoint(t *testing.T) {
	mc, dbg := load(t, multSource)

	loop, ok := dbg.Resolve("LOOP")
	if !ok {
		t.Fatal("Unable to resolve 'LOOP'")
	}

	if !dbg.AddBreakpoint(loop) || dbg.AddBreakpoint(loop) {
		t.Fatal("Breakpoint deduplication failed")
	}

	hits := 0
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		if mc.State.Program != loop {
			t.Fatalf("Break at %d\nwant:%d", mc.State.Program, loop)
		}
		hits++
	}

	mc.Run(1000)

	if hits != 4 {
		t.Fatalf("Breakpoint hits\nwant:4\nhave:%d", hits)
	}

	if mc.State.Memory[2] != 12 {
		t.Fatalf("R2\nwant:12\nhave:%d", mc.State.Memory[2])
	}
}

func TestStepBreak(t *testing.T) {
	mc, dbg := load(t, multSource)

	steps := 0
	dbg.Break.Store(true)
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		steps++
		if steps == 3 {
			dbg.Break.Store(false)
		}
	}

	mc.Run(1000)

	if steps != 3 {
		t.Fatalf("want:3 steps\nhave:%d", steps)
	}
}

func TestAsyncBreak(t *testing.T) {
	mc, dbg := load(t, "(LOOP)\nD=D+1\n@LOOP\n0;JMP\n")

	hits := 0
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		dbg.Break.Store(false)
		hits++
	}

	go dbg.Break.Store(true)

	for hits == 0 {
		if mc.Run(1000) != 1000 {
			t.Fatal("Machine halted in an endless loop")
		}
	}

	if hits != 1 {
		t.Fatalf("want:1 break\nhave:%d", hits)
	}
}

func TestWatchpoint(t *testing.T) {
	tests := []struct {
		Name   string
		Type   debugger.WatchpointType
		Reads  int
		Writes int
	}{
		{"Read", debugger.ReadWatch, 3, 0},
		{"Write", debugger.WriteWatch, 0, 4},
		{"ReadWrite", debugger.ReadWriteWatch, 3, 4},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc, dbg := load(t, multSource)

			if !dbg.AddWatchpoint(2, test.Type) || dbg.AddWatchpoint(2, test.Type) {
				t.Fatal("Watchpoint deduplication failed")
			}

			reads, writes := 0, 0
			dbg.HandleRead = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
				reads++
			}
			dbg.HandleWrite = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
				writes++
			}

			mc.Run(1000)

			if reads != test.Reads || writes != test.Writes {
				t.Fatalf(
					"want:%d reads %d writes\nhave:%d reads %d writes",
					test.Reads, test.Writes, reads, writes,
				)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	_, dbg := load(t, multSource)

	for name, want := range map[string]uint16{
		"LOOP":   6,
		"END":    18,
		"n":      16,
		"SCREEN": 16384,
		"R1":     1,
	} {
		if have, ok := dbg.Resolve(name); !ok || have != want {
			t.Fatalf("%s\nwant:%d\nhave:%d (%v)", name, want, have, ok)
		}
	}

	if _, ok := dbg.Resolve("missing"); ok {
		t.Fatal("Resolved unknown symbol")
	}
}

func TestPrint(t *testing.T) {
	mc, dbg := load(t, multSource)
	output := dbg.Output.(*bytes.Buffer)

	dbg.PrintSource(6, 3)

	want := "\033[1m[    6]\033[0m @n\n" +
		"\033[1m[    7]\033[0m D=M\n" +
		"\033[1m[    8]\033[0m @END\n"

	if have := output.String(); have != want {
		t.Fatalf("want:%q\nhave:%q", want, have)
	}

	_, crlf := load(t, strings.ReplaceAll(multSource, "\n", "\r\n"))
	crlfOutput := crlf.Output.(*bytes.Buffer)

	crlf.PrintSource(6, 3)

	if have := crlfOutput.String(); have != want {
		t.Fatalf("CRLF source\nwant:%q\nhave:%q", want, have)
	}

	output.Reset()
	dbg.PrintSource(100, 1)

	if have := output.String(); have != "No instruction found at 100\n" {
		t.Fatalf("have:%q", have)
	}

	output.Reset()
	dbg.PrintDisassembly(mc, 0, 2)

	if have := output.String(); !strings.Contains(have, "@2") || !strings.Contains(have, "M=0") {
		t.Fatalf("Disassembly missing instructions:\n%s", have)
	}

	output.Reset()
	dbg.PrintMem(&mc.State, 0, 2)

	if have := output.String(); !strings.Contains(have, "[    0]") || !strings.Contains(have, "     4 ") {
		t.Fatalf("Memory listing:\n%q", have)
	}

	output.Reset()
	dbg.PrintLabels()

	if have := output.String(); strings.Index(have, "LOOP") > strings.Index(have, "END") {
		t.Fatalf("Labels not sorted by address:\n%s", have)
	}

	output.Reset()
	(&debugger.Debugger{Output: output}).PrintSource(0, 1)

	if have := output.String(); have != "No source file loaded\n" {
		t.Fatalf("have:%q", have)
	}
}
