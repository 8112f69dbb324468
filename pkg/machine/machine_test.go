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


package machine_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lassandro/gohack/pkg/assembler"
	"github.com/lassandro/gohack/pkg/machine"
)

type testMachineState struct {
	A       uint16
	D       uint16
	Program uint16
	Memory  map[uint16]uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Keyboard uint16
	ROM      []uint16
	Input    testMachineState
	Output   testMachineState
}

type fixedKey uint16

func (key fixedKey) Key() uint16 {
	return uint16(key)
}

func testMachineSuccess(t *testing.T, test *testCase) {
	var mc machine.Machine

	if err := mc.Load(test.ROM); err != nil {
		t.Fatal(err)
	}

	if test.Keyboard != 0 {
		mc.Devices = &machine.DeviceHandler{Keyboard: fixedKey(test.Keyboard)}
	}

	mc.State.A = test.Input.A
	mc.State.D = test.Input.D
	mc.State.Program = test.Input.Program

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		mc.Step()
	}

	if mc.State.A != test.Output.A {
		t.Errorf(
			"A register mismatch\nwant:%#04x (test.Output.A)\nhave:%#04x",
			test.Output.A,
			mc.State.A,
		)
	}

	if mc.State.D != test.Output.D {
		t.Errorf(
			"D register mismatch\nwant:%#04x (test.Output.D)\nhave:%#04x",
			test.Output.D,
			mc.State.D,
		)
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program register mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	testMemory(t, &mc.State, test.Input.Memory, test.Output.Memory)
}

func testMemory(t *testing.T, state *machine.MachineState, input, output map[uint16]uint16) {
	for i, value := range state.Memory {
		in, expectingInput := input[uint16(i)]
		out, expectingOutput := output[uint16(i)]

		if expectingOutput {
			if value != out {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#04x (Output.Memory[%d])\nhave:%#04x",
					out,
					i,
					value,
				)
			}
		} else if expectingInput {
			if value != in {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#04x (Input.Memory[%d])\nhave:%#04x",
					in,
					i,
					value,
				)
			}
		} else if value != 0 {
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x0000 (Memory[%d])\nhave:%#04x",
				i,
				value,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// A    |0|value                          | Load address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAddress(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "Load",
			ROM:    []uint16{0b0_001001000110100},
			Output: testMachineState{A: 0x1234, Program: 1},
		},
		{
			Name:   "Load Max",
			ROM:    []uint16{0b0_111111111111111},
			Input:  testMachineState{A: 0x0001, D: 0x0002},
			Output: testMachineState{A: 0x7FFF, D: 0x0002, Program: 1},
		},
	})
}

// C    |1 1 1|a|c c c c c c|d d d|j j j  | Compute
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestCompute(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "D=A",
			ROM:    []uint16{0b111_0_110000_010_000},
			Input:  testMachineState{A: 5},
			Output: testMachineState{A: 5, D: 5, Program: 1},
		},
		{
			Name:   "M=D",
			ROM:    []uint16{0b111_0_001100_001_000},
			Input:  testMachineState{A: 100, D: 7},
			Output: testMachineState{A: 100, D: 7, Program: 1, Memory: map[uint16]uint16{100: 7}},
		},
		{
			Name: "AM=M+1",
			ROM:  []uint16{0b111_1_110111_101_000},
			Input: testMachineState{
				A:      100,
				Memory: map[uint16]uint16{100: 9},
			},
			Output: testMachineState{
				A:       10,
				Program: 1,
				Memory:  map[uint16]uint16{100: 10},
			},
		},
		{
			Name: "D=D-M",
			ROM:  []uint16{0b111_1_010011_010_000},
			Input: testMachineState{
				A:      3,
				D:      2,
				Memory: map[uint16]uint16{3: 5},
			},
			Output: testMachineState{A: 3, D: 0xFFFD, Program: 1},
		},
		{
			Name:   "M=-1 Keyboard",
			ROM:    []uint16{0b111_0_111010_001_000},
			Input:  testMachineState{A: 0x6000},
			Output: testMachineState{A: 0x6000, Program: 1},
		},
		{
			Name:     "D=M Keyboard",
			ROM:      []uint16{0b111_1_110000_010_000},
			Keyboard: 'K',
			Input:    testMachineState{A: 0x6000},
			Output: testMachineState{
				A:       0x6000,
				D:       'K',
				Program: 1,
				Memory:  map[uint16]uint16{0x6000: 'K'},
			},
		},
	})
}

func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "0;JMP",
			ROM:    []uint16{0b111_0_101010_000_111},
			Input:  testMachineState{A: 3},
			Output: testMachineState{A: 3, Program: 3},
		},
		{
			Name:   "D;JGT Taken",
			ROM:    []uint16{0b111_0_001100_000_001},
			Input:  testMachineState{A: 40, D: 1},
			Output: testMachineState{A: 40, D: 1, Program: 40},
		},
		{
			Name:   "D;JGT Not Taken",
			ROM:    []uint16{0b111_0_001100_000_001},
			Input:  testMachineState{A: 40, D: 0},
			Output: testMachineState{A: 40, D: 0, Program: 1},
		},
		{
			Name:   "D;JLT Negative",
			ROM:    []uint16{0b111_0_001100_000_100},
			Input:  testMachineState{A: 40, D: 0xFFFF},
			Output: testMachineState{A: 40, D: 0xFFFF, Program: 40},
		},
		{
			Name:   "D;JLT Positive",
			ROM:    []uint16{0b111_0_001100_000_100},
			Input:  testMachineState{A: 40, D: 0x7FFF},
			Output: testMachineState{A: 40, D: 0x7FFF, Program: 1},
		},
		{
			// The jump target is A before the instruction writes it
			Name:   "A=A-1;JNE",
			ROM:    []uint16{0b111_0_110010_100_101},
			Input:  testMachineState{A: 5},
			Output: testMachineState{A: 4, Program: 5},
		},
	})
}

func TestALU(t *testing.T) {
	var x, y, m uint16 = 21, 6, 0xFFF0

	want := map[string]uint16{
		"0":   0,
		"1":   1,
		"-1":  0xFFFF,
		"D":   x,
		"A":   y,
		"M":   m,
		"!D":  ^x,
		"!A":  ^y,
		"!M":  ^m,
		"-D":  -x,
		"-A":  -y,
		"-M":  -m,
		"D+1": x + 1,
		"A+1": y + 1,
		"M+1": m + 1,
		"D-1": x - 1,
		"A-1": y - 1,
		"M-1": m - 1,
		"D+A": x + y,
		"D+M": x + m,
		"D-A": x - y,
		"D-M": x - m,
		"A-D": y - x,
		"M-D": m - x,
		"D&A": x & y,
		"D&M": x & m,
		"D|A": x | y,
		"D|M": x | m,
	}

	for comp, out := range want {
		t.Run(comp, func(t *testing.T) {
			instruction, err := assembler.EncodeCompute(
				assembler.Instruction{Comp: comp},
			)

			if err != nil {
				t.Fatal(err)
			}

			operand := y
			if instruction&machine.BIT_A != 0 {
				operand = m
			}

			if have := machine.ALU(x, operand, instruction); have != out {
				t.Fatalf("want:%#04x\nhave:%#04x", out, have)
			}
		})
	}
}

func assembleAndLoad(t *testing.T, source string) *machine.Machine {
	t.Helper()

	words, errs := assembler.AssembleHackSource(strings.NewReader(source), nil)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	var buffer strings.Builder
	if err := assembler.WriteHack(&buffer, words); err != nil {
		t.Fatal(err)
	}

	var mc machine.Machine
	if err := mc.LoadHack(strings.NewReader(buffer.String())); err != nil {
		t.Fatal(err)
	}

	return &mc
}

const maxSource = `
	@R0
	D=M
	@R1
	D=D-M
	@OUTPUT_FIRST
	D;JGT
	@R1
	D=M
	@OUTPUT_D
	0;JMP
(OUTPUT_FIRST)
	@R0
	D=M
(OUTPUT_D)
	@R2
	M=D
(INFINITE_LOOP)
	@INFINITE_LOOP
	0;JMP
`

const multSource = `
	// R2 = R0 * R1
	@R2
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

const fillSource = `
	@KBD
	D=M
	@SKIP
	D;JEQ
	@SCREEN
	M=-1
(SKIP)
(END)
	@END
	0;JMP
`

func TestProgram(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		mc := assembleAndLoad(t, "@2\nD=A\n@3\nD=D+A\n@0\nM=D")

		if cycles := mc.Run(0); cycles != 6 {
			t.Fatalf("Cycle count\nwant:6\nhave:%d", cycles)
		}

		testMemory(t, &mc.State, nil, map[uint16]uint16{0: 5})
	})

	for _, test := range []struct {
		Name     string
		R0, R1   uint16
		R2       uint16
		Halt     uint16
		Source   string
		Keyboard uint16
	}{
		{Name: "Max", R0: 7, R1: 3, R2: 7, Halt: 14, Source: maxSource},
		{Name: "Max Swapped", R0: 3, R1: 7, R2: 7, Halt: 14, Source: maxSource},
		{Name: "Max Negative", R0: 0xFFFE, R1: 5, R2: 5, Halt: 14, Source: maxSource},
		{Name: "Mult", R0: 6, R1: 7, R2: 42, Halt: 18, Source: multSource},
		{Name: "Mult Zero", R0: 6, R1: 0, R2: 0, Halt: 18, Source: multSource},
	} {
		t.Run(test.Name, func(t *testing.T) {
			mc := assembleAndLoad(t, test.Source)
			mc.State.Memory[0] = test.R0
			mc.State.Memory[1] = test.R1

			mc.Run(10000)

			if !mc.Halted() {
				t.Fatal("Program did not halt")
			}

			if mc.State.Program != test.Halt {
				t.Fatalf("Halt address\nwant:%d\nhave:%d", test.Halt, mc.State.Program)
			}

			if have := mc.State.Memory[2]; have != test.R2 {
				t.Fatalf("R2\nwant:%d\nhave:%d", test.R2, have)
			}
		})
	}

	t.Run("Fill", func(t *testing.T) {
		mc := assembleAndLoad(t, fillSource)
		mc.Devices = &machine.DeviceHandler{Keyboard: fixedKey('A')}
		mc.Run(100)

		if !mc.State.Pixel(0, 0) || !mc.State.Pixel(15, 0) {
			t.Fatal("Pixels 0-15 of row 0 are not set")
		}

		if mc.State.Pixel(16, 0) || mc.State.Pixel(0, 1) {
			t.Fatal("Pixels outside the first word are set")
		}

		mc = assembleAndLoad(t, fillSource)
		mc.Run(100)

		if mc.State.Pixel(0, 0) {
			t.Fatal("Pixel set without a key press")
		}
	})
}

func TestLoadHack(t *testing.T) {
	var mc machine.Machine

	if err := mc.LoadHack(strings.NewReader("0000000000000010\n\n  1110110000010000  \n")); err != nil {
		t.Fatal(err)
	}

	if mc.Size != 2 || mc.ROM[0] != 2 || mc.ROM[1] != 0b1110110000010000 {
		t.Fatalf("Unexpected ROM: size %d, %#04x %#04x", mc.Size, mc.ROM[0], mc.ROM[1])
	}

	var wordErr *machine.InvalidWordError
	if err := mc.LoadHack(strings.NewReader("0000000000000010\n@2\n")); !errors.As(err, &wordErr) {
		t.Fatalf("want:%T\nhave:%v", wordErr, err)
	}

	if wordErr.Line != 2 {
		t.Fatalf("want:line 2\nhave:line %d", wordErr.Line)
	}

	var sizeErr *machine.OversizedProgramError
	if err := mc.Load(make([]uint16, machine.ROM_SIZE+1)); !errors.As(err, &sizeErr) {
		t.Fatalf("want:%T\nhave:%v", sizeErr, err)
	}

	mc.State.Memory[7] = 1
	mc.State.D = 9

	if err := mc.Load([]uint16{1}); err != nil {
		t.Fatal(err)
	}

	if mc.State.Memory[7] != 0 || mc.State.D != 0 || mc.ROM[1] != 0 {
		t.Fatal("Load did not reset the machine")
	}
}
