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

import (
	"bufio"
	"io"
	"strings"

	"github.com/lassandro/gohack/pkg/encoding"
)

func (mc *MachineState) Reset() {
	mc.A = 0x0000
	mc.D = 0x0000
	mc.Program = 0x0000

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}
}

// LoadHack resets the machine and loads a program in .hack text form, one
// binary word per line. Blank lines are ignored.
func (mc *Machine) LoadHack(reader io.Reader) error {
	var words []uint16

	scanner := bufio.NewScanner(reader)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if len(text) == 0 {
			continue
		}

		word, err := encoding.DecodeWord(text)

		if err != nil {
			return &InvalidWordError{line, text}
		}

		words = append(words, word)
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return mc.Load(words)
}

// Load resets the machine and copies words into ROM.
func (mc *Machine) Load(words []uint16) error {
	if len(words) > ROM_SIZE {
		return &OversizedProgramError{len(words)}
	}

	mc.State.Reset()

	for i := range mc.ROM {
		mc.ROM[i] = 0x0000
	}

	copy(mc.ROM[:], words)
	mc.Size = uint16(len(words))

	return nil
}

func (mc *Machine) read(addr uint16) uint16 {
	addr &= ADDRESS_MASK

	if addr == DEV_KBD {
		if mc.Devices != nil && mc.Devices.Keyboard != nil {
			mc.State.Memory[DEV_KBD] = mc.Devices.Keyboard.Key()
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint16) {
	addr &= ADDRESS_MASK

	// The keyboard register is read-only
	if addr != DEV_KBD {
		mc.State.Memory[addr] = value
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// ALU computes out = f(x, y) under the zx nx zy ny f no control bits of a
// compute instruction.
func ALU(x, y, instruction uint16) uint16 {
	if instruction&ALU_ZX != 0 {
		x = 0
	}

	if instruction&ALU_NX != 0 {
		x = ^x
	}

	if instruction&ALU_ZY != 0 {
		y = 0
	}

	if instruction&ALU_NY != 0 {
		y = ^y
	}

	var out uint16

	if instruction&ALU_F != 0 {
		out = x + y
	} else {
		out = x & y
	}

	if instruction&ALU_NO != 0 {
		out = ^out
	}

	return out
}

func shouldJump(out, instruction uint16) bool {
	switch {
	case out == 0:
		return instruction&JUMP_EQ != 0
	case out>>15 == 1:
		return instruction&JUMP_LT != 0
	default:
		return instruction&JUMP_GT != 0
	}
}

// Halted reports whether the machine has run past its program or is parked
// in the conventional "(END) @END 0;JMP" loop.
func (mc *Machine) Halted() bool {
	pc := mc.State.Program

	if pc >= mc.Size {
		return true
	}

	if pc+1 >= mc.Size {
		return false
	}

	load := mc.ROM[pc]
	jump := mc.ROM[pc+1]

	return load&BIT_COMPUTE == 0 && load == pc &&
		jump&BIT_COMPUTE != 0 && jump&JUMP_MASK == JUMP_MASK &&
		jump&DEST_A == 0
}

func (mc *Machine) Step() {
	instruction := mc.ROM[mc.State.Program&ADDRESS_MASK]

	mc.State.Program++

	// A    |0|value                          | Load address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	if instruction&BIT_COMPUTE == 0 {
		mc.State.A = instruction
	} else {
		// C    |1 1 1|a|c c c c c c|d d d|j j j  | Compute
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		addr := mc.State.A

		y := addr
		if instruction&BIT_A != 0 {
			y = mc.read(addr)
		}

		out := ALU(mc.State.D, y, instruction)

		if instruction&DEST_M != 0 {
			mc.write(addr, out)
		}

		if instruction&DEST_A != 0 {
			mc.State.A = out
		}

		if instruction&DEST_D != 0 {
			mc.State.D = out
		}

		if shouldJump(out, instruction) {
			mc.State.Program = addr
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}
}

// Run steps the machine until it halts or limit instructions have run. A
// zero limit runs until halt. It returns the number of instructions run.
func (mc *Machine) Run(limit uint64) uint64 {
	var cycles uint64

	for (limit == 0 || cycles < limit) && !mc.Halted() {
		mc.Step()
		cycles++
	}

	return cycles
}

// Pixel reports whether the screen pixel at (x, y) is set.
func (mc *MachineState) Pixel(x, y int) bool {
	word := mc.Memory[int(MEMSPACE_SCREEN)+y*(SCREEN_WIDTH/16)+x/16]
	return (word>>(x%16))&0x1 == 1
}
