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


package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/lassandro/gohack/pkg/assembler"
	"github.com/lassandro/gohack/pkg/debugger"
	"github.com/lassandro/gohack/pkg/encoding"
	"github.com/lassandro/gohack/pkg/machine"
)

// Instructions run between checks for an interrupt.
const runChunk = 4096

var helpvar bool
var debugvar bool
var screenvar bool
var cyclesvar uint64
var dumpvar string

var shouldexit atomic.Bool

const usage = "hackemu [-debug] [-cycles n] [-dump addr:count] [-screen] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&screenvar, "screen", false,
		"Opens a window showing the screen memory map and feeding key "+
			"presses to the keyboard register",
	)
	flag.Uint64Var(
		&cyclesvar, "cycles", 0,
		"Stops the machine after this many instructions (0 runs until halt)",
	)
	flag.StringVar(
		&dumpvar, "dump", "",
		"Prints count RAM words starting at addr once the machine stops",
	)
}

// run steps the machine until it halts, limit instructions have run, or the
// user interrupts. A zero limit runs until halt.
func run(mc *machine.Machine, limit uint64) uint64 {
	var cycles uint64

	for !shouldexit.Load() && (limit == 0 || cycles < limit) {
		chunk := uint64(runChunk)

		if debugvar {
			chunk = 1
		}

		if limit != 0 && limit-cycles < chunk {
			chunk = limit - cycles
		}

		n := mc.Run(chunk)
		cycles += n

		if n < chunk {
			break
		}
	}

	return cycles
}

// parseDump splits an "addr:count" range.
func parseDump(s string) (uint16, uint16, error) {
	addrtext, counttext, found := strings.Cut(s, ":")

	if !found {
		counttext = "1"
	}

	addr, err := encoding.DecodeAddress(addrtext)

	if err != nil {
		return 0, 0, err
	}

	count, err := encoding.DecodeInt(counttext, encoding.WordWidth)

	if err != nil {
		return 0, 0, err
	}

	return addr, count, nil
}

func dump(mc *machine.MachineState, addr, count uint16) {
	for i := uint32(addr); i < uint32(addr)+uint32(count) && i < machine.RAM_SIZE; i++ {
		fmt.Printf("RAM[%d] = %d\n", i, int16(mc.Memory[i]))
	}
}

func loadDebugger(dbg *debugger.Debugger, filename string) {
	sidecar := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".hackdb"

	if file, err := os.Open(sidecar); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			log.Println("Error loading symbol file")
			log.Println(err)
		}

		file.Close()
	} else {
		log.Println("Error loading symbol file")
		log.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}
}

func hackemu() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	var dumpaddr, dumpcount uint16

	if dumpvar != "" {
		var err error
		if dumpaddr, dumpcount, err = parseDump(dumpvar); err != nil {
			log.Println(err)
			return 1
		}
	}

	file, err := os.Open(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	defer file.Close()

	var mc machine.Machine
	var dh machine.DeviceHandler
	mc.Devices = &dh

	if err := mc.LoadHack(file); err != nil {
		log.Println(err)
		return 1
	}

	var dbg *debugger.Debugger

	if debugvar {
		dbg = new(debugger.Debugger)
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		mc.Debugger = dbg

		loadDebugger(dbg, args[0])

		if closer, ok := dbg.Source.(*os.File); ok {
			defer closer.Close()
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			fmt.Println()

			if dbg != nil {
				dbg.Break.Store(true)
			} else {
				shouldexit.Store(true)
			}
		}
	}()

	defer exitRawTerm()

	var cycles uint64

	if screenvar {
		if debugvar {
			debugREPL(dbg, &mc)
		}

		if cycles, err = runScreen(&mc, cyclesvar, filepath.Base(args[0])); err != nil {
			log.Println(err)
			return 1
		}
	} else {
		dh.Keyboard = newTermKeyboard()

		enterRawTerm()

		if debugvar {
			debugREPL(dbg, &mc)
		}

		cycles = run(&mc, cyclesvar)

		exitRawTerm()
	}

	switch {
	case mc.Halted():
		log.Printf("Halted after %d instructions", cycles)
	case cyclesvar != 0 && cycles >= cyclesvar:
		log.Printf("Stopped at cycle limit (%d instructions)", cycles)
	default:
		log.Printf("Stopped after %d instructions", cycles)
	}

	if dumpvar != "" {
		dump(&mc.State, dumpaddr, dumpcount)
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(hackemu())
}
