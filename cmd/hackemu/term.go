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
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/lassandro/gohack/pkg/machine"
)

// Number of KBD reads a terminal key stays pressed for. Terminals report
// presses but never releases.
const keyHold = 4096

var termRestore unix.Termios
var termRaw bool

// Terminal access, replaced in tests.
var (
	isTerminal = term.IsTerminal

	getTermios = func(fd int) (*unix.Termios, error) {
		return unix.IoctlGetTermios(fd, ioctlGetTermios)
	}

	setTermios = func(fd int, termios *unix.Termios) error {
		return unix.IoctlSetTermios(fd, ioctlSetTermios, termios)
	}
)

func enterRawTerm() {
	fd := int(os.Stdin.Fd())

	if termRaw || !isTerminal(fd) {
		return
	}

	termios, err := getTermios(fd)

	if err != nil {
		panic(err)
	}

	termRestore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := setTermios(fd, &termstate); err != nil {
		panic(err)
	}

	termRaw = true
}

func exitRawTerm() {
	if !termRaw {
		return
	}

	if err := setTermios(int(os.Stdin.Fd()), &termRestore); err != nil {
		panic(err)
	}

	termRaw = false
}

// suspendRawTerm leaves raw mode for line input. The returned func puts the
// terminal back in the mode it was found in.
func suspendRawTerm() (restore func()) {
	if !termRaw {
		return func() {}
	}

	exitRawTerm()

	return enterRawTerm
}

// termKeyboard feeds raw terminal input to the KBD register.
type termKeyboard struct {
	fd   int
	key  uint16
	hold int
	buf  [8]byte
}

func newTermKeyboard() *termKeyboard {
	return &termKeyboard{fd: int(os.Stdin.Fd())}
}

func (kb *termKeyboard) Key() uint16 {
	if !termRaw {
		return 0
	}

	n, err := unix.Read(kb.fd, kb.buf[:])

	if err == nil && n > 0 {
		kb.key = decodeTermKey(kb.buf[:n])
		kb.hold = keyHold
	} else if kb.hold > 0 {
		kb.hold--
	} else {
		kb.key = 0
	}

	return kb.key
}

// decodeTermKey maps a terminal byte sequence to its Hack key code.
func decodeTermKey(seq []byte) uint16 {
	if len(seq) == 0 {
		return 0
	}

	if seq[0] == 0x1b && len(seq) > 2 {
		switch string(seq[1:]) {
		case "[A", "OA":
			return machine.KEY_UP
		case "[B", "OB":
			return machine.KEY_DOWN
		case "[C", "OC":
			return machine.KEY_RIGHT
		case "[D", "OD":
			return machine.KEY_LEFT
		case "[H", "OH", "[1~":
			return machine.KEY_HOME
		case "[F", "OF", "[4~":
			return machine.KEY_END
		case "[2~":
			return machine.KEY_INSERT
		case "[3~":
			return machine.KEY_DELETE
		case "[5~":
			return machine.KEY_PAGEUP
		case "[6~":
			return machine.KEY_PAGEDOWN
		case "OP", "[11~":
			return machine.KEY_F1
		}

		return 0
	}

	switch b := seq[len(seq)-1]; {
	case b == '\r' || b == '\n':
		return machine.KEY_NEWLINE
	case b == 0x7f || b == 0x08:
		return machine.KEY_BACKSPACE
	case b == 0x1b:
		return machine.KEY_ESCAPE
	case b >= ' ' && b < 0x7f:
		return uint16(b)
	}

	return 0
}
