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


//go:build !headless

package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/lassandro/gohack/pkg/machine"
)

// Instructions run per frame, roughly 6 MHz at 60 frames a second.
const cyclesPerFrame = 100000

const screenScale = 2

var screenKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:       machine.KEY_NEWLINE,
	ebiten.KeyNumpadEnter: machine.KEY_NEWLINE,
	ebiten.KeyBackspace:   machine.KEY_BACKSPACE,
	ebiten.KeyArrowLeft:   machine.KEY_LEFT,
	ebiten.KeyArrowUp:     machine.KEY_UP,
	ebiten.KeyArrowRight:  machine.KEY_RIGHT,
	ebiten.KeyArrowDown:   machine.KEY_DOWN,
	ebiten.KeyHome:        machine.KEY_HOME,
	ebiten.KeyEnd:         machine.KEY_END,
	ebiten.KeyPageUp:      machine.KEY_PAGEUP,
	ebiten.KeyPageDown:    machine.KEY_PAGEDOWN,
	ebiten.KeyInsert:      machine.KEY_INSERT,
	ebiten.KeyDelete:      machine.KEY_DELETE,
	ebiten.KeyEscape:      machine.KEY_ESCAPE,
	ebiten.KeyF1:          machine.KEY_F1,
}

// screenKeyboard holds the key last reported by the window.
type screenKeyboard struct {
	key     uint16
	pressed []ebiten.Key
}

func (kb *screenKeyboard) Key() uint16 {
	return kb.key
}

func (kb *screenKeyboard) update() {
	kb.pressed = inpututil.AppendPressedKeys(kb.pressed[:0])

	for _, key := range kb.pressed {
		if code, ok := screenKeys[key]; ok {
			kb.key = code
			return
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r >= ' ' && r < 0x7f {
			kb.key = uint16(r)
		}
	}

	held := false
	for _, key := range kb.pressed {
		switch key {
		case ebiten.KeyShiftLeft, ebiten.KeyShiftRight,
			ebiten.KeyControlLeft, ebiten.KeyControlRight,
			ebiten.KeyAltLeft, ebiten.KeyAltRight,
			ebiten.KeyMetaLeft, ebiten.KeyMetaRight:
		default:
			held = true
		}
	}

	if !held {
		kb.key = 0
	}
}

type screenGame struct {
	mc       *machine.Machine
	keyboard *screenKeyboard
	limit    uint64
	cycles   uint64
	frame    *ebiten.Image
	pixels   []byte
}

func newScreenGame(mc *machine.Machine, limit uint64) *screenGame {
	keyboard := new(screenKeyboard)
	mc.Devices.Keyboard = keyboard

	return &screenGame{
		mc:       mc,
		keyboard: keyboard,
		limit:    limit,
		pixels:   make([]byte, machine.SCREEN_WIDTH*machine.SCREEN_HEIGHT*4),
	}
}

func (game *screenGame) Update() error {
	if shouldexit.Load() {
		return ebiten.Termination
	}

	game.keyboard.update()

	chunk := uint64(cyclesPerFrame)

	if game.limit != 0 {
		if game.cycles >= game.limit {
			return nil
		}

		if game.limit-game.cycles < chunk {
			chunk = game.limit - game.cycles
		}
	}

	game.cycles += run(game.mc, chunk)

	return nil
}

func (game *screenGame) Draw(screen *ebiten.Image) {
	if game.frame == nil {
		game.frame = ebiten.NewImage(machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT)
	}

	for y := 0; y < machine.SCREEN_HEIGHT; y++ {
		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			var shade byte = 0xff
			if game.mc.State.Pixel(x, y) {
				shade = 0x00
			}

			i := (y*machine.SCREEN_WIDTH + x) * 4
			game.pixels[i+0] = shade
			game.pixels[i+1] = shade
			game.pixels[i+2] = shade
			game.pixels[i+3] = 0xff
		}
	}

	game.frame.WritePixels(game.pixels)
	screen.DrawImage(game.frame, nil)
}

func (game *screenGame) Layout(_, _ int) (int, int) {
	return machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT
}

func runScreen(mc *machine.Machine, limit uint64, title string) (uint64, error) {
	game := newScreenGame(mc, limit)

	ebiten.SetWindowSize(
		machine.SCREEN_WIDTH*screenScale, machine.SCREEN_HEIGHT*screenScale,
	)
	ebiten.SetWindowTitle(title)
	ebiten.SetRunnableOnUnfocused(true)

	err := ebiten.RunGame(game)

	return game.cycles, err
}
