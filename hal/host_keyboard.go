//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PC keys standing in for the panel keys.
var hostKeyWiring = map[ebiten.Key]matrixPos{
	ebiten.KeyDigit0:      pos0,
	ebiten.KeyDigit1:      pos1,
	ebiten.KeyDigit2:      pos2,
	ebiten.KeyDigit3:      pos3,
	ebiten.KeyDigit4:      pos4,
	ebiten.KeyDigit5:      pos5,
	ebiten.KeyDigit6:      pos6,
	ebiten.KeyDigit7:      pos7,
	ebiten.KeyDigit8:      pos8,
	ebiten.KeyDigit9:      pos9,
	ebiten.KeyNumpad0:     pos0,
	ebiten.KeyNumpad1:     pos1,
	ebiten.KeyNumpad2:     pos2,
	ebiten.KeyNumpad3:     pos3,
	ebiten.KeyNumpad4:     pos4,
	ebiten.KeyNumpad5:     pos5,
	ebiten.KeyNumpad6:     pos6,
	ebiten.KeyNumpad7:     pos7,
	ebiten.KeyNumpad8:     pos8,
	ebiten.KeyNumpad9:     pos9,
	ebiten.KeyEnter:       posEnter,
	ebiten.KeyNumpadEnter: posEnter,
	ebiten.KeyP:           posPreset,
	ebiten.KeyPageDown:    posBankDn,
	ebiten.KeyPageUp:      posBankUp,
	ebiten.KeyArrowDown:   posSlotDn,
	ebiten.KeyArrowUp:     posSlotUp,
	ebiten.KeyM:           posMemory,
}

// Function keys turn the selector switches, F1 being the 10 MHz digit.
var hostSwitchKeys = [6]ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
}

type hostKeyboard struct {
	m *hostMatrix
}

func newHostKeyboard(m *hostMatrix) *hostKeyboard {
	return &hostKeyboard{m: m}
}

// poll copies the PC keyboard state onto the matrix. Several PC keys may
// share one switch, so the switch is closed while any of them is held.
func (k *hostKeyboard) poll(sw *selectorSwitches) {
	down := make(map[matrixPos]bool, len(hostKeyWiring))
	for key, pos := range hostKeyWiring {
		if ebiten.IsKeyPressed(key) {
			down[pos] = true
		}
	}
	for _, pos := range hostKeyWiring {
		k.m.setHeld(pos, down[pos])
	}

	for i, key := range hostSwitchKeys {
		if inpututil.IsKeyJustPressed(key) {
			sw.step(i)
		}
	}
}
