// Package display renders the frequency and the bank/slot indicator onto an
// 8-digit MAX7219 LED display in no-decode mode.
package display

import (
	"fmt"

	"freqpanel/hal"
	"freqpanel/panel/freq"
)

// Glyphs are segment patterns for 0-F, bit6=A ... bit0=G.
var Glyphs = [16]uint8{
	0x7E, 0x30, 0x6D, 0x79, 0x33, 0x5B, 0x5F, 0x70,
	0x7F, 0x7B, 0x77, 0x1F, 0x4E, 0x3D, 0x4F, 0x47,
}

const (
	// DecimalPoint is the DP segment bit.
	DecimalPoint uint8 = 0x80

	// BlinkMask selects the BlinkPhase bit that gates digits while editing.
	BlinkMask = 0x08

	// FlashFrames is the length of the write-acknowledge pulse.
	FlashFrames = 8

	IntensityBaseline uint8 = 0x00
	IntensityFlash    uint8 = 0x08
	IntensityMax      uint8 = 0x0F

	bankGlyphBase = 0x0A
)

// Register layout: frequency digits on 8..3, bank on 2, slot on 1.
const (
	regFirstDigit = 8
	regBank       = 2
	regSlot       = 1
)

// Write is one register write.
type Write struct {
	Reg uint8
	Val uint8
}

func (w Write) String() string { return fmt.Sprintf("%#02x:=%#02x", w.Reg, w.Val) }

// Renderer writes frames to a display bus.
type Renderer struct {
	bus hal.DisplayBus
	buf []Write
}

func New(bus hal.DisplayBus) *Renderer {
	return &Renderer{bus: bus, buf: make([]Write, 0, 9)}
}

// InitSequence is the controller start-up sequence: test off, no decode,
// all 8 digits, baseline intensity, leave shutdown.
func InitSequence() []Write {
	return []Write{
		{hal.RegTest, 0x00},
		{hal.RegDecode, 0x00},
		{hal.RegScanLimit, 0x07},
		{hal.RegIntensity, IntensityBaseline},
		{hal.RegShutdown, 0x01},
	}
}

// Init programs the controller.
func (r *Renderer) Init() error {
	return r.send(InitSequence())
}

// FlashIntensity is the intensity for a pulse frame. The first frame is at
// full brightness, the last one restores the baseline.
func FlashIntensity(flashCounter uint8) uint8 {
	switch {
	case flashCounter >= FlashFrames:
		return IntensityMax
	case flashCounter <= 1:
		return IntensityBaseline
	default:
		return IntensityFlash
	}
}

// Frame appends the register writes for one frame to dst. It has no side
// effects, so equal arguments always produce equal writes.
func Frame(dst []Write, f freq.Frequency, bank, index uint8, editing bool, blinkPhase, flashCounter uint8) []Write {
	if flashCounter > 0 {
		dst = append(dst, Write{hal.RegIntensity, FlashIntensity(flashCounter)})
	}

	visible := !editing || blinkPhase&BlinkMask != 0
	significant := false
	for i := 0; i < freq.Digits; i++ {
		d := f.Digit(i)
		if d > 0 || i == 2 {
			significant = true
		}
		var v uint8
		if significant && visible {
			v = Glyphs[d]
			if i == 1 || i == 4 {
				v |= DecimalPoint
			}
		}
		dst = append(dst, Write{uint8(regFirstDigit - i), v})
	}

	dst = append(dst,
		Write{regBank, Glyphs[(bankGlyphBase+bank)&0x0F]},
		Write{regSlot, Glyphs[index&0x0F]},
	)
	return dst
}

// Render sends one frame to the display.
func (r *Renderer) Render(f freq.Frequency, bank, index uint8, editing bool, blinkPhase, flashCounter uint8) error {
	r.buf = Frame(r.buf[:0], f, bank, index, editing, blinkPhase, flashCounter)
	return r.send(r.buf)
}

func (r *Renderer) send(ws []Write) error {
	if r.bus == nil {
		return fmt.Errorf("display: %w", hal.ErrNotImplemented)
	}
	for _, w := range ws {
		if err := r.bus.WriteRegister(w.Reg, w.Val); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}
	return nil
}
