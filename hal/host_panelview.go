//go:build !tinygo

package hal

import (
	"fmt"
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	viewWidth  = 448
	viewHeight = 168

	digitCell   = 48
	digitTop    = 20
	digitLeft   = 16
	digitGap    = 24
	segLong     = 28
	segThick    = 6
	legendTop   = 126
	legendPitch = 14
)

var (
	colorPanel = color.RGBA{R: 0x10, G: 0x10, B: 0x14, A: 0xFF}
	colorDark  = color.RGBA{R: 0x30, G: 0x08, B: 0x08, A: 0xFF}
	colorText  = color.RGBA{R: 0xB0, G: 0xB0, B: 0xB8, A: 0xFF}
	colorGreen = color.RGBA{R: 0x20, G: 0xE0, B: 0x40, A: 0xFF}
	colorAmber = color.RGBA{R: 0xF0, G: 0xA0, B: 0x10, A: 0xFF}
)

// litColor maps the 16 intensity steps onto a visible red ramp.
func litColor(intensity uint8) color.RGBA {
	return color.RGBA{R: uint8(0x70 + int(intensity&0x0F)*9), G: 0x10, B: 0x08, A: 0xFF}
}

// drawPanel paints the emulated display, the source indicators and the key legend.
func drawPanel(fb *hostFramebuffer, st ledState, live, preset bool, switches [3]byte) {
	fb.clear(colorPanel)

	lit := litColor(st.Intensity)
	for i, v := range st.Digits {
		if !st.On || 7-i > int(st.ScanLimit) {
			v = 0
		}
		if st.Test {
			v = 0xFF
		}
		x := digitLeft + i*digitCell
		if i >= 6 {
			x += digitGap
		}
		drawDigit(fb, x, digitTop, v, lit)
	}

	font := &proggy.TinySZ8pt7b
	y := int16(legendTop)
	tinyfont.WriteLine(fb, font, digitLeft, y, "LIVE", indicatorColor(live, colorGreen))
	tinyfont.WriteLine(fb, font, digitLeft+48, y, "PRESET", indicatorColor(preset, colorAmber))
	sw := fmt.Sprintf("switches %x%02x%02x", switches[0], switches[1], switches[2])
	tinyfont.WriteLine(fb, font, digitLeft+6*digitCell+digitGap, y, sw, colorText)
	y += legendPitch
	tinyfont.WriteLine(fb, font, digitLeft, y, "0-9 digit  Enter  P preset  M write  F1-F6 switches", colorText)
	y += legendPitch
	tinyfont.WriteLine(fb, font, digitLeft, y, "PgUp/PgDn bank (PgUp cancels edit)  Up/Down slot", colorText)
}

func indicatorColor(on bool, c color.RGBA) color.RGBA {
	if on {
		return c
	}
	return colorDark
}

// drawDigit draws one seven-segment digit; v uses MAX7219 no-decode bit order.
func drawDigit(fb *hostFramebuffer, x, y int, v uint8, lit color.RGBA) {
	seg := func(bit uint8) color.RGBA {
		if v&bit != 0 {
			return lit
		}
		return colorDark
	}
	l := segLong
	t := segThick
	x0 := x + 6
	fb.fillRect(x0+t, y, l, t, seg(0x40))               // A
	fb.fillRect(x0+t+l, y+t, t, l, seg(0x20))           // B
	fb.fillRect(x0+t+l, y+2*t+l, t, l, seg(0x10))       // C
	fb.fillRect(x0+t, y+2*t+2*l, l, t, seg(0x08))       // D
	fb.fillRect(x0, y+2*t+l, t, l, seg(0x04))           // E
	fb.fillRect(x0, y+t, t, l, seg(0x02))               // F
	fb.fillRect(x0+t, y+t+l, l, t, seg(0x01))           // G
	fb.fillRect(x0+2*t+l+2, y+2*t+2*l, t, t, seg(0x80)) // DP
}
