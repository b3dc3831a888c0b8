//go:build !tinygo

package hal

import (
	"strings"
	"sync"
)

// ledController emulates a MAX7219 on the host. It is the SPI peer of MAX7219:
// bytes shifted in while chip select is low are latched on the rising edge,
// the last two bytes forming one register write.
type ledController struct {
	mu       sync.Mutex
	selected bool
	shift    [2]byte
	n        int
	regs     [16]uint8
	writes   uint64
}

// The zero register file is the power-on state: shut down, scan limit 0.
func newLEDController() *ledController {
	return &ledController{}
}

func (c *ledController) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, b := range w {
		c.shiftIn(b)
		if i < len(r) {
			r[i] = 0
		}
	}
	return nil
}

func (c *ledController) Transfer(b byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shiftIn(b)
	return 0, nil
}

func (c *ledController) shiftIn(b byte) {
	if !c.selected {
		return
	}
	c.shift[0] = c.shift[1]
	c.shift[1] = b
	c.n++
}

// chipSelect follows the LOAD/CS line.
func (c *ledController) chipSelect(level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !level {
		c.selected = true
		c.n = 0
		return
	}
	if c.selected && c.n >= 2 {
		reg := c.shift[0] & 0x0F
		c.regs[reg] = c.shift[1]
		c.writes++
	}
	c.selected = false
}

// ledState is a snapshot of the emulated register file.
type ledState struct {
	Digits    [8]uint8 // Digits[0] is register 8, the leftmost digit.
	Intensity uint8
	ScanLimit uint8
	Decode    uint8
	On        bool
	Test      bool
	Writes    uint64
}

func (c *ledController) state() ledState {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s ledState
	for i := 0; i < 8; i++ {
		s.Digits[i] = c.regs[8-i]
	}
	s.Intensity = c.regs[RegIntensity] & 0x0F
	s.ScanLimit = c.regs[RegScanLimit] & 0x07
	s.Decode = c.regs[RegDecode]
	s.On = c.regs[RegShutdown]&0x01 != 0
	s.Test = c.regs[RegTest]&0x01 != 0
	s.Writes = c.writes
	return s
}

// Segment patterns in no-decode mode: bit7=DP, bit6=A ... bit0=G.
var segmentRunes = map[uint8]rune{
	0x00: ' ',
	0x7E: '0', 0x30: '1', 0x6D: '2', 0x79: '3',
	0x33: '4', 0x5B: '5', 0x5F: '6', 0x70: '7',
	0x7F: '8', 0x7B: '9', 0x77: 'A', 0x1F: 'b',
	0x4E: 'C', 0x3D: 'd', 0x4F: 'E', 0x47: 'F',
	0x01: '-',
}

// text renders the visible digits as a string, decimal points inline.
// The frequency digits and the two indicator digits are separated by spaces.
func (s ledState) text() string {
	if !s.On {
		return "(off)"
	}
	var b strings.Builder
	for i, v := range s.Digits {
		// Register 8-i is chip digit 7-i; digits past the scan limit are dark.
		if 7-i > int(s.ScanLimit) {
			v = 0
		}
		if i == 6 || i == 7 {
			b.WriteByte(' ')
		}
		r, ok := segmentRunes[v&0x7F]
		if !ok {
			r = '?'
		}
		if s.Test {
			r = '8'
		}
		b.WriteRune(r)
		if v&0x80 != 0 || s.Test {
			b.WriteByte('.')
		}
	}
	return b.String()
}
