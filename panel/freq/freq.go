// Package freq defines the six-digit BCD frequency value shown and stored by
// the panel.
//
// Digit 0 is the 10 MHz digit and digit 5 the 100 Hz digit. Each byte holds
// two digits, the more significant one in the high nibble.
package freq

import (
	"errors"
	"fmt"
)

// Digits is the number of digits in a Frequency.
const Digits = 6

// LiveMask keeps the lines wired on the 10 MHz / 1 MHz port.
const LiveMask = 0x3F

var ErrSyntax = errors.New("invalid frequency")

// Frequency is a packed BCD value, most significant digit first.
type Frequency [3]byte

// Digit returns digit i (0 = most significant).
func (f Frequency) Digit(i int) uint8 {
	b := f[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// SetDigit returns f with digit i replaced by d.
func (f Frequency) SetDigit(i int, d uint8) Frequency {
	d &= 0x0F
	if i%2 == 0 {
		f[i/2] = f[i/2]&0x0F | d<<4
	} else {
		f[i/2] = f[i/2]&0xF0 | d
	}
	return f
}

// Valid reports whether every digit is 0-9.
func (f Frequency) Valid() bool {
	for i := 0; i < Digits; i++ {
		if f.Digit(i) > 9 {
			return false
		}
	}
	return true
}

// String formats f the way the panel shows it, e.g. "12.345.6".
// Digits above 9 print as hex, which is how erased storage (FF.FFF.F) looks.
func (f Frequency) String() string {
	const hex = "0123456789ABCDEF"
	var b [Digits + 2]byte
	n := 0
	for i := 0; i < Digits; i++ {
		b[n] = hex[f.Digit(i)]
		n++
		if i == 1 || i == 4 {
			b[n] = '.'
			n++
		}
	}
	return string(b[:n])
}

// Parse reads six decimal digits. Dots are ignored, so both "123456" and
// "12.345.6" are accepted.
func Parse(s string) (Frequency, error) {
	var f Frequency
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' || n == Digits {
			return Frequency{}, fmt.Errorf("freq %q: %w", s, ErrSyntax)
		}
		f = f.SetDigit(n, c-'0')
		n++
	}
	if n != Digits {
		return Frequency{}, fmt.Errorf("freq %q: %w", s, ErrSyntax)
	}
	return f, nil
}
