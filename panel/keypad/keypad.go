// Package keypad scans the front panel key matrix.
package keypad

import (
	"fmt"
	"time"

	"freqpanel/hal"
)

// KeyCode is a logical key. Digits are their own value; function keys keep
// the firmware's 0xN0 encoding.
type KeyCode uint8

const (
	Key0 KeyCode = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

const (
	KeyEnter    KeyCode = 0x80
	KeyPreset   KeyCode = 0x90
	KeyBankDown KeyCode = 0xA0
	KeySlotDown KeyCode = 0xB0
	KeyBankUp   KeyCode = 0xC0
	KeySlotUp   KeyCode = 0xD0
	KeyMemory   KeyCode = 0xE0

	// KeyUnknown is a pattern that matches no key, e.g. two keys at once.
	KeyUnknown KeyCode = 0xFE
	// KeyNone means no key is down.
	KeyNone KeyCode = 0xFF
)

// IsDigit reports whether k is one of the digit keys.
func (k KeyCode) IsDigit() bool { return k <= Key9 }

// Pressed reports whether k is an actionable key.
func (k KeyCode) Pressed() bool { return k != KeyNone && k != KeyUnknown }

func (k KeyCode) String() string {
	if k.IsDigit() {
		return string(rune('0' + k))
	}
	switch k {
	case KeyEnter:
		return "ENTER"
	case KeyPreset:
		return "PRESET"
	case KeyBankDown:
		return "BANK_DOWN"
	case KeySlotDown:
		return "SLOT_DOWN"
	case KeyBankUp:
		return "BANK_UP"
	case KeySlotUp:
		return "SLOT_UP"
	case KeyMemory:
		return "MEMORY_WRITE"
	case KeyUnknown:
		return "UNKNOWN"
	case KeyNone:
		return "NONE"
	default:
		return fmt.Sprintf("KeyCode(%#02x)", uint8(k))
	}
}

// Matrix geometry.
const (
	Strobes = 3
	Senses  = 6
)

// DefaultSettle is the wait after each strobe edge.
const DefaultSettle = 100 * time.Microsecond

// decode maps strobe<<6 | sense bits to a key.
var decode = map[uint8]KeyCode{
	0x01: Key1, 0x02: Key2, 0x04: Key3, 0x08: Key0, 0x10: KeyEnter, 0x20: KeyPreset,
	0x41: Key4, 0x42: Key5, 0x44: Key6, 0x48: KeyBankDown, 0x50: KeySlotDown,
	0x81: Key7, 0x82: Key8, 0x84: Key9, 0x88: KeyBankUp, 0x90: KeySlotUp, 0xA0: KeyMemory,
}

// Scanner polls a 3x6 key matrix. Strobes are driven low one at a time and
// the first strobe that pulls any sense line low decides the key.
type Scanner struct {
	strobes []hal.GPIOPin
	senses  []hal.GPIOPin

	// Settle is the wait after driving and after releasing a strobe.
	Settle time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewScanner returns a scanner over m. Call Configure before Scan.
func NewScanner(m hal.KeyMatrix) (*Scanner, error) {
	strobes, senses := m.Strobes(), m.Senses()
	if len(strobes) != Strobes || len(senses) != Senses {
		return nil, fmt.Errorf("keypad: matrix %dx%d, want %dx%d: %w",
			len(strobes), len(senses), Strobes, Senses, hal.ErrOutOfRange)
	}
	return &Scanner{
		strobes: strobes,
		senses:  senses,
		Settle:  DefaultSettle,
		Sleep:   time.Sleep,
	}, nil
}

// Configure sets the strobes to idle-high outputs and the senses to pulled-up inputs.
func (s *Scanner) Configure() error {
	for _, p := range s.strobes {
		if err := p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			return fmt.Errorf("keypad: %w", err)
		}
		if err := p.Write(true); err != nil {
			return fmt.Errorf("keypad: %w", err)
		}
	}
	for _, p := range s.senses {
		if err := p.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
			return fmt.Errorf("keypad: %w", err)
		}
	}
	return nil
}

// Scan returns the key currently down, KeyNone, or KeyUnknown. Every strobe
// is back high when it returns.
func (s *Scanner) Scan() KeyCode {
	for i, strobe := range s.strobes {
		_ = strobe.Write(false)
		s.settle()
		btn := s.sense()
		_ = strobe.Write(true)
		s.settle()
		if btn == 0 {
			continue
		}
		if k, ok := decode[uint8(i)<<6|btn]; ok {
			return k
		}
		return KeyUnknown
	}
	return KeyNone
}

// sense returns the active-low sense lines as a bit set. A failed read
// counts as released.
func (s *Scanner) sense() uint8 {
	var btn uint8
	for i, p := range s.senses {
		level, err := p.Read()
		if err == nil && !level {
			btn |= 1 << i
		}
	}
	return btn
}

func (s *Scanner) settle() {
	if s.Settle > 0 && s.Sleep != nil {
		s.Sleep(s.Settle)
	}
}
