package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrOutOfRange     = errors.New("out of range")
)

// DisplayBus is the register interface of an 8-digit LED display controller.
type DisplayBus interface {
	WriteRegister(reg, val uint8) error
}

// KeyMatrix exposes the strobe (row) and sense (column) lines of a key matrix.
//
// Strobes are active low outputs, senses are active low inputs.
type KeyMatrix interface {
	Strobes() []GPIOPin
	Senses() []GPIOPin
}

// FrequencyLines are the three parallel ports carrying the frequency value plus
// the two source indicator outputs.
//
// Ports[0] carries the 10 MHz / 1 MHz pair (6 bits wired), Ports[1] the
// 100 kHz / 10 kHz pair and Ports[2] the 1 kHz / 100 Hz pair.
type FrequencyLines struct {
	Ports  [3]*Port
	Live   LED
	Preset LED
}

// EEPROM provides byte-addressed non-volatile storage.
//
// WriteAt returns once the device has finished programming.
type EEPROM interface {
	SizeBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
}

// HAL provides the only contact point between the panel and the outside world.
type HAL interface {
	Logger() Logger
	Display() DisplayBus
	Keypad() KeyMatrix
	Frequency() FrequencyLines
	EEPROM() EEPROM
}
