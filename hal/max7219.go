package hal

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// MAX7219 register addresses.
const (
	RegNoop      uint8 = 0x00
	RegDigit0    uint8 = 0x01
	RegDecode    uint8 = 0x09
	RegIntensity uint8 = 0x0A
	RegScanLimit uint8 = 0x0B
	RegShutdown  uint8 = 0x0C
	RegTest      uint8 = 0x0F
)

// MAX7219 drives a MAX7219/MAX7221 over SPI with a software chip select.
type MAX7219 struct {
	bus drivers.SPI
	cs  GPIOPin
	buf [2]byte
}

// NewMAX7219 returns a driver that frames register writes with cs low.
// cs must already be configured as an output.
func NewMAX7219(bus drivers.SPI, cs GPIOPin) *MAX7219 {
	return &MAX7219{bus: bus, cs: cs}
}

func (d *MAX7219) WriteRegister(reg, val uint8) error {
	if d.bus == nil || d.cs == nil {
		return ErrNotImplemented
	}
	if reg > 0x0F {
		return fmt.Errorf("max7219: register %#02x: %w", reg, ErrOutOfRange)
	}
	if err := d.cs.Write(false); err != nil {
		return fmt.Errorf("max7219: select: %w", err)
	}
	d.buf[0] = reg
	d.buf[1] = val
	err := d.bus.Tx(d.buf[:], nil)
	if cerr := d.cs.Write(true); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("max7219: write %#02x: %w", reg, err)
	}
	return nil
}
