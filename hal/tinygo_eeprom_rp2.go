//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"fmt"
	"machine"
)

// flashEEPROMBytes is the emulated EEPROM size, kept inside one erase block.
const flashEEPROMBytes = 512

// flashEEPROM emulates a byte-writable EEPROM in the first block of the
// flash data area. Writes rewrite the whole block.
type flashEEPROM struct {
	cache  []byte
	loaded bool
}

func newFlashEEPROM() EEPROM {
	return &flashEEPROM{}
}

func (e *flashEEPROM) SizeBytes() uint32 { return flashEEPROMBytes }

func (e *flashEEPROM) load() error {
	if e.loaded {
		return nil
	}
	bs := machine.Flash.EraseBlockSize()
	if bs < flashEEPROMBytes || machine.Flash.Size() < bs {
		return fmt.Errorf("eeprom: flash block %d bytes: %w", bs, ErrNotImplemented)
	}
	e.cache = make([]byte, bs)
	if _, err := machine.Flash.ReadAt(e.cache, 0); err != nil {
		return fmt.Errorf("eeprom: flash read: %w", err)
	}
	e.loaded = true
	return nil
}

func (e *flashEEPROM) ReadAt(p []byte, off uint32) (int, error) {
	if off >= flashEEPROMBytes {
		return 0, fmt.Errorf("eeprom read at %d: %w", off, ErrOutOfRange)
	}
	if err := e.load(); err != nil {
		return 0, err
	}
	return copy(p, e.cache[off:flashEEPROMBytes]), nil
}

func (e *flashEEPROM) WriteAt(p []byte, off uint32) (int, error) {
	if off+uint32(len(p)) > flashEEPROMBytes {
		return 0, fmt.Errorf("eeprom write at %d: %w", off, ErrOutOfRange)
	}
	if err := e.load(); err != nil {
		return 0, err
	}
	n := copy(e.cache[off:], p)
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		return 0, fmt.Errorf("eeprom write at %d: erase: %w", off, err)
	}
	if _, err := machine.Flash.WriteAt(e.cache, 0); err != nil {
		return 0, fmt.Errorf("eeprom write at %d: %w", off, err)
	}
	return n, nil
}
