// Package memory holds the 96 preset slots: a working table in RAM mirrored
// by 3-byte records in EEPROM.
package memory

import (
	"fmt"

	"freqpanel/hal"
	"freqpanel/panel/freq"
)

const (
	Banks        = 6
	SlotsPerBank = 16
	Slots        = Banks * SlotsPerBank
	RecordBytes  = 3
	// ImageBytes is the EEPROM space the store occupies, starting at 0.
	ImageBytes = Slots * RecordBytes
)

// Slot is a linear slot address, bank*16 + index.
type Slot uint8

// SlotOf linearizes a bank/index pair. Out-of-range inputs wrap.
func SlotOf(bank, index uint8) Slot {
	return Slot((uint(bank)%Banks)*SlotsPerBank + uint(index)%SlotsPerBank)
}

func (s Slot) norm() Slot { return s % Slots }

// Bank returns the bank of s.
func (s Slot) Bank() uint8 { return uint8(s.norm() / SlotsPerBank) }

// Index returns the slot index of s within its bank.
func (s Slot) Index() uint8 { return uint8(s.norm() % SlotsPerBank) }

// Offset returns the EEPROM address of the record.
func (s Slot) Offset() uint32 { return uint32(s.norm()) * uint32(RecordBytes) }

// String names the slot the way the indicator digits show it, e.g. "A3", "FF".
func (s Slot) String() string {
	return fmt.Sprintf("%c%X", "AbCdEF"[s.Bank()], s.Index())
}

// ParseSlot reads the indicator form: bank letter A-F and hex index, e.g.
// "A3" or "dF". Case is ignored.
func ParseSlot(v string) (Slot, error) {
	if len(v) != 2 {
		return 0, fmt.Errorf("slot %q: want bank letter and hex index", v)
	}
	b := v[0] | 0x20
	if b < 'a' || b > 'f' {
		return 0, fmt.Errorf("slot %q: bank must be A-F", v)
	}
	var idx uint8
	switch c := v[1] | 0x20; {
	case c >= '0' && c <= '9':
		idx = c - '0'
	case c >= 'a' && c <= 'f':
		idx = c - 'a' + 10
	default:
		return 0, fmt.Errorf("slot %q: index must be 0-F", v)
	}
	return SlotOf(b-'a', idx), nil
}

// Store is the preset memory. The working table is only written back to
// EEPROM by Commit and Persist.
type Store struct {
	ee    hal.EEPROM
	log   hal.Logger
	table [Slots]freq.Frequency
}

// New returns a store over ee. Call LoadAll before use.
func New(ee hal.EEPROM, log hal.Logger) *Store {
	return &Store{ee: ee, log: log}
}

// LoadAll reads every record into the working table.
func (s *Store) LoadAll() error {
	if s.ee == nil {
		return fmt.Errorf("memory: load: %w", hal.ErrNotImplemented)
	}
	if s.ee.SizeBytes() < ImageBytes {
		return fmt.Errorf("memory: eeprom %d bytes, need %d: %w", s.ee.SizeBytes(), ImageBytes, hal.ErrOutOfRange)
	}
	for i := 0; i < Slots; i++ {
		if err := s.read(Slot(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) read(slot Slot) error {
	var rec freq.Frequency
	n, err := s.ee.ReadAt(rec[:], slot.Offset())
	if err != nil {
		return fmt.Errorf("memory: read slot %v: %w", slot, err)
	}
	if n != RecordBytes {
		return fmt.Errorf("memory: read slot %v: short read %d", slot, n)
	}
	s.table[slot.norm()] = rec
	return nil
}

// Get returns the working value of slot.
func (s *Store) Get(slot Slot) freq.Frequency {
	return s.table[slot.norm()]
}

// Set changes the working value of slot without touching EEPROM.
func (s *Store) Set(slot Slot, f freq.Frequency) {
	s.table[slot.norm()] = f
}

// Commit sets slot to f and writes it to EEPROM, returning once the write
// has completed.
func (s *Store) Commit(slot Slot, f freq.Frequency) error {
	s.Set(slot, f)
	if s.ee == nil {
		return fmt.Errorf("memory: commit: %w", hal.ErrNotImplemented)
	}
	n, err := s.ee.WriteAt(f[:], slot.Offset())
	if err != nil {
		return fmt.Errorf("memory: commit slot %v: %w", slot, err)
	}
	if n != RecordBytes {
		return fmt.Errorf("memory: commit slot %v: short write %d", slot, n)
	}
	if s.log != nil {
		s.log.WriteLineString(fmt.Sprintf("memory: commit %v = %v", slot, f))
	}
	return nil
}

// Persist writes the working value of slot to EEPROM.
func (s *Store) Persist(slot Slot) error {
	return s.Commit(slot, s.Get(slot))
}

// Reload replaces the working value of slot with the EEPROM record.
func (s *Store) Reload(slot Slot) error {
	if s.ee == nil {
		return fmt.Errorf("memory: reload: %w", hal.ErrNotImplemented)
	}
	return s.read(slot)
}

// Bytes returns the working table as an EEPROM image.
func (s *Store) Bytes() []byte {
	out := make([]byte, 0, ImageBytes)
	for _, f := range s.table {
		out = append(out, f[:]...)
	}
	return out
}
