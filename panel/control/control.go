// Package control implements the front panel state machine: it selects the
// frequency source for each frame, renders it and interprets key presses.
package control

import (
	"fmt"

	"freqpanel/hal"
	"freqpanel/panel/display"
	"freqpanel/panel/freq"
	"freqpanel/panel/keypad"
	"freqpanel/panel/memory"
)

// Mode is the digit entry phase.
type Mode uint8

const (
	ModeIdle Mode = iota
	// ModeDigitEntry1 shifts typed digits into the upper five positions.
	ModeDigitEntry1
	// ModeDigitEntry2 overwrites the last digit.
	ModeDigitEntry2
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDigitEntry1:
		return "entry1"
	case ModeDigitEntry2:
		return "entry2"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

const (
	Banks        = memory.Banks
	SlotsPerBank = memory.SlotsPerBank

	// entryDigits is the number of digits shifted in before the last digit
	// is edited on its own.
	entryDigits = freq.Digits - 1
)

// State is everything the panel remembers between frames.
type State struct {
	Bank   uint8
	Index  uint8
	Preset bool
	Mode   Mode
	Edit   freq.Frequency
	// Count is the number of digits typed in the current entry.
	Count uint8
	// Flash is the number of write acknowledge frames left.
	Flash uint8
	// Blink is the free running frame counter that gates digits while editing.
	Blink uint8
	// PrevKey is the previous frame's raw scan result.
	PrevKey keypad.KeyCode
	// Freq is the value shown in the current frame.
	Freq freq.Frequency
}

// NewState returns the power-on state: live mode, slot A0.
func NewState() State {
	return State{PrevKey: keypad.KeyNone}
}

// Slot is the selected memory slot.
func (s State) Slot() memory.Slot { return memory.SlotOf(s.Bank, s.Index) }

// Editing reports whether a digit entry is in progress.
func (s State) Editing() bool { return s.Mode != ModeIdle }

func (s State) String() string {
	src := "live"
	if s.Preset {
		src = "preset"
	}
	return fmt.Sprintf("%s %s %v %s", src, s.Slot(), s.Freq, s.Mode)
}

// Scanner returns one key code per call.
type Scanner interface {
	Scan() keypad.KeyCode
}

// Lines is the frequency port interface, see freqio.Lines.
type Lines interface {
	EnterLive() error
	EnterPreset() error
	ReadLive() (freq.Frequency, error)
	Drive(f freq.Frequency) error
}

// Display renders one frame, see display.Renderer.
type Display interface {
	Render(f freq.Frequency, bank, index uint8, editing bool, blinkPhase, flashCounter uint8) error
}

// Memory is the preset table, see memory.Store.
type Memory interface {
	Get(slot memory.Slot) freq.Frequency
	Set(slot memory.Slot, f freq.Frequency)
	Commit(slot memory.Slot, f freq.Frequency) error
	Persist(slot memory.Slot) error
	Reload(slot memory.Slot) error
}

// Controller runs the panel one frame at a time. It is not safe for
// concurrent use.
type Controller struct {
	state   State
	mem     Memory
	disp    Display
	scanner Scanner
	lines   Lines
	log     hal.Logger
}

func New(mem Memory, disp Display, scanner Scanner, lines Lines, log hal.Logger) *Controller {
	return &Controller{
		state:   NewState(),
		mem:     mem,
		disp:    disp,
		scanner: scanner,
		lines:   lines,
		log:     log,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Step runs one frame: resolve the frequency source, render, scan the keypad
// and dispatch a newly pressed key. Hardware and storage errors are logged
// and do not stop the frame.
func (c *Controller) Step() error {
	if c.mem == nil || c.disp == nil || c.scanner == nil || c.lines == nil {
		return fmt.Errorf("control: %w", hal.ErrNotImplemented)
	}
	s := &c.state

	switch {
	case !s.Preset:
		f, err := c.lines.ReadLive()
		if err != nil {
			c.logf("control: %v", err)
		} else {
			s.Freq = f
		}
		s.Mode = ModeIdle
		s.Count = 0
	case s.Editing():
		s.Freq = s.Edit
	default:
		s.Freq = c.mem.Get(s.Slot())
		if err := c.lines.Drive(s.Freq); err != nil {
			c.logf("control: %v", err)
		}
	}

	if err := c.disp.Render(s.Freq, s.Bank, s.Index, s.Editing(), s.Blink, s.Flash); err != nil {
		c.logf("control: %v", err)
	}
	if s.Flash > 0 {
		s.Flash--
	}
	s.Blink++

	key := c.scanner.Scan()
	if key.Pressed() && key != s.PrevKey {
		c.Dispatch(key)
	}
	s.PrevKey = key
	return nil
}

// Dispatch applies one key press.
func (c *Controller) Dispatch(key keypad.KeyCode) {
	s := &c.state
	switch {
	case key.IsDigit():
		c.digit(uint8(key))

	case key == keypad.KeyEnter:
		c.enter()

	case key == keypad.KeyPreset:
		if !s.Editing() {
			c.togglePreset()
		}

	case key == keypad.KeyBankDown:
		if s.Mode == ModeDigitEntry1 {
			s.Mode = ModeDigitEntry2
			return
		}
		s.Bank = wrapDown(s.Bank, Banks)

	case key == keypad.KeySlotDown:
		s.Index = wrapDown(s.Index, SlotsPerBank)

	case key == keypad.KeyBankUp:
		if s.Editing() {
			c.logf("control: %s entry cancelled", s.Slot())
			s.Mode = ModeIdle
			return
		}
		s.Bank = wrapUp(s.Bank, Banks)

	case key == keypad.KeySlotUp:
		s.Index = wrapUp(s.Index, SlotsPerBank)

	case key == keypad.KeyMemory:
		c.memoryWrite()
	}
}

func (c *Controller) digit(d uint8) {
	s := &c.state
	if !s.Preset {
		return
	}
	switch s.Mode {
	case ModeIdle:
		s.Edit = freq.Frequency{0, 0, d << 4}
		s.Count = 1
		s.Mode = ModeDigitEntry1
	case ModeDigitEntry1:
		s.Edit = shiftIn(s.Edit, d)
		s.Count++
		if s.Count >= entryDigits {
			s.Mode = ModeDigitEntry2
		}
	case ModeDigitEntry2:
		s.Edit = s.Edit.SetDigit(freq.Digits-1, d)
	}
}

// shiftIn moves the upper five digits one place left and puts d in the
// fifth digit. The last digit is cleared.
func shiftIn(f freq.Frequency, d uint8) freq.Frequency {
	return freq.Frequency{
		f[0]<<4 | f[1]>>4,
		f[1]<<4 | f[2]>>4,
		d << 4,
	}
}

func (c *Controller) enter() {
	s := &c.state
	if !s.Preset {
		return
	}
	slot := s.Slot()
	if s.Editing() {
		c.mem.Set(slot, s.Edit)
		s.Mode = ModeIdle
		c.logf("control: %s = %v", slot, s.Edit)
		return
	}
	if err := c.mem.Reload(slot); err != nil {
		c.logf("control: %v", err)
	}
}

func (c *Controller) togglePreset() {
	s := &c.state
	if s.Preset {
		s.Preset = false
		if err := c.lines.EnterLive(); err != nil {
			c.logf("control: %v", err)
		}
		c.logf("control: preset off")
		return
	}
	s.Preset = true
	if err := c.lines.EnterPreset(); err != nil {
		c.logf("control: %v", err)
	}
	c.logf("control: preset on %s", s.Slot())
}

func (c *Controller) memoryWrite() {
	s := &c.state
	slot := s.Slot()
	var err error
	switch {
	case !s.Preset:
		err = c.mem.Commit(slot, s.Freq)
	case !s.Editing():
		err = c.mem.Persist(slot)
	default:
		return
	}
	if err != nil {
		c.logf("control: %v", err)
		return
	}
	s.Flash = display.FlashFrames
}

func (c *Controller) logf(format string, args ...any) {
	if c.log == nil {
		return
	}
	c.log.WriteLineString(fmt.Sprintf(format, args...))
}

func wrapUp(v, n uint8) uint8 {
	if v >= n-1 {
		return 0
	}
	return v + 1
}

func wrapDown(v, n uint8) uint8 {
	if v == 0 || v >= n {
		return n - 1
	}
	return v - 1
}
