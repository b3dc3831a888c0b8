package control

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"freqpanel/hal"
	"freqpanel/panel/display"
	"freqpanel/panel/freq"
	"freqpanel/panel/keypad"
	"freqpanel/panel/memory"
)

type memEEPROM struct {
	data []byte
	fail error
}

func (e *memEEPROM) SizeBytes() uint32 { return uint32(len(e.data)) }

func (e *memEEPROM) ReadAt(p []byte, off uint32) (int, error) {
	if e.fail != nil {
		return 0, e.fail
	}
	return copy(p, e.data[off:]), nil
}

func (e *memEEPROM) WriteAt(p []byte, off uint32) (int, error) {
	if e.fail != nil {
		return 0, e.fail
	}
	return copy(e.data[off:], p), nil
}

type recordingBus struct {
	writes []display.Write
}

func (b *recordingBus) WriteRegister(reg, val uint8) error {
	b.writes = append(b.writes, display.Write{Reg: reg, Val: val})
	return nil
}

// scriptScanner returns the queued codes one per frame, then KeyNone.
type scriptScanner struct {
	keys []keypad.KeyCode
}

func (s *scriptScanner) Scan() keypad.KeyCode {
	if len(s.keys) == 0 {
		return keypad.KeyNone
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k
}

type fakeLines struct {
	live    freq.Frequency
	driven  freq.Frequency
	drives  int
	output  bool
	events  []string
	readErr error
}

func (l *fakeLines) EnterLive() error {
	l.output = false
	l.events = append(l.events, "live")
	return nil
}

func (l *fakeLines) EnterPreset() error {
	l.output = true
	l.events = append(l.events, "preset")
	return nil
}

func (l *fakeLines) ReadLive() (freq.Frequency, error) {
	if l.readErr != nil {
		return freq.Frequency{}, l.readErr
	}
	return l.live, nil
}

func (l *fakeLines) Drive(f freq.Frequency) error {
	if !l.output {
		return errors.New("ports are inputs")
	}
	l.driven = f
	l.drives++
	return nil
}

type bufLogger struct {
	lines []string
}

func (l *bufLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *bufLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type harness struct {
	t       *testing.T
	ee      *memEEPROM
	store   *memory.Store
	bus     *recordingBus
	scanner *scriptScanner
	lines   *fakeLines
	log     *bufLogger
	c       *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		ee:      &memEEPROM{data: make([]byte, memory.ImageBytes)},
		bus:     &recordingBus{},
		scanner: &scriptScanner{},
		lines:   &fakeLines{live: freq.Frequency{0x10, 0x00, 0x00}},
		log:     &bufLogger{},
	}
	h.store = memory.New(h.ee, h.log)
	if err := h.store.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	h.c = New(h.store, display.New(h.bus), h.scanner, h.lines, h.log)
	return h
}

func (h *harness) step() {
	h.t.Helper()
	if err := h.c.Step(); err != nil {
		h.t.Fatalf("Step: %v", err)
	}
}

// press taps each key: one frame down, one frame released.
func (h *harness) press(keys ...keypad.KeyCode) {
	h.t.Helper()
	for _, k := range keys {
		h.scanner.keys = append(h.scanner.keys, k, keypad.KeyNone)
		h.step()
		h.step()
	}
}

func (h *harness) state() State { return h.c.State() }

func (h *harness) preset() {
	h.t.Helper()
	h.press(keypad.KeyPreset)
	if !h.state().Preset {
		h.t.Fatal("PRESET did not enter preset mode")
	}
}

func digitKeys(s string) []keypad.KeyCode {
	var out []keypad.KeyCode
	for _, r := range s {
		out = append(out, keypad.KeyCode(r-'0'))
	}
	return out
}

func TestBankWrap(t *testing.T) {
	for bank := uint8(0); bank < Banks; bank++ {
		h := newHarness(t)
		h.c.state.Bank = bank
		for i := 0; i < Banks; i++ {
			h.press(keypad.KeyBankUp)
		}
		if got := h.state().Bank; got != bank {
			t.Fatalf("BANK_UP x6 from %d = %d", bank, got)
		}
	}
	h := newHarness(t)
	h.press(keypad.KeyBankDown)
	if got := h.state().Bank; got != 5 {
		t.Fatalf("BANK_DOWN from 0 = %d, want 5", got)
	}
}

func TestSlotWrap(t *testing.T) {
	for index := uint8(0); index < SlotsPerBank; index++ {
		h := newHarness(t)
		h.c.state.Index = index
		for i := 0; i < SlotsPerBank; i++ {
			h.press(keypad.KeySlotUp)
		}
		if got := h.state().Index; got != index {
			t.Fatalf("SLOT_UP x16 from %d = %d", index, got)
		}
	}
	h := newHarness(t)
	h.press(keypad.KeySlotDown)
	if got := h.state().Index; got != 15 {
		t.Fatalf("SLOT_DOWN from 0 = %d, want 15", got)
	}
}

func TestHeldKeyActsOnce(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 10; i++ {
		h.scanner.keys = append(h.scanner.keys, keypad.KeySlotUp)
	}
	for i := 0; i < 10; i++ {
		h.step()
	}
	if got := h.state().Index; got != 1 {
		t.Fatalf("held SLOT_UP index = %d, want 1", got)
	}

	// Release and press again.
	h.step()
	h.press(keypad.KeySlotUp)
	if got := h.state().Index; got != 2 {
		t.Fatalf("second SLOT_UP index = %d, want 2", got)
	}
}

func TestKeyChangeWithoutReleaseActs(t *testing.T) {
	h := newHarness(t)
	h.scanner.keys = []keypad.KeyCode{keypad.KeySlotUp, keypad.KeySlotUp, keypad.KeyBankUp}
	h.step()
	h.step()
	h.step()
	if s := h.state(); s.Index != 1 || s.Bank != 1 {
		t.Fatalf("bank/index = %d/%d, want 1/1", s.Bank, s.Index)
	}
}

func TestUnknownScanIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.scanner.keys = []keypad.KeyCode{keypad.KeyUnknown, keypad.KeySlotUp}
	h.step()
	h.step()
	if got := h.state().Index; got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}
}

func TestDigitEntryRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.press(keypad.KeyBankUp, keypad.KeyBankUp, keypad.KeySlotUp, keypad.KeySlotUp, keypad.KeySlotUp)
	h.preset()
	slot := h.state().Slot()
	before := append([]byte(nil), h.ee.data...)

	h.press(digitKeys("12345")...)
	if s := h.state(); s.Mode != ModeDigitEntry2 || s.Edit != (freq.Frequency{0x12, 0x34, 0x50}) {
		t.Fatalf("after 5 digits mode=%v edit=%v", s.Mode, s.Edit)
	}
	h.press(keypad.Key6)
	if got := h.state().Edit; got != (freq.Frequency{0x12, 0x34, 0x56}) {
		t.Fatalf("Edit = % x, want 12 34 56", got)
	}

	// The last digit can be corrected on its own.
	h.press(keypad.Key7, keypad.Key6)
	if got := h.state().Edit; got != (freq.Frequency{0x12, 0x34, 0x56}) {
		t.Fatalf("Edit after correction = % x", got)
	}

	h.press(keypad.KeyEnter)
	if s := h.state(); s.Mode != ModeIdle {
		t.Fatalf("mode after ENTER = %v", s.Mode)
	}
	if got := h.store.Get(slot); got != (freq.Frequency{0x12, 0x34, 0x56}) {
		t.Fatalf("table[%v] = %v", slot, got)
	}
	if !bytes.Equal(h.ee.data, before) {
		t.Fatal("EEPROM changed before MEMORY_WRITE")
	}
	if h.lines.driven != (freq.Frequency{0x12, 0x34, 0x56}) {
		t.Fatalf("driven = %v after commit", h.lines.driven)
	}

	h.press(keypad.KeyMemory)
	off := slot.Offset()
	if got := h.ee.data[off : off+3]; !bytes.Equal(got, []byte{0x12, 0x34, 0x56}) {
		t.Fatalf("EEPROM[%d:] = % x", off, got)
	}
}

func TestEarlyPhaseSwitch(t *testing.T) {
	h := newHarness(t)
	h.preset()
	h.press(keypad.Key4, keypad.Key2, keypad.KeyBankDown)
	s := h.state()
	if s.Mode != ModeDigitEntry2 || s.Bank != 0 {
		t.Fatalf("mode=%v bank=%d, want entry2 bank 0", s.Mode, s.Bank)
	}
	h.press(keypad.Key9)
	if got := h.state().Edit; got != (freq.Frequency{0x00, 0x04, 0x29}) {
		t.Fatalf("Edit = % x, want 00 04 29", got)
	}

	// In the second phase BANK_DOWN navigates again.
	h.press(keypad.KeyBankDown)
	if s := h.state(); s.Bank != 5 || s.Mode != ModeDigitEntry2 {
		t.Fatalf("bank=%d mode=%v", s.Bank, s.Mode)
	}
}

func TestCancelEntry(t *testing.T) {
	for _, digits := range []string{"12", "123456"} {
		h := newHarness(t)
		h.store.Set(0, freq.Frequency{0x01, 0x02, 0x03})
		h.preset()
		h.press(digitKeys(digits)...)
		if !h.state().Editing() {
			t.Fatalf("%s: not editing", digits)
		}
		before := append([]byte(nil), h.ee.data...)
		h.press(keypad.KeyBankUp)
		s := h.state()
		if s.Editing() || s.Bank != 0 {
			t.Fatalf("%s: after cancel mode=%v bank=%d", digits, s.Mode, s.Bank)
		}
		if got := h.store.Get(0); got != (freq.Frequency{0x01, 0x02, 0x03}) {
			t.Fatalf("%s: table = %v", digits, got)
		}
		if !bytes.Equal(h.ee.data, before) {
			t.Fatalf("%s: EEPROM changed", digits)
		}
		if s.Freq != (freq.Frequency{0x01, 0x02, 0x03}) {
			t.Fatalf("%s: shown %v after cancel", digits, s.Freq)
		}
	}
}

func TestSlotKeysWhileEditing(t *testing.T) {
	h := newHarness(t)
	h.preset()
	h.press(keypad.Key1, keypad.KeySlotUp, keypad.KeySlotUp, keypad.KeySlotDown)
	s := h.state()
	if !s.Editing() || s.Index != 1 {
		t.Fatalf("mode=%v index=%d", s.Mode, s.Index)
	}
	h.press(keypad.KeyEnter)
	if got := h.store.Get(memory.SlotOf(0, 1)); got != (freq.Frequency{0x00, 0x00, 0x10}) {
		t.Fatalf("committed %v to A1", got)
	}
}

func TestMemoryWriteLiveAndReload(t *testing.T) {
	h := newHarness(t)
	h.lines.live = freq.Frequency{0x29, 0x99, 0x87}
	h.press(keypad.KeySlotUp, keypad.KeyMemory)
	slot := memory.SlotOf(0, 1)
	if got := h.store.Get(slot); got != h.lines.live {
		t.Fatalf("table = %v, want %v", got, h.lines.live)
	}
	off := slot.Offset()
	if got := h.ee.data[off : off+3]; !bytes.Equal(got, h.lines.live[:]) {
		t.Fatalf("EEPROM = % x", got)
	}

	// Scribble on the working table, then ENTER reloads the stored bytes.
	h.store.Set(slot, freq.Frequency{})
	h.preset()
	h.press(keypad.KeyEnter)
	if got := h.store.Get(slot); got != h.lines.live {
		t.Fatalf("reloaded %v, want %v", got, h.lines.live)
	}
}

func TestMemoryWriteIgnoredWhileEditing(t *testing.T) {
	h := newHarness(t)
	h.preset()
	h.press(keypad.Key5, keypad.KeyMemory)
	if h.state().Flash != 0 {
		t.Fatal("flash started while editing")
	}
	if !bytes.Equal(h.ee.data, make([]byte, memory.ImageBytes)) {
		t.Fatal("EEPROM written while editing")
	}
}

func TestFlashCountdown(t *testing.T) {
	h := newHarness(t)
	h.scanner.keys = []keypad.KeyCode{keypad.KeyMemory}
	h.step()
	if got := h.state().Flash; got != display.FlashFrames {
		t.Fatalf("Flash = %d, want %d", got, display.FlashFrames)
	}

	var intensities []uint8
	for frame := 1; frame <= 8; frame++ {
		h.bus.writes = nil
		h.step()
		if got := h.state().Flash; int(got) != 8-frame {
			t.Fatalf("frame %d: Flash = %d, want %d", frame, got, 8-frame)
		}
		if w := h.bus.writes[0]; w.Reg == hal.RegIntensity {
			intensities = append(intensities, w.Val)
		}
	}
	want := []uint8{0x0F, 0x08, 0x08, 0x08, 0x08, 0x08, 0x08, 0x00}
	if !bytes.Equal(intensities, want) {
		t.Fatalf("intensities = % x, want % x", intensities, want)
	}

	h.bus.writes = nil
	h.step()
	for _, w := range h.bus.writes {
		if w.Reg == hal.RegIntensity {
			t.Fatalf("intensity written after pulse: %v", w)
		}
	}
}

func TestPresetToggle(t *testing.T) {
	h := newHarness(t)
	h.store.Set(memory.SlotOf(0, 0), freq.Frequency{0x05, 0x55, 0x55})
	h.step()
	if got := h.state().Freq; got != h.lines.live {
		t.Fatalf("live Freq = %v", got)
	}
	h.press(keypad.KeyPreset)
	if !h.lines.output || h.lines.driven != (freq.Frequency{0x05, 0x55, 0x55}) {
		t.Fatalf("preset: output=%v driven=%v", h.lines.output, h.lines.driven)
	}

	// PRESET is ignored mid-entry.
	h.press(keypad.Key1, keypad.KeyPreset)
	if !h.state().Preset {
		t.Fatal("PRESET left preset mode while editing")
	}
	drives := h.lines.drives
	h.step()
	if h.lines.drives != drives {
		t.Fatal("ports driven while editing")
	}

	h.press(keypad.KeyBankUp, keypad.KeyPreset)
	if h.state().Preset || h.lines.output {
		t.Fatal("PRESET did not return to live")
	}
	if got := strings.Join(h.lines.events, ","); got != "preset,live" {
		t.Fatalf("events = %s", got)
	}
}

func TestDigitsIgnoredInLive(t *testing.T) {
	h := newHarness(t)
	h.press(keypad.Key1, keypad.KeyEnter)
	if s := h.state(); s.Editing() || s.Preset {
		t.Fatalf("state after digits in live: %v", s)
	}
}

func TestBlinkWhileEditing(t *testing.T) {
	h := newHarness(t)
	h.preset()
	h.press(keypad.Key8)
	blank, lit := 0, 0
	for i := 0; i < 2*display.BlinkMask; i++ {
		h.bus.writes = nil
		h.step()
		for _, w := range h.bus.writes {
			if w.Reg == 4 {
				if w.Val == 0 {
					blank++
				} else {
					lit++
				}
			}
		}
	}
	if blank != display.BlinkMask || lit != display.BlinkMask {
		t.Fatalf("blank=%d lit=%d", blank, lit)
	}
}

func TestStorageErrorIsLogged(t *testing.T) {
	h := newHarness(t)
	h.ee.fail = errors.New("bus stuck")
	h.press(keypad.KeyMemory)
	if h.state().Flash != 0 {
		t.Fatal("flash started after failed write")
	}
	found := false
	for _, l := range h.log.lines {
		if strings.Contains(l, "bus stuck") {
			found = true
		}
	}
	if !found {
		t.Fatalf("log = %q, want storage error", h.log.lines)
	}
}

func TestLiveReadErrorKeepsRunning(t *testing.T) {
	h := newHarness(t)
	h.step()
	h.lines.readErr = errors.New("port fault")
	h.step()
	if got := h.state().Freq; got != (freq.Frequency{0x10, 0x00, 0x00}) {
		t.Fatalf("Freq = %v, want last good value", got)
	}
	if len(h.log.lines) == 0 {
		t.Fatal("read error not logged")
	}
}

func TestStepWithoutComponents(t *testing.T) {
	if err := New(nil, nil, nil, nil, nil).Step(); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("Step() = %v, want ErrNotImplemented", err)
	}
}

func TestShiftIn(t *testing.T) {
	got := shiftIn(freq.Frequency{0x01, 0x23, 0x40}, 5)
	if want := (freq.Frequency{0x12, 0x34, 0x50}); got != want {
		t.Fatalf("shiftIn() = % x, want % x", got, want)
	}
}
