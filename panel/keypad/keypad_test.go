package keypad

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"freqpanel/hal"
)

type fakeMatrix struct {
	strobes []*hal.VirtualPin
	senses  []hal.GPIOPin
	down    map[[2]int]bool
}

func newFakeMatrix() *fakeMatrix {
	m := &fakeMatrix{down: make(map[[2]int]bool)}
	for i := 0; i < Strobes; i++ {
		m.strobes = append(m.strobes, hal.NewVirtualPin(fmt.Sprintf("S%d", i), hal.GPIOCapOutput))
	}
	for i := 0; i < Senses; i++ {
		m.senses = append(m.senses, &fakeSense{m: m, idx: i})
	}
	return m
}

func (m *fakeMatrix) Strobes() []hal.GPIOPin {
	out := make([]hal.GPIOPin, len(m.strobes))
	for i, p := range m.strobes {
		out[i] = p
	}
	return out
}

func (m *fakeMatrix) Senses() []hal.GPIOPin { return m.senses }

type fakeSense struct {
	m   *fakeMatrix
	idx int
}

func (s *fakeSense) Name() string                               { return fmt.Sprintf("K%d", s.idx) }
func (s *fakeSense) Caps() hal.GPIOCaps                         { return hal.GPIOCapInput | hal.GPIOCapPullUp }
func (s *fakeSense) Configure(hal.GPIOMode, hal.GPIOPull) error { return nil }
func (s *fakeSense) Write(bool) error                           { return errors.New("input only") }

func (s *fakeSense) Read() (bool, error) {
	for i, strobe := range s.m.strobes {
		level, _ := strobe.Read()
		if !level && s.m.down[[2]int{i, s.idx}] {
			return false, nil
		}
	}
	return true, nil
}

func newTestScanner(t *testing.T, m *fakeMatrix) *Scanner {
	t.Helper()
	s, err := NewScanner(m)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	s.Sleep = func(time.Duration) {}
	if err := s.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return s
}

func TestScanDecodesEveryKey(t *testing.T) {
	want := map[[2]int]KeyCode{
		{0, 0}: Key1, {0, 1}: Key2, {0, 2}: Key3, {0, 3}: Key0, {0, 4}: KeyEnter, {0, 5}: KeyPreset,
		{1, 0}: Key4, {1, 1}: Key5, {1, 2}: Key6, {1, 3}: KeyBankDown, {1, 4}: KeySlotDown,
		{2, 0}: Key7, {2, 1}: Key8, {2, 2}: Key9, {2, 3}: KeyBankUp, {2, 4}: KeySlotUp, {2, 5}: KeyMemory,
	}
	m := newFakeMatrix()
	s := newTestScanner(t, m)

	for pos, key := range want {
		m.down = map[[2]int]bool{pos: true}
		if got := s.Scan(); got != key {
			t.Fatalf("Scan() with %v down = %v, want %v", pos, got, key)
		}
	}
}

func TestScanNoKey(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	if got := s.Scan(); got != KeyNone {
		t.Fatalf("Scan() = %v, want NONE", got)
	}
}

func TestScanUnwiredPosition(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	m.down[[2]int{1, 5}] = true
	if got := s.Scan(); got != KeyUnknown {
		t.Fatalf("Scan() = %v, want UNKNOWN", got)
	}
}

func TestScanTwoKeysSameStrobe(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	m.down[[2]int{0, 0}] = true
	m.down[[2]int{0, 1}] = true
	if got := s.Scan(); got != KeyUnknown {
		t.Fatalf("Scan() = %v, want UNKNOWN", got)
	}
}

func TestScanLowestStrobeWins(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	m.down[[2]int{2, 5}] = true // MEMORY_WRITE
	m.down[[2]int{1, 0}] = true // 4
	if got := s.Scan(); got != Key4 {
		t.Fatalf("Scan() = %v, want 4", got)
	}
}

func TestScanLeavesStrobesIdle(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	m.down[[2]int{0, 4}] = true
	_ = s.Scan()
	for i, p := range m.strobes {
		level, err := p.Read()
		if err != nil {
			t.Fatalf("strobe %d Read: %v", i, err)
		}
		if !level {
			t.Fatalf("strobe %d low after Scan", i)
		}
	}
}

func TestScanSettles(t *testing.T) {
	m := newFakeMatrix()
	s := newTestScanner(t, m)
	var waits []time.Duration
	s.Sleep = func(d time.Duration) { waits = append(waits, d) }

	_ = s.Scan()
	if len(waits) != 2*Strobes {
		t.Fatalf("settle waits = %d, want %d", len(waits), 2*Strobes)
	}
	for _, d := range waits {
		if d != DefaultSettle {
			t.Fatalf("settle = %v, want %v", d, DefaultSettle)
		}
	}
}

func TestNewScannerRejectsWrongGeometry(t *testing.T) {
	m := newFakeMatrix()
	m.senses = m.senses[:4]
	if _, err := NewScanner(m); !errors.Is(err, hal.ErrOutOfRange) {
		t.Fatalf("NewScanner err = %v, want ErrOutOfRange", err)
	}
}

func TestKeyCodeString(t *testing.T) {
	if got := Key7.String(); got != "7" {
		t.Fatalf("Key7.String() = %q", got)
	}
	if got := KeyMemory.String(); got != "MEMORY_WRITE" {
		t.Fatalf("KeyMemory.String() = %q", got)
	}
	if KeyNone.Pressed() || KeyUnknown.Pressed() || !KeyEnter.Pressed() {
		t.Fatal("Pressed() mismatch")
	}
}
