//go:build !tinygo

package hal

import (
	"fmt"
	"sync"
)

const (
	matrixStrobes = 3
	matrixSenses  = 6
)

// matrixPos is one switch of the key matrix: a strobe line and a sense line.
type matrixPos struct {
	strobe uint8
	sense  uint8
}

// Keypad wiring as printed on the front panel overlay.
var (
	pos1      = matrixPos{0, 0}
	pos2      = matrixPos{0, 1}
	pos3      = matrixPos{0, 2}
	pos0      = matrixPos{0, 3}
	posEnter  = matrixPos{0, 4}
	posPreset = matrixPos{0, 5}
	pos4      = matrixPos{1, 0}
	pos5      = matrixPos{1, 1}
	pos6      = matrixPos{1, 2}
	posBankDn = matrixPos{1, 3}
	posSlotDn = matrixPos{1, 4}
	pos7      = matrixPos{2, 0}
	pos8      = matrixPos{2, 1}
	pos9      = matrixPos{2, 2}
	posBankUp = matrixPos{2, 3}
	posSlotUp = matrixPos{2, 4}
	posMemory = matrixPos{2, 5}
)

var digitPos = [10]matrixPos{pos0, pos1, pos2, pos3, pos4, pos5, pos6, pos7, pos8, pos9}

// Frames a queued tap stays closed, then open before the next tap.
const (
	tapHoldFrames = 2
	tapGapFrames  = 1
)

// hostMatrix emulates the switch matrix. Keys are either held (window
// keyboard state) or tapped from a queue (terminal input), one tap at a time.
type hostMatrix struct {
	mu      sync.Mutex
	strobes []*VirtualPin
	senses  []GPIOPin
	held    map[matrixPos]bool

	queue   []matrixPos
	tap     matrixPos
	tapping bool
	frames  int
}

func newHostMatrix() *hostMatrix {
	m := &hostMatrix{held: make(map[matrixPos]bool)}
	for i := 0; i < matrixStrobes; i++ {
		m.strobes = append(m.strobes, NewVirtualPin(fmt.Sprintf("STROBE%d", i), GPIOCapInput|GPIOCapOutput))
	}
	for i := 0; i < matrixSenses; i++ {
		m.senses = append(m.senses, &senseLine{m: m, idx: uint8(i)})
	}
	return m
}

func (m *hostMatrix) Strobes() []GPIOPin {
	pins := make([]GPIOPin, len(m.strobes))
	for i, p := range m.strobes {
		pins[i] = p
	}
	return pins
}

func (m *hostMatrix) Senses() []GPIOPin { return m.senses }

// setHeld records the state of a key that stays closed while held.
func (m *hostMatrix) setHeld(pos matrixPos, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if down {
		m.held[pos] = true
	} else {
		delete(m.held, pos)
	}
}

// enqueue schedules a short press.
func (m *hostMatrix) enqueue(pos matrixPos) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, pos)
}

// tick advances the tap queue by one frame.
func (m *hostMatrix) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames > 0 {
		m.frames--
		return
	}
	if m.tapping {
		m.tapping = false
		m.frames = tapGapFrames - 1
		return
	}
	if len(m.queue) == 0 {
		return
	}
	m.tap = m.queue[0]
	m.queue = m.queue[1:]
	m.tapping = true
	m.frames = tapHoldFrames - 1
}

// pending reports whether taps are still queued or in progress.
func (m *hostMatrix) pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tapping || len(m.queue) > 0 || m.frames > 0
}

func (m *hostMatrix) closed(pos matrixPos) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tapping && m.tap == pos {
		return true
	}
	return m.held[pos]
}

// senseLine reads low when a closed switch connects it to a strobe that is
// driven low. Otherwise the pull-up holds it high.
type senseLine struct {
	m   *hostMatrix
	idx uint8

	mu   sync.Mutex
	pull GPIOPull
}

func (s *senseLine) Name() string   { return fmt.Sprintf("SENSE%d", s.idx) }
func (s *senseLine) Caps() GPIOCaps { return GPIOCapInput | GPIOCapPullUp }

func (s *senseLine) Configure(mode GPIOMode, pull GPIOPull) error {
	if err := checkConfig(s.Name(), s.Caps(), mode, pull); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pull = pull
	return nil
}

func (s *senseLine) Read() (bool, error) {
	s.mu.Lock()
	pulledUp := s.pull == GPIOPullUp
	s.mu.Unlock()

	for i, strobe := range s.m.strobes {
		if strobe.Mode() != GPIOModeOutput {
			continue
		}
		level, _ := strobe.Read()
		if level {
			continue
		}
		if s.m.closed(matrixPos{strobe: uint8(i), sense: s.idx}) {
			return false, nil
		}
	}
	return pulledUp, nil
}

func (s *senseLine) Write(level bool) error {
	_ = level
	return fmt.Errorf("gpio: pin %s: output unsupported", s.Name())
}
