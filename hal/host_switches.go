//go:build !tinygo

package hal

import (
	"fmt"
	"sync"
)

// selectorSwitches emulates the external BCD selector switches wired to the
// frequency ports. Each port bit is a VirtualPin the switches drive; when the
// panel turns a port into an output the pin reads back the panel's level.
type selectorSwitches struct {
	mu    sync.Mutex
	value [3]byte
	pins  [3][8]*VirtualPin
	ports [3]*Port
}

var portNames = [3]string{"MHZ", "KHZ100", "KHZ1"}

func newSelectorSwitches(initial [3]byte) *selectorSwitches {
	s := &selectorSwitches{}
	for p := 0; p < 3; p++ {
		bits := 8
		if p == 0 {
			// The 10 MHz digit only has two lines wired.
			bits = 6
		}
		var gp []GPIOPin
		for b := 0; b < bits; b++ {
			pin := NewVirtualPin(fmt.Sprintf("%s.%d", portNames[p], b), GPIOCapInput|GPIOCapOutput|GPIOCapPullUp)
			s.pins[p][b] = pin
			gp = append(gp, pin)
		}
		s.ports[p] = NewPort(portNames[p], gp...)
	}
	s.set(initial)
	return s
}

// set moves the switches to v.
func (s *selectorSwitches) set(v [3]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	for p := 0; p < 3; p++ {
		for b, pin := range s.pins[p] {
			if pin == nil {
				continue
			}
			pin.Drive(v[p]&(1<<b) != 0)
		}
	}
}

func (s *selectorSwitches) get() [3]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// step turns switch digit i (0 = most significant) one position up.
// The 10 MHz switch has four positions, the others ten.
func (s *selectorSwitches) step(i int) {
	if i < 0 || i > 5 {
		return
	}
	v := s.get()
	b := i / 2
	shift := uint(4)
	if i%2 == 1 {
		shift = 0
	}
	d := (v[b] >> shift) & 0x0F
	limit := uint8(10)
	if i == 0 {
		limit = 4
	}
	d = (d + 1) % limit
	v[b] = v[b]&^(0x0F<<shift) | d<<shift
	s.set(v)
}
