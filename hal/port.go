package hal

import "fmt"

// Port groups up to eight pins into one parallel byte lane. pins[0] is bit 0.
// A nil entry is an unwired bit: it reads as 0 and ignores writes.
type Port struct {
	name string
	pins [8]GPIOPin
}

// NewPort returns a port over pins, least significant bit first.
func NewPort(name string, pins ...GPIOPin) *Port {
	p := &Port{name: name}
	copy(p.pins[:], pins)
	return p
}

func (p *Port) Name() string { return p.name }

// Configure sets every wired pin to the given direction and pull.
func (p *Port) Configure(mode GPIOMode, pull GPIOPull) error {
	for _, pin := range p.pins {
		if pin == nil {
			continue
		}
		if err := pin.Configure(mode, pull); err != nil {
			return fmt.Errorf("port %s: %w", p.name, err)
		}
	}
	return nil
}

// Read samples all wired pins.
func (p *Port) Read() (uint8, error) {
	var v uint8
	for i, pin := range p.pins {
		if pin == nil {
			continue
		}
		level, err := pin.Read()
		if err != nil {
			return 0, fmt.Errorf("port %s: %w", p.name, err)
		}
		if level {
			v |= 1 << i
		}
	}
	return v, nil
}

// Write drives all wired pins.
func (p *Port) Write(v uint8) error {
	for i, pin := range p.pins {
		if pin == nil {
			continue
		}
		if err := pin.Write(v&(1<<i) != 0); err != nil {
			return fmt.Errorf("port %s: %w", p.name, err)
		}
	}
	return nil
}
