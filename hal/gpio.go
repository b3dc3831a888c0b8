package hal

import (
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeInput GPIOMode = iota
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
)

// GPIOPin is a single digital IO pin.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error
}

func checkConfig(name string, caps GPIOCaps, mode GPIOMode, pull GPIOPull) error {
	switch mode {
	case GPIOModeInput:
		if caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", name)
		}
	case GPIOModeOutput:
		if caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", name)
		}
	case GPIOPullDown:
		if caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", name)
	}
	return nil
}

// VirtualPin is an in-memory pin. An input reads the externally driven level,
// or the pull level when nothing drives it; an output reads back its own level.
type VirtualPin struct {
	mu     sync.Mutex
	name   string
	caps   GPIOCaps
	mode   GPIOMode
	pull   GPIOPull
	out    bool
	ext    bool
	driven bool
	onEdge func(level bool)
}

// NewVirtualPin returns an unconfigured input pin.
func NewVirtualPin(name string, caps GPIOCaps) *VirtualPin {
	return &VirtualPin{
		name: name,
		caps: caps,
		mode: GPIOModeInput,
		pull: GPIOPullNone,
	}
}

func (p *VirtualPin) Name() string   { return p.name }
func (p *VirtualPin) Caps() GPIOCaps { return p.caps }

func (p *VirtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	if err := checkConfig(p.name, p.caps, mode, pull); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.pull = pull
	return nil
}

func (p *VirtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == GPIOModeOutput {
		return p.out, nil
	}
	if p.driven {
		return p.ext, nil
	}
	return p.pull == GPIOPullUp, nil
}

func (p *VirtualPin) Write(level bool) error {
	p.mu.Lock()
	if p.mode != GPIOModeOutput {
		p.mu.Unlock()
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	prev := p.out
	p.out = level
	fn := p.onEdge
	p.mu.Unlock()

	if fn != nil && prev != level {
		fn(level)
	}
	return nil
}

// Mode returns the configured direction.
func (p *VirtualPin) Mode() GPIOMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Drive sets the level an external source applies to the pin.
func (p *VirtualPin) Drive(level bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ext = level
	p.driven = true
}

// Release stops driving the pin externally.
func (p *VirtualPin) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.driven = false
}

// OnEdge registers fn to run after every output level change.
func (p *VirtualPin) OnEdge(fn func(level bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEdge = fn
}

type pinLED struct {
	pin GPIOPin
}

// LEDFromPin adapts an output pin to the LED interface.
func LEDFromPin(pin GPIOPin) LED {
	if pin == nil {
		return nil
	}
	return pinLED{pin: pin}
}

func (l pinLED) High() { _ = l.pin.Write(true) }
func (l pinLED) Low()  { _ = l.pin.Write(false) }
