//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PeriphPins names the GPIO lines of a Linux board, as known to gpioreg.
type PeriphPins struct {
	Load    string
	Strobes [3]string
	Senses  [6]string
	// Ports lists each frequency port least significant bit first. Empty
	// names are unwired bits.
	Ports  [3][8]string
	Live   string
	Preset string
}

// DefaultPeriphPins is a Raspberry Pi 40-pin header wiring that keeps SPI0
// free for the display. The header has no room for the two kHz ports; boards
// with more lines set Pins to wire them.
var DefaultPeriphPins = PeriphPins{
	Load:    "GPIO25",
	Strobes: [3]string{"GPIO5", "GPIO6", "GPIO13"},
	Senses:  [6]string{"GPIO19", "GPIO26", "GPIO12", "GPIO16", "GPIO20", "GPIO21"},
	Ports: [3][8]string{
		{"GPIO2", "GPIO3", "GPIO4", "GPIO17", "GPIO27", "GPIO22"},
	},
	Live:   "GPIO23",
	Preset: "GPIO24",
}

// PeriphConfig controls the Linux GPIO runner.
type PeriphConfig struct {
	Hz    int
	Ticks uint64
	// SPI is the spireg port name; empty selects the first port.
	SPI        string
	Pins       PeriphPins
	EEPROMPath string
	LogLevel   string
}

type periphHAL struct {
	logger  *hostLogger
	port    spi.PortCloser
	disp    *MAX7219
	strobes []GPIOPin
	senses  []GPIOPin
	lines   FrequencyLines
	eeprom  *EEPROMFile
}

func newPeriphHAL(cfg PeriphConfig) (*periphHAL, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph: init: %w", err)
	}
	pins := cfg.Pins
	if pins.Load == "" {
		pins = DefaultPeriphPins
	}

	h := &periphHAL{logger: newHostLogger(os.Stderr, cfg.LogLevel)}

	lookup := func(name string) (GPIOPin, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("periph: gpio %q: %w", name, ErrNotImplemented)
		}
		return newPeriphPin(p), nil
	}

	load, err := lookup(pins.Load)
	if err != nil {
		return nil, err
	}
	if err := load.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		return nil, err
	}
	for _, name := range pins.Strobes {
		p, err := lookup(name)
		if err != nil {
			return nil, err
		}
		h.strobes = append(h.strobes, p)
	}
	for _, name := range pins.Senses {
		p, err := lookup(name)
		if err != nil {
			return nil, err
		}
		h.senses = append(h.senses, p)
	}
	for i, names := range pins.Ports {
		var gp []GPIOPin
		for _, name := range names {
			if name == "" {
				gp = append(gp, nil)
				continue
			}
			p, err := lookup(name)
			if err != nil {
				return nil, err
			}
			gp = append(gp, p)
		}
		h.lines.Ports[i] = NewPort(portNames[i], gp...)
	}
	for _, led := range []struct {
		name string
		dst  *LED
	}{{pins.Live, &h.lines.Live}, {pins.Preset, &h.lines.Preset}} {
		p, err := lookup(led.name)
		if err != nil {
			return nil, err
		}
		if err := p.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
			return nil, err
		}
		*led.dst = LEDFromPin(p)
	}

	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, fmt.Errorf("periph: spi %q: %w", cfg.SPI, err)
	}
	c, err := port.Connect(2*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("periph: spi connect: %w", err)
	}
	h.port = port
	h.disp = NewMAX7219(spiConn{c}, load)

	h.eeprom, err = OpenEEPROMFile(EEPROMPath(cfg.EEPROMPath), 0)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return h, nil
}

func (h *periphHAL) Logger() Logger            { return h.logger }
func (h *periphHAL) Display() DisplayBus       { return h.disp }
func (h *periphHAL) Keypad() KeyMatrix         { return h }
func (h *periphHAL) Frequency() FrequencyLines { return h.lines }
func (h *periphHAL) EEPROM() EEPROM            { return h.eeprom }
func (h *periphHAL) Strobes() []GPIOPin        { return h.strobes }
func (h *periphHAL) Senses() []GPIOPin         { return h.senses }

func (h *periphHAL) Close() error {
	return errors.Join(h.eeprom.Close(), h.port.Close())
}

// RunPeriph runs the panel on Linux GPIO and SPI lines.
func RunPeriph(ctx context.Context, newApp func(HAL) (func() error, error), cfg PeriphConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 20
	}
	h, err := newPeriphHAL(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	step, err := newApp(h)
	if err != nil {
		return err
	}

	t := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer t.Stop()
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-t.C:
			if err := step(); err != nil {
				return err
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

// periphPin adapts a periph.io pin to GPIOPin.
type periphPin struct {
	mu    sync.Mutex
	p     gpio.PinIO
	mode  GPIOMode
	level gpio.Level
}

func newPeriphPin(p gpio.PinIO) *periphPin {
	return &periphPin{p: p, level: gpio.High}
}

func (p *periphPin) Name() string { return p.p.Name() }

func (p *periphPin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown
}

func (p *periphPin) Configure(mode GPIOMode, pull GPIOPull) error {
	if err := checkConfig(p.Name(), p.Caps(), mode, pull); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if mode == GPIOModeOutput {
		err = p.p.Out(p.level)
	} else {
		err = p.p.In(periphPull(pull), gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("gpio: pin %s: %w", p.Name(), err)
	}
	p.mode = mode
	return nil
}

func (p *periphPin) Read() (bool, error) {
	return p.p.Read() == gpio.High, nil
}

func (p *periphPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.Name())
	}
	p.level = gpio.Level(level)
	if err := p.p.Out(p.level); err != nil {
		return fmt.Errorf("gpio: pin %s: %w", p.Name(), err)
	}
	return nil
}

func periphPull(pull GPIOPull) gpio.Pull {
	switch pull {
	case GPIOPullUp:
		return gpio.PullUp
	case GPIOPullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

// spiConn adapts a periph.io SPI connection to drivers.SPI.
type spiConn struct {
	c spi.Conn
}

func (s spiConn) Tx(w, r []byte) error {
	if r != nil && len(r) != len(w) {
		r2 := make([]byte, len(w))
		if err := s.c.Tx(w, r2); err != nil {
			return err
		}
		copy(r, r2)
		return nil
	}
	return s.c.Tx(w, r)
}

func (s spiConn) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.c.Tx([]byte{b}, r[:])
	return r[0], err
}
