package app

import (
	"fmt"
	"time"

	"freqpanel/hal"
	"freqpanel/internal/buildinfo"
	"freqpanel/panel/control"
	"freqpanel/panel/display"
	"freqpanel/panel/freqio"
	"freqpanel/panel/keypad"
	"freqpanel/panel/memory"
)

// FramePeriod is the delay between frames on the device.
const FramePeriod = 50 * time.Millisecond

type Config struct {
	// FramePeriod is the fixed delay of the device loop. Host runners use
	// their own tick rate.
	FramePeriod time.Duration
	// Settle overrides the key matrix settle time when non-zero.
	Settle time.Duration
	// LampTest is how long Run lights every segment before starting.
	LampTest time.Duration
}

func DefaultConfig() Config {
	return Config{
		FramePeriod: FramePeriod,
		Settle:      keypad.DefaultSettle,
		LampTest:    500 * time.Millisecond,
	}
}

// New builds the panel on h with the default config.
func New(h hal.HAL) (func() error, error) {
	return NewWithConfig(h, DefaultConfig())
}

// NewWithConfig initializes the display, loads the preset memory, configures
// the keypad and puts the frequency ports in live mode. The returned function
// runs one frame.
func NewWithConfig(h hal.HAL, cfg Config) (func() error, error) {
	p, err := newPanel(h, cfg)
	if err != nil {
		return nil, err
	}
	return p.step, nil
}

// Run starts the panel and loops forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, DefaultConfig())
}

func RunWithConfig(h hal.HAL, cfg Config) {
	if h == nil {
		select {}
	}
	if cfg.LampTest > 0 {
		if err := lampTest(h.Display(), cfg.LampTest, time.Sleep); err != nil {
			logLine(h.Logger(), "app: lamp test: "+err.Error())
		}
	}
	step, err := NewWithConfig(h, cfg)
	if err != nil {
		logLine(h.Logger(), "app: "+err.Error())
		select {}
	}
	period := cfg.FramePeriod
	if period <= 0 {
		period = FramePeriod
	}
	for {
		_ = step()
		time.Sleep(period)
	}
}

type panel struct {
	h   hal.HAL
	log hal.Logger
	ctl *control.Controller
}

func newPanel(h hal.HAL, cfg Config) (*panel, error) {
	if h == nil {
		return nil, fmt.Errorf("app: %w", hal.ErrNotImplemented)
	}
	log := h.Logger()

	disp := display.New(h.Display())
	if err := disp.Init(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	store := memory.New(h.EEPROM(), log)
	if err := store.LoadAll(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	km := h.Keypad()
	if km == nil {
		return nil, fmt.Errorf("app: keypad: %w", hal.ErrNotImplemented)
	}
	scanner, err := keypad.NewScanner(km)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if cfg.Settle > 0 {
		scanner.Settle = cfg.Settle
	}
	if err := scanner.Configure(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	lines, err := freqio.New(h.Frequency())
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if err := lines.EnterLive(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	logLine(log, "app: "+buildinfo.Banner()+" ready")
	return &panel{
		h:   h,
		log: log,
		ctl: control.New(store, disp, scanner, lines, log),
	}, nil
}

func (p *panel) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.recovered(r)
			err = nil
		}
	}()
	return p.ctl.Step()
}

func logLine(l hal.Logger, s string) {
	if l != nil {
		l.WriteLineString(s)
	}
}
