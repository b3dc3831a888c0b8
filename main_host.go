//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"freqpanel/app"
	"freqpanel/hal"
	"freqpanel/panel/freq"
)

func main() {
	var cfg hal.HeadlessConfig
	var backend, live, script string
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 20, "Frame rate.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N frames in headless mode (0 = run forever).")
	flag.StringVar(&cfg.Host.EEPROMPath, "eeprom", "", "EEPROM image (default $FREQPANEL_EEPROM_PATH or panel.eeprom).")
	flag.StringVar(&live, "live", "00.000.0", "Initial selector switch setting.")
	flag.StringVar(&backend, "backend", "host", "Hardware backend: host or periph.")
	flag.StringVar(&cfg.Host.LogLevel, "log-level", "info", "Log level: debug, info, warn, error.")
	flag.StringVar(&script, "script", "", "Read headless key strokes from this file and exit when done.")
	flag.Parse()

	f, err := freq.Parse(live)
	if err != nil {
		fail(fmt.Errorf("-live: %w", err))
	}
	cfg.Host.Live = [3]byte(f)

	newApp := func(h hal.HAL) (func() error, error) {
		return app.New(h)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch backend {
	case "host":
	case "periph":
		if err := hal.RunPeriph(ctx, newApp, hal.PeriphConfig{
			Hz:         cfg.Hz,
			Ticks:      cfg.Ticks,
			EEPROMPath: cfg.Host.EEPROMPath,
			LogLevel:   cfg.Host.LogLevel,
		}); err != nil {
			fail(err)
		}
		return
	default:
		fail(fmt.Errorf("unknown backend %q", backend))
	}

	if script != "" {
		in, err := os.Open(script)
		if err != nil {
			fail(err)
		}
		defer in.Close()
		cfg.Enabled = true
		cfg.Input = in
		cfg.ExitOnEOF = true
	}

	if cfg.Enabled {
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if err == context.Canceled {
				return
			}
			fail(err)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Host, cfg.Hz); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
