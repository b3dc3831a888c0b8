// Package freqio switches the frequency ports between reading the external
// selector switches and driving a stored preset.
package freqio

import (
	"fmt"

	"freqpanel/hal"
	"freqpanel/panel/freq"
)

// Lines drives the three frequency ports and the source indicators.
type Lines struct {
	ports  [3]*hal.Port
	live   hal.LED
	preset hal.LED
}

func New(fl hal.FrequencyLines) (*Lines, error) {
	for i, p := range fl.Ports {
		if p == nil {
			return nil, fmt.Errorf("freqio: port %d: %w", i, hal.ErrNotImplemented)
		}
	}
	return &Lines{ports: fl.Ports, live: fl.Live, preset: fl.Preset}, nil
}

// EnterLive releases the ports to the selector switches and lights the live
// indicator.
func (l *Lines) EnterLive() error {
	for _, p := range l.ports {
		if err := p.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
			return fmt.Errorf("freqio: live: %w", err)
		}
	}
	ledOn(l.live)
	ledOff(l.preset)
	return nil
}

// EnterPreset lights the preset indicator and takes over the ports.
func (l *Lines) EnterPreset() error {
	ledOn(l.preset)
	ledOff(l.live)
	for _, p := range l.ports {
		if err := p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			return fmt.Errorf("freqio: preset: %w", err)
		}
	}
	return nil
}

// ReadLive samples the selector switches.
func (l *Lines) ReadLive() (freq.Frequency, error) {
	var f freq.Frequency
	for i, p := range l.ports {
		v, err := p.Read()
		if err != nil {
			return freq.Frequency{}, fmt.Errorf("freqio: read: %w", err)
		}
		f[i] = v
	}
	f[0] &= freq.LiveMask
	return f, nil
}

// Drive puts f on the ports.
func (l *Lines) Drive(f freq.Frequency) error {
	for i, p := range l.ports {
		if err := p.Write(f[i]); err != nil {
			return fmt.Errorf("freqio: drive: %w", err)
		}
	}
	return nil
}

func ledOn(l hal.LED) {
	if l != nil {
		l.High()
	}
}

func ledOff(l hal.LED) {
	if l != nil {
		l.Low()
	}
}
