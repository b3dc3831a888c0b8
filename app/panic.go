package app

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"freqpanel/hal"
)

// errPattern spells "Err" on the three leftmost digits.
var errPattern = [8]uint8{0x4F, 0x05, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}

// recovered reports a panic raised inside a frame. The panel keeps running;
// the next frame redraws the display.
func (p *panel) recovered(v any) {
	logLine(p.log, fmt.Sprintf("app: panic: %v", v))
	if stack := debug.Stack(); len(stack) > 0 {
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			logLine(p.log, line)
		}
	} else {
		logLine(p.log, "app: stack unavailable")
	}
	if err := showPattern(p.h.Display(), errPattern); err != nil {
		logLine(p.log, "app: "+err.Error())
	}
}

// showPattern writes raw segment patterns, leftmost digit first.
func showPattern(bus hal.DisplayBus, pattern [8]uint8) error {
	if bus == nil {
		return hal.ErrNotImplemented
	}
	for i, v := range pattern {
		if err := bus.WriteRegister(uint8(8-i), v); err != nil {
			return err
		}
	}
	return nil
}

// lampTest lights every segment for d using the controller's test mode.
func lampTest(bus hal.DisplayBus, d time.Duration, sleep func(time.Duration)) error {
	if bus == nil {
		return hal.ErrNotImplemented
	}
	if err := bus.WriteRegister(hal.RegShutdown, 0x01); err != nil {
		return err
	}
	if err := bus.WriteRegister(hal.RegTest, 0x01); err != nil {
		return err
	}
	if sleep != nil {
		sleep(d)
	}
	return bus.WriteRegister(hal.RegTest, 0x00)
}
