//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
	// ExitOnEOF stops the runner once the input is exhausted and every queued
	// key press has been played.
	ExitOnEOF bool
	// Input supplies key strokes; nil reads the terminal.
	Input io.Reader
	Host  HostConfig
}

// Terminal keys standing in for the panel keys.
var termKeyWiring = map[byte]matrixPos{
	'\r': posEnter,
	'\n': posEnter,
	'p':  posPreset,
	'P':  posPreset,
	'm':  posMemory,
	'M':  posMemory,
	'[':  posBankDn,
	']':  posBankUp,
	',':  posSlotDn,
	'<':  posSlotDn,
	'.':  posSlotUp,
	'>':  posSlotUp,
}

// Terminal keys turning the selector switches, most significant first.
const termSwitchKeys = "asdfgh"

// RunHeadless runs the panel without opening a window. The decoded display
// is logged whenever it changes.
func RunHeadless(ctx context.Context, newApp func(HAL) (func() error, error), cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 20
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h, err := newHostHAL(cfg.Host)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	step, err := newApp(h)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := cfg.Input
	if in == nil {
		in = os.Stdin
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			old, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("terminal raw mode: %w", err)
			}
			h.logger.setRaw(true)
			defer func() {
				_ = term.Restore(fd, old)
				h.logger.setRaw(false)
			}()
			h.logger.WriteLineString("keys: 0-9 Enter p=preset m=write [ ]=bank , .=slot asdfgh=switches q=quit")
		}
	}

	var eof atomic.Bool
	go readTermKeys(in, h, cancel, &eof)

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	last := ""
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-t.C:
			h.matrix.tick()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			if text := h.spi.state().text(); text != last {
				last = text
				h.logger.WriteLineString("display: " + text)
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
			if cfg.ExitOnEOF && eof.Load() && !h.matrix.pending() {
				return nil
			}
		}
	}
}

func readTermKeys(r io.Reader, h *hostHAL, quit func(), eof *atomic.Bool) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b := buf[0]
			switch {
			case b == 0x03 || b == 'q' || b == 'Q':
				quit()
				return
			case b >= '0' && b <= '9':
				h.matrix.enqueue(digitPos[b-'0'])
			default:
				if pos, ok := termKeyWiring[b]; ok {
					h.matrix.enqueue(pos)
				} else if i := strings.IndexByte(termSwitchKeys, b); i >= 0 {
					h.switches.step(i)
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.debug("keys: " + err.Error())
			}
			eof.Store(true)
			return
		}
	}
}
