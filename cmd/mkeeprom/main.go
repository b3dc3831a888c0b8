//go:build !tinygo

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"freqpanel/hal"
	"freqpanel/panel/freq"
	"freqpanel/panel/memory"
)

const defaultImageSize = 2048

// preset is one slot assignment, e.g. "A3 12.345.6".
type preset struct {
	slot memory.Slot
	f    freq.Frequency
}

type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func main() {
	var imagePath, srcPath string
	var size uint
	var dump bool
	var sets assignments
	flag.StringVar(&imagePath, "image", "", "EEPROM image (default $FREQPANEL_EEPROM_PATH or panel.eeprom).")
	flag.StringVar(&srcPath, "src", "", "Preset list to build a fresh image from (\"A3 12.345.6\" per line).")
	flag.UintVar(&size, "size", defaultImageSize, "Size of a fresh image (bytes).")
	flag.BoolVar(&dump, "dump", false, "List the programmed slots of the image.")
	flag.Var(&sets, "set", "Program one slot in place, e.g. -set A3=12.345.6 (repeatable).")
	flag.Parse()

	if srcPath == "" && len(sets) == 0 && !dump {
		fmt.Fprintln(os.Stderr, "error: one of -src, -set or -dump is required")
		os.Exit(2)
	}
	if size < memory.ImageBytes || size > 1<<20 {
		fmt.Fprintf(os.Stderr, "error: -size must be between %d and %d\n", memory.ImageBytes, 1<<20)
		os.Exit(2)
	}

	path := hal.EEPROMPath(imagePath)
	if err := run(path, srcPath, uint32(size), sets, dump, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(path, srcPath string, size uint32, sets []string, dump bool, out io.Writer) error {
	var presets []preset
	if srcPath != "" {
		in, err := os.Open(srcPath)
		if err != nil {
			return fmt.Errorf("open src %q: %w", srcPath, err)
		}
		presets, err = parsePresets(in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", srcPath, err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove old image %q: %w", path, err)
		}
	}
	for _, s := range sets {
		p, err := parseAssignment(s)
		if err != nil {
			return err
		}
		presets = append(presets, p)
	}

	ee, err := hal.OpenEEPROMFile(path, size)
	if err != nil {
		return err
	}
	defer func() { _ = ee.Close() }()

	store := memory.New(ee, nil)
	if err := store.LoadAll(); err != nil {
		return err
	}
	for _, p := range presets {
		if err := store.Commit(p.slot, p.f); err != nil {
			return err
		}
	}
	if len(presets) > 0 {
		fmt.Fprintf(out, "%s: %d slot(s) written\n", path, len(presets))
	}
	if dump {
		dumpSlots(out, store)
	}
	return nil
}

// parsePresets reads one "slot frequency" pair per line. Blank lines and
// text after '#' are ignored.
func parsePresets(r io.Reader) ([]preset, error) {
	var out []preset
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want slot and frequency", line)
		}
		p, err := parsePreset(fields[0], fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseAssignment(v string) (preset, error) {
	slot, f, ok := strings.Cut(v, "=")
	if !ok {
		return preset{}, fmt.Errorf("-set %q: want SLOT=FREQ", v)
	}
	return parsePreset(slot, f)
}

func parsePreset(slot, f string) (preset, error) {
	s, err := memory.ParseSlot(slot)
	if err != nil {
		return preset{}, err
	}
	v, err := freq.Parse(f)
	if err != nil {
		return preset{}, err
	}
	return preset{slot: s, f: v}, nil
}

// dumpSlots lists every slot that does not read as erased.
func dumpSlots(w io.Writer, store *memory.Store) {
	blank := freq.Frequency{0xFF, 0xFF, 0xFF}
	for i := 0; i < memory.Slots; i++ {
		s := memory.Slot(i)
		f := store.Get(s)
		if f == blank {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", s, f)
	}
}
