//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	hostEEPROMDefaultPath = "panel.eeprom"
	// Same capacity as the ATmega64 data EEPROM.
	hostEEPROMDefaultSizeBytes = 2048
)

// EEPROMFile is a file-backed EEPROM. A new image reads as erased (0xFF).
type EEPROMFile struct {
	mu   sync.Mutex
	f    *os.File
	size uint32
}

// EEPROMPath returns path, or $FREQPANEL_EEPROM_PATH, or the default image name.
func EEPROMPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("FREQPANEL_EEPROM_PATH"); env != "" {
		return env
	}
	return hostEEPROMDefaultPath
}

// OpenEEPROMFile opens or creates a file-backed EEPROM image. An existing
// image keeps its size; size 0 selects the default for new images.
func OpenEEPROMFile(path string, size uint32) (*EEPROMFile, error) {
	if size == 0 {
		size = hostEEPROMDefaultSizeBytes
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image %q: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat eeprom image %q: %w", path, err)
	}
	if st.Size() > int64(^uint32(0)) {
		_ = f.Close()
		return nil, fmt.Errorf("eeprom image %q: %w", path, ErrOutOfRange)
	}
	if st.Size() > 0 {
		size = uint32(st.Size())
	} else {
		erased := make([]byte, size)
		for i := range erased {
			erased[i] = 0xFF
		}
		if _, err := f.WriteAt(erased, 0); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("erase eeprom image %q: %w", path, err)
		}
	}
	return &EEPROMFile{f: f, size: size}, nil
}

func (e *EEPROMFile) SizeBytes() uint32 { return e.size }

func (e *EEPROMFile) ReadAt(p []byte, off uint32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return 0, ErrNotImplemented
	}
	if off >= e.size {
		return 0, fmt.Errorf("eeprom read at %d: %w", off, ErrOutOfRange)
	}
	maxN := int(e.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}
	n, err := e.f.ReadAt(p, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("eeprom read at %d: %w", off, err)
	}
	return n, nil
}

func (e *EEPROMFile) WriteAt(p []byte, off uint32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return 0, ErrNotImplemented
	}
	if off >= e.size || uint64(off)+uint64(len(p)) > uint64(e.size) {
		return 0, fmt.Errorf("eeprom write at %d+%d: %w", off, len(p), ErrOutOfRange)
	}
	n, err := e.f.WriteAt(p, int64(off))
	if err != nil {
		return n, fmt.Errorf("eeprom write at %d: %w", off, err)
	}
	// Programming completes before WriteAt returns.
	if err := e.f.Sync(); err != nil {
		return n, fmt.Errorf("eeprom sync: %w", err)
	}
	return n, nil
}

func (e *EEPROMFile) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f = nil
	return err
}
