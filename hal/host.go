//go:build !tinygo

package hal

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// HostConfig configures the host simulator.
type HostConfig struct {
	// EEPROMPath is the image file; see EEPROMPath for the fallback order.
	EEPROMPath string
	// Live is the initial position of the selector switches.
	Live [3]byte
	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string
}

type hostHAL struct {
	logger    *hostLogger
	spi       *ledController
	disp      *MAX7219
	matrix    *hostMatrix
	switches  *selectorSwitches
	ledLive   *VirtualPin
	ledPreset *VirtualPin
	eeprom    *EEPROMFile
	kbd       *hostKeyboard
}

// New returns a host HAL with the default configuration.
func New() (HAL, error) {
	return NewHost(HostConfig{})
}

// NewHost returns a host HAL that emulates the panel hardware.
func NewHost(cfg HostConfig) (HAL, error) {
	return newHostHAL(cfg)
}

func newHostHAL(cfg HostConfig) (*hostHAL, error) {
	logger := newHostLogger(os.Stderr, cfg.LogLevel)

	eeprom, err := OpenEEPROMFile(EEPROMPath(cfg.EEPROMPath), 0)
	if err != nil {
		return nil, err
	}

	spi := newLEDController()
	cs := NewVirtualPin("LOAD", GPIOCapOutput)
	_ = cs.Configure(GPIOModeOutput, GPIOPullNone)
	_ = cs.Write(true)
	cs.OnEdge(spi.chipSelect)

	ledLive := NewVirtualPin("LED.LIVE", GPIOCapOutput)
	ledPreset := NewVirtualPin("LED.PRESET", GPIOCapOutput)
	_ = ledLive.Configure(GPIOModeOutput, GPIOPullNone)
	_ = ledPreset.Configure(GPIOModeOutput, GPIOPullNone)

	matrix := newHostMatrix()
	return &hostHAL{
		logger:    logger,
		spi:       spi,
		disp:      NewMAX7219(spi, cs),
		matrix:    matrix,
		switches:  newSelectorSwitches(cfg.Live),
		ledLive:   ledLive,
		ledPreset: ledPreset,
		eeprom:    eeprom,
		kbd:       newHostKeyboard(matrix),
	}, nil
}

func (h *hostHAL) Logger() Logger      { return h.logger }
func (h *hostHAL) Display() DisplayBus { return h.disp }
func (h *hostHAL) Keypad() KeyMatrix   { return h.matrix }
func (h *hostHAL) EEPROM() EEPROM      { return h.eeprom }

func (h *hostHAL) Frequency() FrequencyLines {
	return FrequencyLines{
		Ports:  h.switches.ports,
		Live:   LEDFromPin(h.ledLive),
		Preset: LEDFromPin(h.ledPreset),
	}
}

func (h *hostHAL) indicators() (live, preset bool) {
	live, _ = h.ledLive.Read()
	preset, _ = h.ledPreset.Read()
	return live, preset
}

func (h *hostHAL) Close() error {
	return h.eeprom.Close()
}

// hostLogger writes through zerolog's console writer. In raw terminal mode
// line feeds are expanded to CR LF.
type hostLogger struct {
	mu  sync.Mutex
	out io.Writer
	raw bool
	z   zerolog.Logger
}

func newHostLogger(out io.Writer, level string) *hostLogger {
	l := &hostLogger{out: out}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: l, TimeFormat: "15:04:05.000"}
	l.z = zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
	return l
}

func (l *hostLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.raw {
		return l.out.Write(p)
	}
	if _, err := l.out.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (l *hostLogger) setRaw(raw bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw = raw
}

func (l *hostLogger) WriteLineString(s string) {
	l.z.Info().Msg(s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.z.Info().Msg(string(b))
}

func (l *hostLogger) debug(s string) {
	l.z.Debug().Msg(s)
}
