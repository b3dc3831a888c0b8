//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/max72xx"
	"tinygo.org/x/drivers/mcp23017"
)

const expanderAddr = 0x20

type tinyGoHAL struct {
	logger  *uartLogger
	disp    DisplayBus
	strobes []GPIOPin
	senses  []GPIOPin
	lines   FrequencyLines
	eeprom  EEPROM
}

// New returns a Raspberry Pi Pico (RP2040/RP2350) HAL.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// MAX7219: SPI0 SCK GP18, SDO GP19, LOAD GP17.
// MCP23017 at 0x20 on I2C0 (SDA GP4, SCL GP5): GPA = 100 kHz port, GPB = 1 kHz port.
// 10 MHz port: GP6..GP11. Strobes GP14..GP16, senses GP20..GP22, GP26..GP28.
// Indicators: live GP12, preset GP13.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	h := &tinyGoHAL{logger: &uartLogger{uart: uart}}

	machine.SPI0.Configure(machine.SPIConfig{
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		Frequency: 1_000_000,
	})
	dev := max72xx.NewDevice(machine.SPI0, machine.GP17)
	dev.Configure()
	h.disp = maxBus{dev: dev}

	for i, p := range []machine.Pin{machine.GP14, machine.GP15, machine.GP16} {
		h.strobes = append(h.strobes, newMachinePin(fmt.Sprintf("STROBE%d", i), p))
	}
	for i, p := range []machine.Pin{machine.GP20, machine.GP21, machine.GP22, machine.GP26, machine.GP27, machine.GP28} {
		h.senses = append(h.senses, newMachinePin(fmt.Sprintf("SENSE%d", i), p))
	}

	var mhz []GPIOPin
	for i, p := range []machine.Pin{machine.GP6, machine.GP7, machine.GP8, machine.GP9, machine.GP10, machine.GP11} {
		mhz = append(mhz, newMachinePin(fmt.Sprintf("MHZ.%d", i), p))
	}
	h.lines.Ports[0] = NewPort("MHZ", mhz...)
	h.lines.Ports[1], h.lines.Ports[2] = h.expanderPorts()

	for _, led := range []struct {
		name string
		pin  machine.Pin
		dst  *LED
	}{{"LED.LIVE", machine.GP12, &h.lines.Live}, {"LED.PRESET", machine.GP13, &h.lines.Preset}} {
		p := newMachinePin(led.name, led.pin)
		_ = p.Configure(GPIOModeOutput, GPIOPullNone)
		*led.dst = LEDFromPin(p)
	}

	h.eeprom = newFlashEEPROM()
	return h
}

// expanderPorts returns the two MCP23017 ports. A missing expander leaves
// both ports unwired so the panel still starts.
func (h *tinyGoHAL) expanderPorts() (*Port, *Port) {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 400_000,
	}); err != nil {
		h.logger.WriteLineString("hal: i2c: " + err.Error())
		return NewPort("KHZ100"), NewPort("KHZ1")
	}
	dev, err := mcp23017.NewI2C(bus, expanderAddr)
	if err != nil {
		h.logger.WriteLineString("hal: mcp23017: " + err.Error())
		return NewPort("KHZ100"), NewPort("KHZ1")
	}
	var a, b []GPIOPin
	for i := 0; i < 8; i++ {
		a = append(a, &expanderPin{name: fmt.Sprintf("KHZ100.%d", i), pin: dev.Pin(i)})
		b = append(b, &expanderPin{name: fmt.Sprintf("KHZ1.%d", i), pin: dev.Pin(8 + i)})
	}
	return NewPort("KHZ100", a...), NewPort("KHZ1", b...)
}

func (h *tinyGoHAL) Logger() Logger            { return h.logger }
func (h *tinyGoHAL) Display() DisplayBus       { return h.disp }
func (h *tinyGoHAL) Keypad() KeyMatrix         { return h }
func (h *tinyGoHAL) Frequency() FrequencyLines { return h.lines }
func (h *tinyGoHAL) EEPROM() EEPROM            { return h.eeprom }
func (h *tinyGoHAL) Strobes() []GPIOPin        { return h.strobes }
func (h *tinyGoHAL) Senses() []GPIOPin         { return h.senses }

// maxBus sends register writes through the max72xx driver.
type maxBus struct {
	dev *max72xx.Device
}

func (b maxBus) WriteRegister(reg, val uint8) error {
	if reg > 0x0F {
		return fmt.Errorf("max7219: register %#02x: %w", reg, ErrOutOfRange)
	}
	b.dev.WriteCommand(reg, val)
	return nil
}
