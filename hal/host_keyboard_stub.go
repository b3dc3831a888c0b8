//go:build !tinygo && !cgo

package hal

type hostKeyboard struct {
	m *hostMatrix
}

func newHostKeyboard(m *hostMatrix) *hostKeyboard {
	return &hostKeyboard{m: m}
}

func (k *hostKeyboard) poll(sw *selectorSwitches) {
	// No keyboard support without the window backend.
	_ = sw
}
