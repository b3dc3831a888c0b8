//go:build !tinygo && cgo

package hal

import (
	"freqpanel/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window showing the emulated front panel and feeds
// the PC keyboard into the key matrix. It blocks until the window closes.
func RunWindow(newApp func(HAL) (func() error, error), cfg HostConfig, hz int) error {
	h, err := newHostHAL(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	step, err := newApp(h)
	if err != nil {
		return err
	}
	if hz <= 0 {
		hz = 20
	}

	g := &hostGame{h: h, fb: newHostFramebuffer(viewWidth, viewHeight), step: step}
	ebiten.SetWindowTitle("Frequency reference panel (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(viewWidth*2, viewHeight*2)
	ebiten.SetTPS(hz)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	fb    *hostFramebuffer
	pix   []byte
	fbImg *ebiten.Image
	step  func() error
}

func (g *hostGame) Update() error {
	g.h.kbd.poll(g.h.switches)
	g.h.matrix.tick()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	live, preset := g.h.indicators()
	drawPanel(g.fb, g.h.spi.state(), live, preset, g.h.switches.get())
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	b := g.fb.bounds()
	if g.fbImg == nil {
		g.pix = make([]byte, 4*b.Dx()*b.Dy())
		g.fbImg = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.fb.snapshot(g.pix)
	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := g.fb.bounds()
	return b.Dx(), b.Dy()
}
