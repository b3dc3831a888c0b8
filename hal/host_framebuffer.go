//go:build !tinygo

package hal

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// hostFramebuffer is the RGBA picture of the front panel the window presents.
type hostFramebuffer struct {
	mu  sync.Mutex
	img *image.RGBA
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	return &hostFramebuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (f *hostFramebuffer) bounds() image.Rectangle { return f.img.Rect }

func (f *hostFramebuffer) clear(c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draw.Draw(f.img, f.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// fillRect paints a rectangle, clipped to the panel.
func (f *hostFramebuffer) fillRect(x, y, w, h int, c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := image.Rect(x, y, x+w, y+h).Intersect(f.img.Rect)
	draw.Draw(f.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// snapshot copies the pixels into dst, which must hold the whole picture.
func (f *hostFramebuffer) snapshot(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.img.Pix)
}

// Size, SetPixel and Display make the framebuffer a drivers.Displayer for tinyfont.
func (f *hostFramebuffer) Size() (x, y int16) {
	return int16(f.img.Rect.Dx()), int16(f.img.Rect.Dy())
}

func (f *hostFramebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.img.SetRGBA(int(x), int(y), c)
}

func (f *hostFramebuffer) Display() error { return nil }
