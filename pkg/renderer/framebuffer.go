package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// Display is notified whenever a pixel changes
type Display interface {
	Invalidate(x, y int)
}

// NopDisplay ignores updates
type NopDisplay struct{}

func (NopDisplay) Invalidate(x, y int) {}

// Framebuffer is the shared output image.
// Workers write disjoint pixels under the read lock; Snapshot takes the write lock
// so it never sees a partially written pixel.
type Framebuffer struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewFramebuffer allocates a black framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Width returns the width in pixels
func (fb *Framebuffer) Width() int {
	return fb.img.Rect.Dx()
}

// Height returns the height in pixels
func (fb *Framebuffer) Height() int {
	return fb.img.Rect.Dy()
}

// Set stores a linear color, clamped to [0, 1]
func (fb *Framebuffer) Set(x, y int, c core.Vec3) {
	fb.mu.RLock()
	fb.img.SetRGBA(x, y, ToRGBA(c))
	fb.mu.RUnlock()
}

// At returns the stored pixel
func (fb *Framebuffer) At(x, y int) color.RGBA {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.img.RGBAAt(x, y)
}

// Snapshot returns a copy of the whole frame
func (fb *Framebuffer) Snapshot() *image.RGBA {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	snapshot := image.NewRGBA(fb.img.Rect)
	copy(snapshot.Pix, fb.img.Pix)
	return snapshot
}

// Fill overwrites every pixel with c
func (fb *Framebuffer) Fill(c core.Vec3) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rgba := ToRGBA(c)
	bounds := fb.img.Rect
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fb.img.SetRGBA(x, y, rgba)
		}
	}
}

// ToRGBA converts a linear color to 8-bit RGBA with clamping
func ToRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: toByte(c.X),
		G: toByte(c.Y),
		B: toByte(c.Z),
		A: 255,
	}
}

// toByte maps [0, 1] to [0, 255]; NaN becomes 0
func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(255 * v))
}
