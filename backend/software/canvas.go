package software

import (
	"errors"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
	"golang.org/x/image/draw"
)

// ErrForeignTexture is returned when drawing a texture that was not
// created by this package.
var ErrForeignTexture = errors.New("software: texture not created by software backend")

// Canvas is a CPU draw target implementing gpucontext.TextureDrawer.
// Scaled draws use bilinear filtering.
type Canvas struct {
	dst     *image.RGBA
	creator *Creator
	scaler  draw.Scaler
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		dst:     image.NewRGBA(image.Rect(0, 0, width, height)),
		creator: &Creator{},
		scaler:  draw.ApproxBiLinear,
	}
}

// DrawTexture draws tex at (x, y) at its natural size.
func (c *Canvas) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	return c.DrawTextureQuad(tex, x, y, x+float32(tex.Width()), y+float32(tex.Height()))
}

// DrawTextureQuad draws tex stretched over (x1, y1)-(x2, y2).
func (c *Canvas) DrawTextureQuad(tex gpucontext.Texture, x1, y1, x2, y2 float32) error {
	t, ok := tex.(*Texture)
	if !ok {
		return ErrForeignTexture
	}
	if t.destroyed {
		return ErrTextureDestroyed
	}
	r := image.Rect(round(x1), round(y1), round(x2), round(y2))
	src := t.img
	if r.Dx() == src.Rect.Dx() && r.Dy() == src.Rect.Dy() {
		draw.Draw(c.dst, r, src, src.Rect.Min, draw.Over)
		return nil
	}
	c.scaler.Scale(c.dst, r, src, src.Rect, draw.Over, nil)
	return nil
}

// TextureCreator returns the creator for textures this canvas can draw.
func (c *Canvas) TextureCreator() gpucontext.TextureCreator {
	return c.creator
}

// Clear resets the canvas to transparent.
func (c *Canvas) Clear() {
	clear(c.dst.Pix)
}

// Image returns the canvas contents.
func (c *Canvas) Image() *image.RGBA {
	return c.dst
}

// Snapshot returns a copy of the canvas as a gg pixmap.
func (c *Canvas) Snapshot() *gg.Pixmap {
	return gg.FromImage(c.dst)
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}
