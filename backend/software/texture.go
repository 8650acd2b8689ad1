package software

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Texture errors.
var (
	// ErrTextureDestroyed is returned when updating a destroyed texture.
	ErrTextureDestroyed = errors.New("software: texture has been destroyed")

	// ErrSizeMismatch is returned when update data does not match the
	// updated area.
	ErrSizeMismatch = errors.New("software: data size mismatch")

	// ErrOutOfBounds is returned for regions outside the texture.
	ErrOutOfBounds = errors.New("software: region out of bounds")
)

// Creator creates software textures.
type Creator struct {
	created int
}

// NewTextureFromRGBA creates a texture holding a copy of data.
func (c *Creator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	t := &Texture{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	if err := t.UpdateData(data); err != nil {
		return nil, err
	}
	c.created++
	return t, nil
}

// Format reports that textures store RGBA.
func (c *Creator) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Created returns the number of textures created.
func (c *Creator) Created() int {
	return c.created
}

// Texture is a CPU texture. Pixels are premultiplied RGBA.
type Texture struct {
	img           *image.RGBA
	destroyed     bool
	premultiplied bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.img.Rect.Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.img.Rect.Dy() }

// UpdateData replaces the whole texture.
func (t *Texture) UpdateData(data []byte) error {
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if len(data) != len(t.img.Pix) {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrSizeMismatch, len(data), t.Width(), t.Height())
	}
	copy(t.img.Pix, data)
	return nil
}

// UpdateRegion replaces the w x h area at (x, y). data is tightly packed.
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if t.destroyed {
		return ErrTextureDestroyed
	}
	r := image.Rect(x, y, x+w, y+h)
	if r.Empty() || !r.In(t.img.Rect) {
		return fmt.Errorf("%w: %v in %v", ErrOutOfBounds, r, t.img.Rect)
	}
	rowBytes := w * 4
	if len(data) != rowBytes*h {
		return fmt.Errorf("%w: %d bytes for %dx%d region", ErrSizeMismatch, len(data), w, h)
	}
	for row := range h {
		off := t.img.PixOffset(x, y+row)
		copy(t.img.Pix[off:off+rowBytes], data[row*rowBytes:])
	}
	return nil
}

// Destroy marks the texture destroyed. Destroy is idempotent.
func (t *Texture) Destroy() {
	t.destroyed = true
}

// Destroyed reports whether Destroy was called.
func (t *Texture) Destroyed() bool {
	return t.destroyed
}

// SetPremultiplied records whether the contents are premultiplied.
func (t *Texture) SetPremultiplied(p bool) {
	t.premultiplied = p
}

// Image returns the texture contents.
func (t *Texture) Image() *image.RGBA {
	return t.img
}
