package wgpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"
)

// Texture errors.
var (
	ErrTextureDestroyed = errors.New("wgpu: texture destroyed")
	ErrSizeMismatch     = errors.New("wgpu: data size mismatch")
	ErrOutOfBounds      = errors.New("wgpu: region out of bounds")
)

// TextureFormat is the format of every texture the backend creates.
// Browser frames arrive as BGRA, so uploads need no swizzle.
const TextureFormat = gputypes.TextureFormatBGRA8Unorm

const bytesPerPixel = 4

// Creator creates BGRA8 textures on a device.
type Creator struct {
	device  *webgpu.Device
	queue   *webgpu.Queue
	created atomic.Int64
}

// Format reports the texel layout expected by NewTextureFromRGBA.
func (c *Creator) Format() gputypes.TextureFormat {
	return TextureFormat
}

// Created returns the number of textures created so far.
func (c *Creator) Created() int64 {
	return c.created.Load()
}

// NewTextureFromRGBA creates a width x height texture and uploads data.
// Despite the name, data is in the layout reported by Format.
func (c *Creator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid texture size %dx%d", width, height)
	}
	if err := checkData(width, height, data); err != nil {
		return nil, err
	}

	tex, err := c.device.CreateTexture(&webgpu.TextureDescriptor{
		Label: "osr_frame",
		Size: webgpu.Extent3D{
			Width:              uint32(width),  //nolint:gosec // validated above
			Height:             uint32(height), //nolint:gosec // validated above
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     webgpu.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         webgpu.TextureUsageTextureBinding | webgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture: %w", err)
	}

	t := &Texture{tex: tex, queue: c.queue, width: width, height: height}
	if err := t.write(0, 0, width, height, data); err != nil {
		tex.Release()
		return nil, err
	}
	c.created.Add(1)
	return t, nil
}

// Texture is a GPU texture holding one browser layer.
type Texture struct {
	tex           *webgpu.Texture
	queue         *webgpu.Queue
	width, height int
	premultiplied bool
	destroyed     atomic.Bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Raw returns the underlying wgpu texture for binding in a render pass.
func (t *Texture) Raw() *webgpu.Texture { return t.tex }

// SetPremultiplied records whether the texel colors are premultiplied by
// alpha, for the drawer to pick its blend state.
func (t *Texture) SetPremultiplied(v bool) { t.premultiplied = v }

// Premultiplied reports the value set by SetPremultiplied.
func (t *Texture) Premultiplied() bool { return t.premultiplied }

// UpdateData replaces the whole texture.
func (t *Texture) UpdateData(data []byte) error {
	if t.destroyed.Load() {
		return ErrTextureDestroyed
	}
	if err := checkData(t.width, t.height, data); err != nil {
		return err
	}
	return t.write(0, 0, t.width, t.height, data)
}

// UpdateRegion replaces the w x h block at (x, y). data is tightly packed.
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if t.destroyed.Load() {
		return ErrTextureDestroyed
	}
	if err := checkRegion(t.width, t.height, x, y, w, h); err != nil {
		return err
	}
	if err := checkData(w, h, data); err != nil {
		return err
	}
	return t.write(x, y, w, h, data)
}

// Destroy releases the GPU texture. It is safe to call more than once.
func (t *Texture) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	if t.tex != nil {
		t.tex.Release()
	}
}

// Destroyed reports whether Destroy was called.
func (t *Texture) Destroyed() bool {
	return t.destroyed.Load()
}

func (t *Texture) write(x, y, w, h int, data []byte) error {
	//nolint:gosec // bounds checked by callers
	err := t.queue.WriteTexture(
		&webgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   webgpu.Origin3D{X: uint32(x), Y: uint32(y)},
			Aspect:   gputypes.TextureAspectAll,
		},
		data[:w*h*bytesPerPixel],
		&webgpu.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * bytesPerPixel),
			RowsPerImage: uint32(h),
		},
		&webgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture: %w", err)
	}
	return nil
}

func checkData(w, h int, data []byte) error {
	if need := w * h * bytesPerPixel; len(data) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrSizeMismatch, len(data), need)
	}
	return nil
}

func checkRegion(texW, texH, x, y, w, h int) error {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > texW || y+h > texH {
		return fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", ErrOutOfBounds, w, h, x, y, texW, texH)
	}
	return nil
}
