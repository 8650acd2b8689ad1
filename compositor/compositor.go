// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/osr/engine"
)

// BytesPerPixel is the size of one frame pixel.
const BytesPerPixel = 4

// Common errors returned by Compositor operations.
var (
	// ErrClosed is returned when operations are attempted after Cleanup.
	ErrClosed = errors.New("compositor: compositor is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("compositor: invalid dimensions")

	// ErrShortBuffer is returned when a frame holds fewer bytes than its size.
	ErrShortBuffer = errors.New("compositor: pixel buffer shorter than frame")

	// ErrNoTextureCreator is returned when a pending texture cannot be
	// created because the draw context has no texture creator.
	ErrNoTextureCreator = errors.New("compositor: draw context has no texture creator")

	// ErrTextureCreationFailed is returned when texture creation fails.
	ErrTextureCreationFailed = errors.New("compositor: texture creation failed")
)

// textureDestroyer is implemented by textures that own GPU memory.
type textureDestroyer interface {
	Destroy()
}

// formatReporter is implemented by creators that declare their storage format.
type formatReporter interface {
	Format() gputypes.TextureFormat
}

// QuadDrawer is implemented by draw contexts that can stretch a texture
// over a rectangle. Draw contexts without it get the texture at (x1, y1)
// at its natural size.
type QuadDrawer interface {
	DrawTextureQuad(tex gpucontext.Texture, x1, y1, x2, y2 float32) error
}

// layer is one texture plus its deferred-creation state.
type layer struct {
	tex     gpucontext.Texture
	bgra    bool // tex stores BGRA, no swizzle on update
	pending []byte
	width   int
	height  int

	// stale is set when an upload failed part way. The texture may hold
	// a mix of frames until the next full upload.
	stale bool
}

func (l *layer) sized(width, height int) bool {
	return l.width == width && l.height == height
}

// Compositor owns the page and popup textures of one browser view.
type Compositor struct {
	opts    options
	creator gpucontext.TextureCreator

	page  layer
	popup layer

	scratch []byte
	region  []byte

	mu        sync.Mutex // guards popupRect and forceFull
	popupRect engine.Rect
	forceFull bool

	live   atomic.Int64
	logger atomic.Pointer[slog.Logger]
	closed bool
}

// New creates a compositor. No texture is allocated until the first Upload.
func New(opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Compositor{opts: o, creator: o.creator}
	c.SetLogger(o.logger)
	return c
}

// SetLogger replaces the diagnostics logger. A nil logger discards output.
func (c *Compositor) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	c.logger.Store(l)
}

// Upload applies a frame to the page texture, or to the popup texture if
// popup is set. See the package documentation for full versus partial
// upload rules.
func (c *Compositor) Upload(pixels []byte, width, height int, dirty []engine.Rect, fullRedraw, popup bool) error {
	if c.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	size := width * height * BytesPerPixel
	if len(pixels) < size {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrShortBuffer, len(pixels), width, height)
	}
	pixels = pixels[:size]

	l := &c.popup
	if !popup {
		l = &c.page
		c.mu.Lock()
		if c.forceFull {
			fullRedraw = true
			c.forceFull = false
		}
		c.mu.Unlock()
	}

	if l.stale {
		fullRedraw = true
	}
	if err := c.apply(l, pixels, width, height, dirty, fullRedraw); err != nil {
		l.stale = true
		return err
	}
	l.stale = false
	return nil
}

func (c *Compositor) apply(l *layer, pixels []byte, width, height int, dirty []engine.Rect, fullRedraw bool) error {
	if l.tex == nil || l.pending != nil || !l.sized(width, height) {
		return c.replace(l, pixels, width, height)
	}
	if fullRedraw || len(dirty) == 0 {
		return c.updateFull(l, pixels)
	}

	ru, ok := l.tex.(gpucontext.TextureRegionUpdater)
	if !ok {
		return c.updateFull(l, pixels)
	}
	bounds := engine.Rect{Width: width, Height: height}
	for _, r := range dirty {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		data := c.extract(pixels, width, r, l.bgra)
		if err := ru.UpdateRegion(r.X, r.Y, r.Width, r.Height, data); err != nil {
			return fmt.Errorf("compositor: region update failed: %w", err)
		}
	}
	return nil
}

// replace swaps the layer's texture for one of the new size. Without a
// creator the frame is kept as pending data until Draw.
func (c *Compositor) replace(l *layer, pixels []byte, width, height int) error {
	if c.creator == nil {
		l.pending = append(l.pending[:0], pixels...)
		l.width = width
		l.height = height
		return nil
	}
	tex, bgra, err := c.create(c.creator, width, height, pixels)
	if err != nil {
		return err
	}
	c.destroy(l.tex)
	l.tex = tex
	l.bgra = bgra
	l.pending = nil
	l.width = width
	l.height = height
	return nil
}

func (c *Compositor) updateFull(l *layer, pixels []byte) error {
	u, ok := l.tex.(gpucontext.TextureUpdater)
	if !ok {
		// Immutable texture: recreate it with the new contents.
		return c.recreate(l, pixels)
	}
	data := pixels
	if !l.bgra {
		data = c.swizzle(pixels)
	}
	if err := u.UpdateData(data); err != nil {
		return fmt.Errorf("compositor: texture update failed: %w", err)
	}
	return nil
}

func (c *Compositor) recreate(l *layer, pixels []byte) error {
	tex, bgra, err := c.create(c.creator, l.width, l.height, pixels)
	if err != nil {
		return err
	}
	c.destroy(l.tex)
	l.tex = tex
	l.bgra = bgra
	return nil
}

func (c *Compositor) create(creator gpucontext.TextureCreator, width, height int, pixels []byte) (gpucontext.Texture, bool, error) {
	bgra := false
	if fr, ok := creator.(formatReporter); ok {
		bgra = fr.Format() == gputypes.TextureFormatBGRA8Unorm
	}
	data := pixels
	if !bgra {
		data = c.swizzle(pixels)
	}
	tex, err := creator.NewTextureFromRGBA(width, height, data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrTextureCreationFailed, err)
	}

	// Engine frames are premultiplied.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}
	if c.opts.trackTextures {
		n := c.live.Add(1)
		c.logger.Load().Debug("compositor: texture created", "width", width, "height", height, "live", n)
	}
	return tex, bgra, nil
}

func (c *Compositor) destroy(tex gpucontext.Texture) {
	if tex == nil {
		return
	}
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
	if c.opts.trackTextures {
		n := c.live.Add(-1)
		c.logger.Load().Debug("compositor: texture destroyed", "live", n)
	}
}

// swizzle converts BGRA to RGBA into the reused scratch buffer.
func (c *Compositor) swizzle(src []byte) []byte {
	if cap(c.scratch) < len(src) {
		c.scratch = make([]byte, len(src))
	}
	dst := c.scratch[:len(src)]
	swapRB(dst, src)
	return dst
}

// extract copies rectangle r out of a frame of the given width as a
// tightly packed buffer, swizzling unless the texture stores BGRA.
func (c *Compositor) extract(pixels []byte, width int, r engine.Rect, bgra bool) []byte {
	n := r.Width * r.Height * BytesPerPixel
	if cap(c.region) < n {
		c.region = make([]byte, n)
	}
	dst := c.region[:n]
	rowBytes := r.Width * BytesPerPixel
	stride := width * BytesPerPixel
	for y := range r.Height {
		src := pixels[(r.Y+y)*stride+r.X*BytesPerPixel:][:rowBytes]
		row := dst[y*rowBytes:][:rowBytes]
		if bgra {
			copy(row, src)
		} else {
			swapRB(row, src)
		}
	}
	return dst
}

// swapRB swaps the first and third byte of every pixel.
func swapRB(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// SetPopupRect sets where the popup overlay is drawn, in view pixels.
func (c *Compositor) SetPopupRect(r engine.Rect) {
	c.mu.Lock()
	c.popupRect = r
	c.mu.Unlock()
}

// PopupRect returns the popup rectangle, or the zero Rect if hidden.
func (c *Compositor) PopupRect() engine.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popupRect
}

// ClearPopup hides the popup overlay and forces the next page upload to
// be a full redraw.
func (c *Compositor) ClearPopup() {
	c.mu.Lock()
	c.popupRect = engine.Rect{}
	c.forceFull = true
	c.mu.Unlock()
}

// Draw draws the page texture stretched over (x1, y1)-(x2, y2), then the
// popup overlay on top of it. Pending textures are created first using
// dc's texture creator. Draw is a no-op until a frame has been uploaded.
func (c *Compositor) Draw(dc gpucontext.TextureDrawer, x1, y1, x2, y2 float32) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.realize(dc, &c.page); err != nil {
		return err
	}
	if err := c.realize(dc, &c.popup); err != nil {
		return err
	}
	if c.page.tex == nil {
		return nil
	}
	if err := drawQuad(dc, c.page.tex, x1, y1, x2, y2); err != nil {
		return fmt.Errorf("compositor: draw failed: %w", err)
	}

	r := c.PopupRect()
	if c.popup.tex == nil || r.Empty() {
		return nil
	}
	sx := (x2 - x1) / float32(c.page.width)
	sy := (y2 - y1) / float32(c.page.height)
	px := x1 + float32(r.X)*sx
	py := y1 + float32(r.Y)*sy
	if err := drawQuad(dc, c.popup.tex, px, py, px+float32(r.Width)*sx, py+float32(r.Height)*sy); err != nil {
		return fmt.Errorf("compositor: popup draw failed: %w", err)
	}
	return nil
}

func (c *Compositor) realize(dc gpucontext.TextureDrawer, l *layer) error {
	if l.pending == nil {
		return nil
	}
	if c.creator == nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}
		c.creator = creator
	}
	tex, bgra, err := c.create(c.creator, l.width, l.height, l.pending)
	if err != nil {
		return err
	}

	// The old texture is only released once its replacement exists.
	c.destroy(l.tex)
	l.tex = tex
	l.bgra = bgra
	l.pending = nil
	return nil
}

func drawQuad(dc gpucontext.TextureDrawer, tex gpucontext.Texture, x1, y1, x2, y2 float32) error {
	if qd, ok := dc.(QuadDrawer); ok {
		return qd.DrawTextureQuad(tex, x1, y1, x2, y2)
	}
	return dc.DrawTexture(tex, x1, y1)
}

// Texture returns the page texture, or nil if none has been created.
func (c *Compositor) Texture() gpucontext.Texture {
	return c.page.tex
}

// Size returns the size of the last uploaded page frame.
func (c *Compositor) Size() (width, height int) {
	return c.page.width, c.page.height
}

// LiveTextures returns the number of textures created and not yet
// destroyed. It is always zero unless texture tracking is enabled.
func (c *Compositor) LiveTextures() int {
	return int(c.live.Load())
}

// Cleanup releases all textures. It is idempotent, and safe to call
// before anything was uploaded.
func (c *Compositor) Cleanup() {
	if c.closed {
		return
	}
	c.closed = true

	c.destroy(c.page.tex)
	c.destroy(c.popup.tex)
	c.page = layer{}
	c.popup = layer{}
	c.scratch = nil
	c.region = nil

	if c.opts.trackTextures {
		if n := c.live.Load(); n != 0 {
			c.logger.Load().Warn("compositor: textures leaked", "live", n)
		}
	}
}

// Closed reports whether Cleanup has been called.
func (c *Compositor) Closed() bool {
	return c.closed
}
