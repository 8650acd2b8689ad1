// Package staging implements the single-slot mailbox that carries painted
// frames from the engine's paint goroutine to the host render tick.
//
// The producer calls [Buffer.Submit] from the engine callback and the
// consumer calls [Buffer.Drain] once per tick. Both hold one mutex for
// their whole duration and never wait on anything else, so neither side
// can stall the other for longer than a single buffer copy.
package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gogpu/osr/engine"
)

// BytesPerPixel is the size of one BGRA pixel.
const BytesPerPixel = 4

var (
	// ErrOversized is returned when a submitted buffer is larger than its
	// declared dimensions. The frame is dropped.
	ErrOversized = errors.New("staging: pixel buffer larger than frame")

	// ErrUndersized is returned when a submitted buffer is smaller than
	// its declared dimensions, as when a paint for an older, smaller view
	// arrives after a resize. The frame is dropped.
	ErrUndersized = errors.New("staging: pixel buffer smaller than frame")

	// ErrInvalidDimensions is returned for non-positive frame sizes.
	ErrInvalidDimensions = errors.New("staging: invalid dimensions")
)

// Frame is a staged paint. Pixels is valid only inside the Drain callback.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	Dirty  []engine.Rect
	Popup  bool

	// FullRedraw is set when an earlier frame was overwritten before it
	// was drained. Its dirty rects are lost, so the whole texture must be
	// uploaded.
	FullRedraw bool
}

// Stats counts mailbox activity.
type Stats struct {
	Submitted   uint64
	Dropped     uint64
	Overwritten uint64
	Drained     uint64
	Allocations uint64
}

// Buffer is the paint mailbox. The zero value is not usable; call New.
type Buffer struct {
	mu      sync.Mutex
	buf     []byte
	frame   Frame
	pending bool
	stats   Stats

	warn   *rate.Limiter
	logger atomic.Pointer[slog.Logger]
}

// New creates an empty mailbox. Mis-sized frame warnings are limited to
// one per warnEvery; zero disables the limit.
func New(logger *slog.Logger, warnEvery time.Duration) *Buffer {
	b := &Buffer{}
	if warnEvery > 0 {
		b.warn = rate.NewLimiter(rate.Every(warnEvery), 1)
	} else {
		b.warn = rate.NewLimiter(rate.Inf, 0)
	}
	b.SetLogger(logger)
	return b
}

// SetLogger replaces the diagnostics logger. A nil logger discards output.
func (b *Buffer) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	b.logger.Store(l)
}

// Submit stages a copy of pixels. It never blocks on the consumer.
//
// The buffer must hold exactly width*height*4 bytes. Larger buffers are
// dropped with ErrOversized, smaller ones with ErrUndersized; the pending
// frame, if any, is left untouched.
func (b *Buffer) Submit(pixels []byte, width, height int, dirty []engine.Rect, popup bool) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	size := width * height * BytesPerPixel

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(pixels) != size {
		err := ErrOversized
		if len(pixels) < size {
			err = ErrUndersized
		}
		b.stats.Dropped++
		if b.warn.Allow() {
			b.logger.Load().Warn("staging: dropping mis-sized frame",
				"bytes", len(pixels), "width", width, "height", height, "want", size)
		}
		return fmt.Errorf("%w: %d bytes for %dx%d", err, len(pixels), width, height)
	}

	if b.pending {
		b.frame.FullRedraw = true
		b.stats.Overwritten++
	}

	if cap(b.buf) != size {
		b.buf = make([]byte, size)
		b.stats.Allocations++
		b.logger.Load().Debug("staging: reallocated buffer", "width", width, "height", height)
	}
	b.buf = b.buf[:size]
	copy(b.buf, pixels)

	b.frame.Pixels = b.buf
	b.frame.Width = width
	b.frame.Height = height
	b.frame.Dirty = append(b.frame.Dirty[:0], dirty...)
	b.frame.Popup = popup
	b.pending = true
	b.stats.Submitted++
	return nil
}

// Drain hands the pending frame to fn and clears it. It reports whether
// a frame was pending. fn runs with the mailbox locked and must not
// retain f.Pixels or f.Dirty.
func (b *Buffer) Drain(fn func(f Frame)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pending {
		return false
	}
	fn(b.frame)
	b.pending = false
	b.frame.FullRedraw = false
	b.stats.Drained++
	return true
}

// Pending reports whether a frame is waiting to be drained.
func (b *Buffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Stats returns a snapshot of the counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
