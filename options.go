package osr

import (
	"context"

	"github.com/gogpu/gpucontext"
)

// Option configures a Session during creation.
//
// Example:
//
//	s, err := osr.NewSession(eng, "https://example.com",
//	    osr.WithSize(1280, 720),
//	    osr.WithTransparent(true),
//	)
type Option func(*options)

type options struct {
	transparent    bool
	geometry       ViewGeometry
	creator        gpucontext.TextureCreator
	registry       *Registry
	requestContext any
	trackTextures  bool
	createCtx      context.Context
}

func defaultOptions() options {
	return options{
		geometry:  defaultGeometry(),
		registry:  DefaultRegistry(),
		createCtx: context.Background(),
	}
}

// WithTransparent requests a transparent page background.
// Developer tools sessions opened from this session inherit it.
func WithTransparent(transparent bool) Option {
	return func(o *options) {
		o.transparent = transparent
	}
}

// WithSize sets the initial view size. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.geometry.Width = width
			o.geometry.Height = height
		}
	}
}

// WithScaleFactor sets the device scale factor reported to the engine.
// Non-positive values are ignored.
func WithScaleFactor(scale float64) Option {
	return func(o *options) {
		if scale > 0 {
			o.geometry.ScaleFactor = scale
		}
	}
}

// WithTextureCreator sets the creator for page textures. Without it,
// textures are created on the first Draw from the draw context.
func WithTextureCreator(tc gpucontext.TextureCreator) Option {
	return func(o *options) {
		o.creator = tc
	}
}

// WithRegistry registers the session with r instead of the default
// registry. A nil registry leaves the session unregistered.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithRequestContext passes an engine-specific request context through
// to browser creation.
func WithRequestContext(rc any) Option {
	return func(o *options) {
		o.requestContext = rc
	}
}

// WithTrackTextures enables live texture counting, reported by
// Session.LiveTextures. Useful to catch GPU memory leaks.
func WithTrackTextures(enabled bool) Option {
	return func(o *options) {
		o.trackTextures = enabled
	}
}

// WithCreateContext sets the context used when the browser is created on
// demand by the first input, script or source request. A nil ctx is
// ignored.
func WithCreateContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.createCtx = ctx
		}
	}
}
