// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
)

// Option configures a Compositor during creation.
type Option func(*options)

type options struct {
	creator       gpucontext.TextureCreator
	trackTextures bool
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{}
}

// WithTextureCreator sets the creator used for texture allocation.
// Without it, textures are created on the first Draw with the draw
// context's creator.
func WithTextureCreator(tc gpucontext.TextureCreator) Option {
	return func(o *options) {
		o.creator = tc
	}
}

// WithTrackTextures enables live texture counting, reported by
// LiveTextures and checked on Cleanup.
func WithTrackTextures(enabled bool) Option {
	return func(o *options) {
		o.trackTextures = enabled
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
