// Package software provides CPU textures and a CPU draw target.
//
// Textures are image.RGBA values. [Canvas] implements
// gpucontext.TextureDrawer so a session can be drawn, scaled and
// snapshotted without a GPU, which is what headless tools and tests use.
package software

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/osr/backend"
)

func init() {
	backend.Register(backend.BackendSoftware, func() backend.TextureBackend {
		return New()
	})
}

// Backend is the CPU texture backend.
type Backend struct {
	initialized bool
	creator     *Creator
}

// New creates a software backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendSoftware
}

// Init initializes the backend.
func (b *Backend) Init() error {
	b.initialized = true
	if b.creator == nil {
		b.creator = &Creator{}
	}
	return nil
}

// Close releases all backend resources.
func (b *Backend) Close() {
	b.initialized = false
	b.creator = nil
}

// TextureCreator returns the texture creator, or nil before Init.
func (b *Backend) TextureCreator() gpucontext.TextureCreator {
	if !b.initialized {
		return nil
	}
	return b.creator
}
