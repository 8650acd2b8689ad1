package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU texture backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
)

// TextureBackend provides the textures browser frames are uploaded to.
//
// Backends are registered with Register and obtained with Open.
type TextureBackend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init initializes the backend.
	// This should be called before TextureCreator.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// TextureCreator returns the creator for frame textures, or nil if
	// the backend is not initialized.
	TextureCreator() gpucontext.TextureCreator
}
