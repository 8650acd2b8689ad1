package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/osr/backend"
)

var (
	deviceMu sync.RWMutex
	device   *webgpu.Device
)

func init() {
	backend.Register(backend.BackendWGPU, func() backend.TextureBackend {
		deviceMu.RLock()
		d := device
		deviceMu.RUnlock()
		if d == nil {
			return nil
		}
		return New(d)
	})
}

// SetDevice sets the device used by backends created through the
// backend registry. Passing nil makes the backend unavailable again.
func SetDevice(d *webgpu.Device) {
	deviceMu.Lock()
	device = d
	deviceMu.Unlock()
}

// Backend is the wgpu texture backend.
type Backend struct {
	device  *webgpu.Device
	creator *Creator
}

// New creates a backend on device.
func New(device *webgpu.Device) *Backend {
	return &Backend{device: device}
}

// FromProvider creates a backend on the device of a host application.
// The provider must hand out a *wgpu.Device.
func FromProvider(p gpucontext.DeviceProvider) (*Backend, error) {
	if p == nil {
		return nil, fmt.Errorf("wgpu: nil device provider: %w", backend.ErrBackendNotAvailable)
	}
	d, ok := p.Device().(*webgpu.Device)
	if !ok || d == nil {
		return nil, fmt.Errorf("wgpu: provider device is %T: %w", p.Device(), backend.ErrBackendNotAvailable)
	}
	return New(d), nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendWGPU
}

// Init prepares the texture creator.
func (b *Backend) Init() error {
	if b.device == nil {
		return fmt.Errorf("wgpu: no device: %w", backend.ErrNotInitialized)
	}
	if b.creator == nil {
		b.creator = &Creator{device: b.device, queue: b.device.Queue()}
	}
	return nil
}

// Close drops the creator. Textures already handed out stay valid until
// they are destroyed; the device belongs to the host.
func (b *Backend) Close() {
	b.creator = nil
}

// TextureCreator returns the texture creator, or nil before Init.
func (b *Backend) TextureCreator() gpucontext.TextureCreator {
	if b.creator == nil {
		return nil
	}
	return b.creator
}
