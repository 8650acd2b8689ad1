package backend

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Factory creates a texture backend. It returns nil when the backend
// cannot run in this process, as wgpu does before a host device is set.
type Factory func() TextureBackend

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// preference is the order Open tries backends in when no name is given.
// Registered backends not listed here follow in name order.
var preference = []string{BackendWGPU, BackendSoftware}

// Register makes a backend available under name, replacing any earlier
// registration. Backend packages call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	factories[name] = factory
	registryMu.Unlock()
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(factories))
}

// Get returns a new, uninitialized instance of the named backend, or nil
// if it is not registered or cannot run here.
func Get(name string) TextureBackend {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// Open returns the named backend, initialized.
//
// An empty name selects the first backend, in preference order, whose
// Init succeeds. A GPU backend without a usable device is skipped, so
// headless runs end up on the software backend.
func Open(name string) (TextureBackend, error) {
	if name != "" {
		return open(name)
	}
	var errs []error
	for _, n := range candidates() {
		b, err := open(n)
		if err == nil {
			return b, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, errors.Join(errs...)
}

func open(name string) (TextureBackend, error) {
	b := Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	if err := b.Init(); err != nil {
		b.Close()
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return b, nil
}

// candidates lists the registered names in the order Open tries them.
func candidates() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for _, n := range preference {
		if _, ok := factories[n]; ok {
			names = append(names, n)
		}
	}
	for _, n := range slices.Sorted(maps.Keys(factories)) {
		if !slices.Contains(preference, n) {
			names = append(names, n)
		}
	}
	return names
}
