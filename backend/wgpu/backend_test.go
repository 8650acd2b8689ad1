package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/osr/backend"
)

var (
	_ backend.TextureBackend          = (*Backend)(nil)
	_ gpucontext.TextureCreator       = (*Creator)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

type fakeProvider struct {
	device gpucontext.Device
}

func (p fakeProvider) Device() gpucontext.Device             { return p.device }
func (p fakeProvider) Queue() gpucontext.Queue               { return nil }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (p fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestRegistryWithoutDevice(t *testing.T) {
	SetDevice(nil)
	assert.Contains(t, backend.Available(), backend.BackendWGPU)
	assert.Nil(t, backend.Get(backend.BackendWGPU), "no device means no backend")
}

func TestInitWithoutDevice(t *testing.T) {
	b := New(nil)
	assert.Equal(t, backend.BackendWGPU, b.Name())
	err := b.Init()
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrNotInitialized))
	assert.Nil(t, b.TextureCreator())
	b.Close()
}

func TestFromProvider(t *testing.T) {
	_, err := FromProvider(nil)
	assert.ErrorIs(t, err, backend.ErrBackendNotAvailable)

	_, err = FromProvider(fakeProvider{device: "not a device"})
	assert.ErrorIs(t, err, backend.ErrBackendNotAvailable)

	_, err = FromProvider(fakeProvider{})
	assert.ErrorIs(t, err, backend.ErrBackendNotAvailable)
}

func TestCreatorFormat(t *testing.T) {
	c := &Creator{}
	assert.Equal(t, gputypes.TextureFormatBGRA8Unorm, c.Format())
	assert.Zero(t, c.Created())
}

func TestCreatorRejectsBadInput(t *testing.T) {
	c := &Creator{}
	_, err := c.NewTextureFromRGBA(0, 4, nil)
	assert.Error(t, err)
	_, err = c.NewTextureFromRGBA(2, 2, make([]byte, 15))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestCheckRegion(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		ok         bool
	}{
		{"whole", 0, 0, 8, 4, true},
		{"inner", 2, 1, 3, 2, true},
		{"corner", 7, 3, 1, 1, true},
		{"negative", -1, 0, 2, 2, false},
		{"empty", 0, 0, 0, 2, false},
		{"right edge", 6, 0, 3, 1, false},
		{"bottom edge", 0, 3, 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRegion(8, 4, tt.x, tt.y, tt.w, tt.h)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrOutOfBounds)
			}
		})
	}
}

func TestTextureStateWithoutGPU(t *testing.T) {
	tex := &Texture{width: 4, height: 2}
	assert.Equal(t, 4, tex.Width())
	assert.Equal(t, 2, tex.Height())

	assert.ErrorIs(t, tex.UpdateData(make([]byte, 8)), ErrSizeMismatch)
	assert.ErrorIs(t, tex.UpdateRegion(3, 0, 2, 1, make([]byte, 8)), ErrOutOfBounds)
	assert.ErrorIs(t, tex.UpdateRegion(0, 0, 2, 1, make([]byte, 4)), ErrSizeMismatch)

	tex.SetPremultiplied(true)
	assert.True(t, tex.Premultiplied())

	tex.Destroy()
	tex.Destroy()
	assert.True(t, tex.Destroyed())
	assert.ErrorIs(t, tex.UpdateData(make([]byte, 32)), ErrTextureDestroyed)
	assert.ErrorIs(t, tex.UpdateRegion(0, 0, 1, 1, make([]byte, 4)), ErrTextureDestroyed)
}
