package software

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/osr/backend"
	"github.com/gogpu/osr/compositor"
	"github.com/gogpu/osr/engine"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, backend.Available(), backend.BackendSoftware)
	b := backend.Get(backend.BackendSoftware)
	require.NotNil(t, b)
	assert.Equal(t, backend.BackendSoftware, b.Name())
}

func TestBackendLifecycle(t *testing.T) {
	b := New()
	assert.Nil(t, b.TextureCreator(), "no creator before Init")
	require.NoError(t, b.Init())
	assert.NotNil(t, b.TextureCreator())
	b.Close()
	assert.Nil(t, b.TextureCreator())
}

func rgba(w, h int, r, g, bl, a byte) []byte {
	out := make([]byte, w*h*4)
	for i := 0; i < len(out); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = r, g, bl, a
	}
	return out
}

func TestTextureUpdates(t *testing.T) {
	c := &Creator{}
	tex, err := c.NewTextureFromRGBA(3, 2, rgba(3, 2, 1, 2, 3, 255))
	require.NoError(t, err)
	st := tex.(*Texture)
	assert.Equal(t, 3, st.Width())
	assert.Equal(t, 2, st.Height())
	assert.Equal(t, 1, c.Created())

	require.NoError(t, st.UpdateRegion(1, 1, 2, 1, rgba(2, 1, 9, 9, 9, 255)))
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, st.Image().RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{9, 9, 9, 255}, st.Image().RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{9, 9, 9, 255}, st.Image().RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, st.Image().RGBAAt(2, 0))

	assert.ErrorIs(t, st.UpdateRegion(2, 1, 2, 1, rgba(2, 1, 0, 0, 0, 0)), ErrOutOfBounds)
	assert.ErrorIs(t, st.UpdateRegion(0, 0, 1, 1, nil), ErrSizeMismatch)
	assert.ErrorIs(t, st.UpdateData(make([]byte, 5)), ErrSizeMismatch)

	st.Destroy()
	st.Destroy()
	assert.True(t, st.Destroyed())
	assert.ErrorIs(t, st.UpdateData(rgba(3, 2, 0, 0, 0, 0)), ErrTextureDestroyed)
}

func TestCreatorErrors(t *testing.T) {
	c := &Creator{}
	_, err := c.NewTextureFromRGBA(0, 1, nil)
	assert.Error(t, err)
	_, err = c.NewTextureFromRGBA(1, 1, []byte{1})
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Zero(t, c.Created())
}

func TestCanvasDraw(t *testing.T) {
	cv := NewCanvas(4, 4)
	tex, err := cv.TextureCreator().NewTextureFromRGBA(2, 2, rgba(2, 2, 255, 0, 0, 255))
	require.NoError(t, err)

	require.NoError(t, cv.DrawTexture(tex, 1, 1))
	img := cv.Image()
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(3, 3))

	cv.Clear()
	require.NoError(t, cv.DrawTextureQuad(tex, 0, 0, 4, 4))
	got := img.RGBAAt(3, 3)
	assert.GreaterOrEqual(t, got.R, uint8(250), "quad stretches the texture")
	assert.Equal(t, uint8(255), got.A)

	pm := cv.Snapshot()
	assert.Equal(t, 4, pm.Width())
	assert.Equal(t, 4, pm.Height())
}

type otherTexture struct{}

func (otherTexture) Width() int  { return 1 }
func (otherTexture) Height() int { return 1 }

func TestCanvasRejectsForeignTexture(t *testing.T) {
	cv := NewCanvas(1, 1)
	err := cv.DrawTexture(otherTexture{}, 0, 0)
	assert.True(t, errors.Is(err, ErrForeignTexture))
}

// Engine frames are BGRA; the compositor swizzles them for RGBA textures.
func TestCompositorEndToEnd(t *testing.T) {
	cv := NewCanvas(4, 4)
	comp := compositor.New(compositor.WithTextureCreator(cv.TextureCreator()))

	// 4x4 blue page in BGRA.
	page := make([]byte, 4*4*4)
	for i := 0; i < len(page); i += 4 {
		page[i], page[i+3] = 255, 255
	}
	require.NoError(t, comp.Upload(page, 4, 4, nil, false, false))

	// Paint pixel (2, 1) green and upload it as a dirty rect.
	off := (1*4 + 2) * 4
	page[off], page[off+1] = 0, 255
	require.NoError(t, comp.Upload(page, 4, 4, []engine.Rect{{X: 2, Y: 1, Width: 1, Height: 1}}, false, false))

	// 1x1 red popup at (0, 3).
	comp.SetPopupRect(engine.Rect{X: 0, Y: 3, Width: 1, Height: 1})
	require.NoError(t, comp.Upload([]byte{0, 0, 255, 255}, 1, 1, nil, false, true))

	require.NoError(t, comp.Draw(cv, 0, 0, 4, 4))
	img := cv.Image()
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 3))

	comp.Cleanup()
	assert.True(t, comp.Texture() == nil)
}
