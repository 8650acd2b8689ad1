package osr

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/osr/engine"
	"github.com/gogpu/osr/engine/enginetest"
)

type fakeTexture struct {
	width, height int
	full          int
	regions       int
	destroyed     int
}

func (t *fakeTexture) Width() int                                  { return t.width }
func (t *fakeTexture) Height() int                                 { return t.height }
func (t *fakeTexture) UpdateData([]byte) error                     { t.full++; return nil }
func (t *fakeTexture) UpdateRegion(_, _, _, _ int, _ []byte) error { t.regions++; return nil }
func (t *fakeTexture) Destroy()                                    { t.destroyed++ }

type fakeCreator struct {
	textures []*fakeTexture
}

func (c *fakeCreator) NewTextureFromRGBA(w, h int, _ []byte) (gpucontext.Texture, error) {
	tex := &fakeTexture{width: w, height: h}
	c.textures = append(c.textures, tex)
	return tex, nil
}

func (c *fakeCreator) last() *fakeTexture { return c.textures[len(c.textures)-1] }

func newTestSession(t *testing.T, opts ...Option) (*Session, *enginetest.Engine, *fakeCreator) {
	t.Helper()
	eng := enginetest.New()
	tc := &fakeCreator{}
	opts = append([]Option{WithTextureCreator(tc), WithRegistry(NewRegistry())}, opts...)
	s, err := NewSession(eng, "https://example.com", opts...)
	require.NoError(t, err)
	return s, eng, tc
}

func browserOf(t *testing.T, eng *enginetest.Engine, i int) *enginetest.Browser {
	t.Helper()
	bs := eng.Browsers()
	require.Greater(t, len(bs), i)
	return bs[i]
}

func px(w, h int) []byte { return make([]byte, w*h*4) }

func TestNewSessionNilEngine(t *testing.T) {
	_, err := NewSession(nil, "")
	assert.ErrorIs(t, err, ErrNilEngine)
}

func TestSessionLifecycle(t *testing.T) {
	s, eng, _ := newTestSession(t, WithTransparent(true), WithRequestContext("ctx"))
	assert.Equal(t, StateUninitialized, s.State())
	assert.False(t, s.IsPageLoading())
	assert.Empty(t, eng.Browsers(), "loading state does not create the browser")

	require.NoError(t, s.CreateImmediately(context.Background()))
	assert.Equal(t, StateCreated, s.State())

	b := browserOf(t, eng, 0)
	assert.Equal(t, "https://example.com", b.Request.URL)
	assert.True(t, b.Request.Transparent)
	assert.Equal(t, "ctx", b.Request.RequestContext)
	assert.Same(t, s, b.Request.Handler)

	// A second create only focuses the existing browser.
	require.NoError(t, s.CreateImmediately(context.Background()))
	assert.Len(t, eng.Browsers(), 1)
	assert.Equal(t, []bool{true}, b.Focus())

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	n, ignore := b.Closes()
	assert.Equal(t, 1, n)
	assert.True(t, ignore, "close ignores unload confirmation")

	assert.ErrorIs(t, s.CreateImmediately(context.Background()), ErrClosed)
	assert.ErrorIs(t, s.Tick(), ErrClosed)
	assert.ErrorIs(t, s.RunJS("1", ""), ErrClosed)
}

func TestSessionCreateFailure(t *testing.T) {
	s, eng, _ := newTestSession(t)
	eng.FailNext()
	require.Error(t, s.CreateImmediately(context.Background()))
	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.CreateImmediately(context.Background()), "creation can be retried")
	assert.Equal(t, StateCreated, s.State())
}

func TestSessionCloseTwice(t *testing.T) {
	s, eng, tc := newTestSession(t, WithTrackTextures(true))
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)
	b.Paint(false, nil, px(2, 2), 2, 2)
	require.NoError(t, s.Tick())
	require.NotNil(t, s.TextureHandle())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	n, _ := b.Closes()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, tc.last().destroyed, "texture destroyed exactly once")
	assert.Zero(t, s.LiveTextures())
	assert.Nil(t, s.TextureHandle())
}

func TestFirstInteractionCreatesBrowser(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "create")

	tests := []struct {
		name  string
		touch func(s *Session) error
		check func(t *testing.T, b *enginetest.Browser)
	}{
		{
			name:  "mouse move",
			touch: func(s *Session) error { s.InjectMouseMove(3, 4, 0, false); return nil },
			check: func(t *testing.T, b *enginetest.Browser) {
				require.Len(t, b.MouseEvents(), 1)
				assert.Equal(t, 3, b.MouseEvents()[0].X)
			},
		},
		{
			name:  "typed key",
			touch: func(s *Session) error { s.InjectKeyTyped('x', 0); return nil },
			check: func(t *testing.T, b *enginetest.Browser) {
				require.Len(t, b.KeyEvents(), 1)
				assert.Equal(t, 'x', b.KeyEvents()[0].Char)
			},
		},
		{
			name:  "wheel",
			touch: func(s *Session) error { s.InjectMouseWheel(1, 1, 0, 1, 2); return nil },
			check: func(t *testing.T, b *enginetest.Browser) {
				assert.Len(t, b.WheelEvents(), 1)
			},
		},
		{
			name:  "script",
			touch: func(s *Session) error { return s.RunJS("1+1", "") },
			check: func(t *testing.T, b *enginetest.Browser) {
				assert.Len(t, b.Scripts(), 1)
			},
		},
		{
			name: "source",
			touch: func(s *Session) error {
				return s.VisitSource(func(string) {})
			},
			check: func(*testing.T, *enginetest.Browser) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, eng, _ := newTestSession(t, WithCreateContext(ctx))
			require.NoError(t, tt.touch(s))

			assert.Equal(t, StateCreated, s.State())
			require.Len(t, eng.Browsers(), 1)
			b := browserOf(t, eng, 0)
			assert.Equal(t, "create", eng.CreateContext(0).Value(ctxKey{}))
			assert.Empty(t, b.Focus(), "on-demand creation does not focus")
			tt.check(t, b)

			s.InjectMouseMove(5, 5, 0, false)
			assert.Len(t, eng.Browsers(), 1, "browser is created once")
		})
	}
}

func TestFirstInteractionCreateFailure(t *testing.T) {
	s, eng, _ := newTestSession(t)
	eng.FailNext()
	require.Error(t, s.RunJS("1", ""))
	assert.Equal(t, StateUninitialized, s.State())

	s.InjectKeyTyped('a', 0)
	b := browserOf(t, eng, 0)
	assert.Len(t, b.KeyEvents(), 1, "next interaction retries creation")
}

func TestTickBeforeCreate(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.Tick())
	assert.Empty(t, eng.Browsers(), "replay does not create the browser")
}

func TestSessionCloseBeforeCreate(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.Close())
	assert.Empty(t, eng.Browsers())
	assert.Equal(t, StateClosed, s.State())
}

func TestTickUploadsAndReplays(t *testing.T) {
	s, eng, tc := newTestSession(t, WithSize(4, 4))
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	s.InjectMouseMove(3, 2, 0, false)
	b.Paint(false, []engine.Rect{{Width: 4, Height: 4}}, px(4, 4), 4, 4)
	require.NoError(t, s.Tick())
	require.Len(t, tc.textures, 1)

	b.Paint(false, []engine.Rect{{Width: 1, Height: 1}}, px(4, 4), 4, 4)
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, tc.last().regions)

	// Nothing pending: no upload, replay still happens.
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, tc.last().regions)

	moves := b.MouseEvents()
	require.Len(t, moves, 4)
	for _, ev := range moves {
		assert.Equal(t, engine.MouseEvent{Type: engine.MouseMoved, X: 3, Y: 2}, ev)
	}

	st := s.FrameStats()
	assert.Equal(t, uint64(2), st.Submitted)
	assert.Equal(t, uint64(2), st.Uploaded)
}

func TestStaleFrameFullRedraw(t *testing.T) {
	s, eng, tc := newTestSession(t, WithSize(4, 4))
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	b.Paint(false, nil, px(4, 4), 4, 4)
	require.NoError(t, s.Tick())
	tex := tc.last()

	dirty := []engine.Rect{{Width: 1, Height: 1}}
	b.Paint(false, dirty, px(4, 4), 4, 4)
	b.Paint(false, dirty, px(4, 4), 4, 4)
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, tex.full)
	assert.Zero(t, tex.regions)
	assert.Equal(t, uint64(1), s.FrameStats().Overwritten)
}

func TestResize(t *testing.T) {
	s, eng, tc := newTestSession(t, WithSize(10, 10))
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	b.Paint(false, nil, px(10, 10), 10, 10)
	require.NoError(t, s.Tick())

	require.NoError(t, s.Resize(5, 6))
	assert.Equal(t, [][2]int{{5, 6}}, b.Resizes())
	assert.Equal(t, engine.Rect{Width: 5, Height: 6}, s.ViewRect())
	assert.Len(t, tc.textures, 1, "resize does not reallocate textures by itself")

	// A stale paint for the old size is dropped.
	b.Paint(false, nil, px(10, 10), 5, 6)
	assert.Equal(t, uint64(1), s.FrameStats().Dropped)

	b.Paint(false, nil, px(5, 6), 5, 6)
	require.NoError(t, s.Tick())
	require.Len(t, tc.textures, 2)
	assert.Equal(t, 5, tc.last().width)
	assert.Equal(t, 1, tc.textures[0].destroyed)

	// Growing again: a paint for the smaller size is dropped too.
	require.NoError(t, s.Resize(8, 8))
	b.Paint(false, nil, px(5, 6), 8, 8)
	assert.Equal(t, uint64(2), s.FrameStats().Dropped)

	assert.ErrorIs(t, s.Resize(0, 5), ErrInvalidDimensions)
}

func TestResizeBeforeCreate(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.Resize(800, 600))
	require.NoError(t, s.CreateImmediately(context.Background()))
	assert.Empty(t, browserOf(t, eng, 0).Resizes())
	assert.Equal(t, engine.Rect{Width: 800, Height: 600}, s.ViewRect())
}

func TestScreenInfo(t *testing.T) {
	s, _, _ := newTestSession(t, WithScaleFactor(2))
	info, ok := s.ScreenInfo()
	require.True(t, ok)
	assert.Equal(t, 2.0, info.ScaleFactor)
	assert.Equal(t, 32, info.Depth)
	assert.Equal(t, 8, info.DepthPerComponent)
	assert.Equal(t, engine.Rect{Width: 1, Height: 1}, info.Rect, "initial view is 1x1")
	assert.Equal(t, info.Rect, info.AvailableRect)

	require.NoError(t, s.Resize(3, 4))
	g := s.Geometry()
	assert.Equal(t, ColorDepth, g.Depth, "depth survives resize")
	assert.Equal(t, ColorDepthComponent, g.DepthPerComponent)

	assert.Equal(t, engine.Point{X: 7, Y: 9}, s.ScreenPoint(engine.Point{X: 7, Y: 9}))
	assert.True(t, s.OnCursorChange(3))
	assert.False(t, s.StartDragging(engine.DragData{Text: "x"}, 1, 0, 0))
	s.UpdateDragCursor(1)
}

func TestPopupHideForcesFullRedraw(t *testing.T) {
	s, eng, tc := newTestSession(t, WithSize(8, 8))
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	b.Paint(false, nil, px(8, 8), 8, 8)
	require.NoError(t, s.Tick())
	page := tc.last()

	s.OnPopupShow(true)
	s.OnPopupSize(engine.Rect{X: 1, Y: 1, Width: 2, Height: 2})
	b.Paint(true, nil, px(2, 2), 2, 2)
	require.NoError(t, s.Tick())
	require.Len(t, tc.textures, 2)

	s.OnPopupShow(false)
	assert.Equal(t, 1, b.Invalidates())

	b.Paint(false, []engine.Rect{{Width: 1, Height: 1}}, px(8, 8), 8, 8)
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, page.full)
	assert.Zero(t, page.regions)
}

func TestInjectKeys(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	// Key code 65 pressed with 'A', released with no character.
	s.InjectKeyPressedByKeyCode(gpucontext.Key(65), 'A', 0)
	s.InjectKeyReleasedByKeyCode(gpucontext.Key(65), 0, 0)
	s.InjectKeyTyped('A', 0)

	keys := b.KeyEvents()
	require.Len(t, keys, 3)
	assert.Equal(t, 'A', keys[1].Char)
	assert.Equal(t, int('A'), keys[1].KeyCode)
	assert.Equal(t, engine.KeyTyped, keys[2].Type)

	s.InjectMouseButton(1, 2, 0, engine.ButtonLeft, true, 1)
	s.InjectMouseWheel(1, 2, 0, 3, 1)
	assert.Len(t, b.MouseEvents(), 1)
	assert.Len(t, b.WheelEvents(), 1)
}

func TestScriptsAndSource(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)

	require.NoError(t, s.RunJS("alert(1)", "https://frame"))
	assert.Equal(t, []enginetest.Script{{Code: "alert(1)", FrameURL: "https://frame", Line: 0}}, b.Scripts())

	b.SetSource("<html></html>")
	var got string
	require.NoError(t, s.VisitSource(func(src string) { got = src }))
	assert.Equal(t, "<html></html>", got)

	assert.True(t, s.IsPageLoading())
	b.SetLoading(false)
	assert.False(t, s.IsPageLoading())
}

func TestScreenshotNotSupported(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Screenshot()
	assert.True(t, errors.Is(err, ErrNotSupported))
}

func TestOpenDevTools(t *testing.T) {
	reg := NewRegistry()
	s, eng, _ := newTestSession(t, WithTransparent(true), WithRegistry(reg))

	_, err := s.OpenDevTools(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotCreated, "parent must exist first")
	assert.Equal(t, 1, reg.Len(), "failed child is unregistered")

	require.NoError(t, s.CreateImmediately(context.Background()))
	at := &engine.Point{X: 4, Y: 5}
	child, err := s.OpenDevTools(context.Background(), at)
	require.NoError(t, err)

	assert.Same(t, s, child.Parent())
	assert.Equal(t, StateCreated, child.State())
	db := browserOf(t, eng, 1)
	assert.Same(t, browserOf(t, eng, 0), db.Parent)
	assert.Equal(t, at, db.InspectAt)
	assert.True(t, db.Request.Transparent, "devtools inherit transparency")
	assert.Equal(t, 2, reg.Len())
}

func TestOnPaintAfterClose(t *testing.T) {
	s, eng, _ := newTestSession(t)
	require.NoError(t, s.CreateImmediately(context.Background()))
	b := browserOf(t, eng, 0)
	require.NoError(t, s.Close())

	b.Paint(false, nil, px(1, 1), 1, 1)
	assert.Zero(t, s.FrameStats().Submitted)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
