package input

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/osr/engine"
	"github.com/gogpu/osr/engine/enginetest"
)

// fakeSource records the callbacks registered by Attach.
type fakeSource struct {
	gpucontext.NullEventSource

	keyPress   func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease func(gpucontext.Key, gpucontext.Modifiers)
	text       func(string)
	move       func(x, y float64)
	press      func(gpucontext.MouseButton, float64, float64)
	release    func(gpucontext.MouseButton, float64, float64)
	scroll     func(dx, dy float64)
}

func (s *fakeSource) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers))   { s.keyPress = fn }
func (s *fakeSource) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { s.keyRelease = fn }
func (s *fakeSource) OnTextInput(fn func(string))                                { s.text = fn }
func (s *fakeSource) OnMouseMove(fn func(float64, float64))                      { s.move = fn }
func (s *fakeSource) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	s.press = fn
}
func (s *fakeSource) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	s.release = fn
}
func (s *fakeSource) OnScroll(fn func(float64, float64)) { s.scroll = fn }

func TestAttach(t *testing.T) {
	b := &enginetest.Browser{}
	r := NewRouter(b)
	src := &fakeSource{}
	r.Attach(src)

	src.move(12.7, 30.2)
	src.press(gpucontext.MouseButtonLeft, 12, 30)
	src.move(14, 31)
	src.release(gpucontext.MouseButtonLeft, 14, 31)
	src.press(gpucontext.MouseButton4, 14, 31)

	mouse := b.MouseEvents()
	require.Len(t, mouse, 4, "extra buttons are ignored")
	assert.Equal(t, engine.MouseEvent{Type: engine.MouseMoved, X: 12, Y: 30}, mouse[0])
	assert.Equal(t, engine.MousePressed, mouse[1].Type)
	assert.Equal(t, engine.ButtonLeft, mouse[1].Button)
	assert.Equal(t, 1, mouse[1].ClickCount)
	assert.True(t, mouse[2].Modifiers.Has(engine.FlagLeftMouseButton), "drag carries held button")
	assert.False(t, mouse[3].Modifiers.Has(engine.FlagLeftMouseButton))

	src.scroll(0, 2)
	src.scroll(0, 0.2)
	wheel := b.WheelEvents()
	require.Len(t, wheel, 1)
	assert.Equal(t, engine.WheelEvent{X: 14, Y: 31, Amount: WheelAmount, Rotation: -2}, wheel[0])

	src.keyPress(gpucontext.KeyQ, gpucontext.ModShift)
	src.text("Q")
	src.keyRelease(gpucontext.KeyQ, 0)
	keys := b.KeyEvents()
	require.Len(t, keys, 3)
	assert.Equal(t, engine.KeyEvent{Type: engine.KeyPressed, KeyCode: 'Q', Char: 'Q', Modifiers: engine.FlagShiftDown}, keys[0])
	assert.Equal(t, engine.KeyEvent{Type: engine.KeyTyped, Char: 'Q', Modifiers: engine.FlagShiftDown}, keys[1])
	assert.Equal(t, engine.KeyEvent{Type: engine.KeyReleased, KeyCode: 'Q', Char: 'Q'}, keys[2])
}

func TestFlags(t *testing.T) {
	tests := []struct {
		in   gpucontext.Modifiers
		want engine.Flags
	}{
		{0, 0},
		{gpucontext.ModShift, engine.FlagShiftDown},
		{gpucontext.ModControl | gpucontext.ModAlt, engine.FlagControlDown | engine.FlagAltDown},
		{gpucontext.ModSuper, engine.FlagCommandDown},
		{gpucontext.ModCapsLock | gpucontext.ModNumLock, engine.FlagCapsLockOn | engine.FlagNumLockOn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Flags(tt.in), "Flags(%d)", tt.in)
	}
}

func TestKeyChar(t *testing.T) {
	tests := []struct {
		name string
		key  gpucontext.Key
		mods gpucontext.Modifiers
		want rune
	}{
		{"lower", gpucontext.KeyC, 0, 'c'},
		{"shift", gpucontext.KeyC, gpucontext.ModShift, 'C'},
		{"caps", gpucontext.KeyC, gpucontext.ModCapsLock, 'C'},
		{"caps and shift", gpucontext.KeyC, gpucontext.ModCapsLock | gpucontext.ModShift, 'c'},
		{"digit", gpucontext.Key7, 0, '7'},
		{"shifted digit", gpucontext.Key1, gpucontext.ModShift, '!'},
		{"numpad", gpucontext.KeyNumpad4, 0, '4'},
		{"space", gpucontext.KeySpace, 0, ' '},
		{"enter", gpucontext.KeyEnter, 0, '\r'},
		{"arrow", gpucontext.KeyLeft, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyChar(tt.key, tt.mods))
		})
	}
}
