package osr

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/osr/engine"
)

// InjectMouseMove moves the pointer to (x, y) in view pixels. left
// reports that the primary button is held. The move is also replayed on
// every Tick until the next one.
func (s *Session) InjectMouseMove(x, y int, mods engine.Flags, left bool) {
	s.router.MouseMove(x, y, mods, left)
}

// InjectMouseButton presses or releases a mouse button.
func (s *Session) InjectMouseButton(x, y int, mods engine.Flags, button engine.MouseButton, pressed bool, clicks int) {
	s.router.MouseButton(x, y, mods, button, pressed, clicks)
}

// InjectKeyTyped delivers a typed character.
func (s *Session) InjectKeyTyped(char rune, mods engine.Flags) {
	s.router.KeyTyped(char, mods)
}

// InjectKeyPressedByKeyCode delivers a key-down for a host key.
func (s *Session) InjectKeyPressedByKeyCode(key gpucontext.Key, char rune, mods engine.Flags) {
	s.router.KeyPressed(key, char, mods)
}

// InjectKeyReleasedByKeyCode delivers a key-up for a host key. Hosts that
// do not know the character on release may pass NUL.
func (s *Session) InjectKeyReleasedByKeyCode(key gpucontext.Key, char rune, mods engine.Flags) {
	s.router.KeyReleased(key, char, mods)
}

// InjectMouseWheel scrolls by rotation notches of amount units. Positive
// rotation scrolls down.
func (s *Session) InjectMouseWheel(x, y int, mods engine.Flags, amount, rotation int) {
	s.router.Wheel(x, y, mods, amount, rotation)
}

// sessionSink is the router's destination. It creates the engine browser
// on the first routed event.
type sessionSink struct {
	s *Session
}

func (k sessionSink) browser() engine.Browser {
	b, err := k.s.createIfRequired()
	if err != nil {
		if !errors.Is(err, ErrClosed) {
			Logger().Warn("osr: input dropped", "session", k.s.id, "err", err)
		}
		return nil
	}
	return b
}

func (k sessionSink) SendMouseEvent(ev engine.MouseEvent) {
	if b := k.browser(); b != nil {
		b.SendMouseEvent(ev)
	}
}

func (k sessionSink) SendKeyEvent(ev engine.KeyEvent) {
	if b := k.browser(); b != nil {
		b.SendKeyEvent(ev)
	}
}

func (k sessionSink) SendMouseWheelEvent(ev engine.WheelEvent) {
	if b := k.browser(); b != nil {
		b.SendMouseWheelEvent(ev)
	}
}
