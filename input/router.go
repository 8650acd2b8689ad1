// Package input converts host input into engine events and forwards them
// to a browser.
package input

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/osr/engine"
	"github.com/gogpu/osr/keymap"
)

// Router forwards injected input to an engine.EventSink.
//
// It keeps the last mouse-move event and resends it on every Replay.
// Some pages only advance video and animation frames while they observe
// mouse activity, so the render loop replays the pointer once per tick.
//
// Router is safe for concurrent use.
type Router struct {
	mu       sync.Mutex
	sink     engine.EventSink
	keys     *keymap.Recovery
	lastMove engine.MouseEvent

	// host bridge state, see Attach
	hostX, hostY int
	hostMods     engine.Flags
	hostButtons  engine.Flags
}

// NewRouter creates a router forwarding to sink. sink may be nil until
// SetSink is called; events routed without a sink are discarded.
func NewRouter(sink engine.EventSink) *Router {
	return &Router{
		sink:     sink,
		keys:     keymap.NewRecovery(),
		lastMove: engine.MouseEvent{Type: engine.MouseMoved},
	}
}

// SetSink replaces the event destination.
func (r *Router) SetSink(sink engine.EventSink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

func (r *Router) target() engine.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}

// MouseMove moves the pointer to (x, y). left reports that the primary
// button is held.
func (r *Router) MouseMove(x, y int, mods engine.Flags, left bool) {
	if left {
		mods |= engine.FlagLeftMouseButton
	}
	ev := engine.MouseEvent{Type: engine.MouseMoved, X: x, Y: y, Modifiers: mods}
	r.mu.Lock()
	r.lastMove = ev
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink.SendMouseEvent(ev)
	}
}

// MouseButton presses or releases button at (x, y).
func (r *Router) MouseButton(x, y int, mods engine.Flags, button engine.MouseButton, pressed bool, clicks int) {
	typ := engine.MouseReleased
	if pressed {
		typ = engine.MousePressed
	}
	if sink := r.target(); sink != nil {
		sink.SendMouseEvent(engine.MouseEvent{
			Type:       typ,
			X:          x,
			Y:          y,
			Modifiers:  mods,
			Button:     button,
			ClickCount: clicks,
		})
	}
}

// KeyTyped delivers a character.
func (r *Router) KeyTyped(char rune, mods engine.Flags) {
	if sink := r.target(); sink != nil {
		sink.SendKeyEvent(engine.KeyEvent{Type: engine.KeyTyped, Char: char, Modifiers: mods})
	}
}

// KeyPressed delivers a key-down. A non-NUL char is remembered for the
// matching release.
func (r *Router) KeyPressed(key gpucontext.Key, char rune, mods engine.Flags) {
	r.keys.Remember(key, char)
	if sink := r.target(); sink != nil {
		sink.SendKeyEvent(engine.KeyEvent{
			Type:      engine.KeyPressed,
			KeyCode:   keymap.Translate(key, char),
			Char:      char,
			Modifiers: mods,
		})
	}
}

// KeyReleased delivers a key-up. A NUL char is replaced by the character
// remembered from the last press of key.
func (r *Router) KeyReleased(key gpucontext.Key, char rune, mods engine.Flags) {
	char = r.keys.Resolve(key, char)
	if sink := r.target(); sink != nil {
		sink.SendKeyEvent(engine.KeyEvent{
			Type:      engine.KeyReleased,
			KeyCode:   keymap.Translate(key, char),
			Char:      char,
			Modifiers: mods,
		})
	}
}

// Wheel scrolls by rotation notches of amount units at (x, y).
func (r *Router) Wheel(x, y int, mods engine.Flags, amount, rotation int) {
	if sink := r.target(); sink != nil {
		sink.SendMouseWheelEvent(engine.WheelEvent{
			X:         x,
			Y:         y,
			Modifiers: mods,
			Amount:    amount,
			Rotation:  rotation,
		})
	}
}

// Replay resends the last mouse-move event. Before any move it sends a
// move to (0, 0).
func (r *Router) Replay() {
	r.mu.Lock()
	ev := r.lastMove
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink.SendMouseEvent(ev)
	}
}

// LastMove returns the event Replay would send.
func (r *Router) LastMove() engine.MouseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMove
}
