package input

import (
	"math"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/osr/engine"
)

// WheelAmount is the number of scroll units per host wheel notch.
const WheelAmount = 1

// Attach subscribes the router to a gogpu host's input events.
//
// Pointer positions are truncated to whole view pixels. Key presses are
// forwarded with the character the key produces on a US layout, text
// input is forwarded as typed characters. Vertical scroll only.
func (r *Router) Attach(src gpucontext.EventSource) {
	src.OnMouseMove(func(x, y float64) {
		r.mu.Lock()
		r.hostX, r.hostY = int(x), int(y)
		mods := r.hostMods | r.hostButtons
		r.mu.Unlock()
		r.MouseMove(int(x), int(y), mods, false)
	})
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		r.hostButton(b, x, y, true)
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		r.hostButton(b, x, y, false)
	})
	src.OnScroll(func(_, dy float64) {
		// Hosts report positive dy for scrolling up.
		rot := -int(math.Round(dy))
		if rot == 0 {
			return
		}
		r.mu.Lock()
		x, y, mods := r.hostX, r.hostY, r.hostMods
		r.mu.Unlock()
		r.Wheel(x, y, mods, WheelAmount, rot)
	})
	src.OnKeyPress(func(k gpucontext.Key, m gpucontext.Modifiers) {
		mods := r.setHostMods(m)
		r.KeyPressed(k, KeyChar(k, m), mods)
	})
	src.OnKeyRelease(func(k gpucontext.Key, m gpucontext.Modifiers) {
		mods := r.setHostMods(m)
		r.KeyReleased(k, 0, mods)
	})
	src.OnTextInput(func(text string) {
		r.mu.Lock()
		mods := r.hostMods
		r.mu.Unlock()
		for _, c := range text {
			r.KeyTyped(c, mods)
		}
	})
}

func (r *Router) setHostMods(m gpucontext.Modifiers) engine.Flags {
	f := Flags(m)
	r.mu.Lock()
	r.hostMods = f
	r.mu.Unlock()
	return f
}

func (r *Router) hostButton(b gpucontext.MouseButton, x, y float64, pressed bool) {
	btn, flag, ok := Button(b)
	if !ok {
		return
	}
	r.mu.Lock()
	r.hostX, r.hostY = int(x), int(y)
	if pressed {
		r.hostButtons |= flag
	} else {
		r.hostButtons &^= flag
	}
	mods := r.hostMods | r.hostButtons
	r.mu.Unlock()
	r.MouseButton(int(x), int(y), mods, btn, pressed, 1)
}

// Flags converts host modifiers to engine flags.
func Flags(m gpucontext.Modifiers) engine.Flags {
	var f engine.Flags
	if m.HasShift() {
		f |= engine.FlagShiftDown
	}
	if m.HasControl() {
		f |= engine.FlagControlDown
	}
	if m.HasAlt() {
		f |= engine.FlagAltDown
	}
	if m.HasSuper() {
		f |= engine.FlagCommandDown
	}
	if m&gpucontext.ModCapsLock != 0 {
		f |= engine.FlagCapsLockOn
	}
	if m&gpucontext.ModNumLock != 0 {
		f |= engine.FlagNumLockOn
	}
	return f
}

// Button converts a host mouse button to the engine button and its
// held-button flag. Extra buttons are not supported.
func Button(b gpucontext.MouseButton) (engine.MouseButton, engine.Flags, bool) {
	switch b {
	case gpucontext.MouseButtonLeft:
		return engine.ButtonLeft, engine.FlagLeftMouseButton, true
	case gpucontext.MouseButtonMiddle:
		return engine.ButtonMiddle, engine.FlagMiddleMouseButton, true
	case gpucontext.MouseButtonRight:
		return engine.ButtonRight, engine.FlagRightMouseButton, true
	}
	return engine.ButtonNone, 0, false
}

// KeyChar returns the character key produces on a US layout, or NUL for
// keys without one.
func KeyChar(k gpucontext.Key, m gpucontext.Modifiers) rune {
	upper := m.HasShift() != (m&gpucontext.ModCapsLock != 0)
	switch {
	case k >= gpucontext.KeyA && k <= gpucontext.KeyZ:
		if upper {
			return 'A' + rune(k-gpucontext.KeyA)
		}
		return 'a' + rune(k-gpucontext.KeyA)
	case k >= gpucontext.Key0 && k <= gpucontext.Key9:
		if m.HasShift() {
			return rune(")!@#$%^&*("[k-gpucontext.Key0])
		}
		return '0' + rune(k-gpucontext.Key0)
	case k >= gpucontext.KeyNumpad0 && k <= gpucontext.KeyNumpad9:
		return '0' + rune(k-gpucontext.KeyNumpad0)
	}
	switch k {
	case gpucontext.KeySpace:
		return ' '
	case gpucontext.KeyEnter, gpucontext.KeyNumpadEnter:
		return '\r'
	case gpucontext.KeyTab:
		return '\t'
	case gpucontext.KeyBackspace:
		return '\b'
	case gpucontext.KeyEscape:
		return 0x1b
	}
	return 0
}
