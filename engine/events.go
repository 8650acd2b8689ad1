package engine

// Flags is the engine's modifier and button-state bitmask.
type Flags uint32

// Flag bits. Values match the engine's native event flag layout.
const (
	FlagCapsLockOn Flags = 1 << iota
	FlagShiftDown
	FlagControlDown
	FlagAltDown
	FlagLeftMouseButton
	FlagMiddleMouseButton
	FlagRightMouseButton
	FlagCommandDown
	FlagNumLockOn
)

// Has reports whether all bits of f are set in flags.
func (flags Flags) Has(f Flags) bool {
	return flags&f == f
}

// MouseEventType distinguishes mouse events.
type MouseEventType uint8

// Mouse event types.
const (
	MouseMoved MouseEventType = iota
	MousePressed
	MouseReleased
)

// String returns the event type name.
func (t MouseEventType) String() string {
	switch t {
	case MouseMoved:
		return "moved"
	case MousePressed:
		return "pressed"
	case MouseReleased:
		return "released"
	}
	return "unknown"
}

// MouseButton identifies a mouse button.
type MouseButton uint8

// Mouse buttons.
const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// MouseEvent is a mouse move or button event in view coordinates.
type MouseEvent struct {
	Type       MouseEventType
	X, Y       int
	Modifiers  Flags
	Button     MouseButton
	ClickCount int
}

// KeyEventType distinguishes key events.
type KeyEventType uint8

// Key event types.
const (
	// KeyTyped carries a character and no key code.
	KeyTyped KeyEventType = iota
	KeyPressed
	KeyReleased
)

// String returns the event type name.
func (t KeyEventType) String() string {
	switch t {
	case KeyTyped:
		return "typed"
	case KeyPressed:
		return "pressed"
	case KeyReleased:
		return "released"
	}
	return "unknown"
}

// KeyEvent is a keyboard event.
//
// KeyCode is a Windows virtual-key code for control keys; for other keys it
// carries the character value. Char is the associated character, or 0.
type KeyEvent struct {
	Type      KeyEventType
	KeyCode   int
	Char      rune
	Modifiers Flags
}

// WheelLinePixels is the scroll distance of one wheel unit.
const WheelLinePixels = 40

// WheelEvent is a mouse wheel event. Amount is the number of units per
// notch and Rotation the number of notches; positive rotation scrolls
// towards the bottom of the page.
type WheelEvent struct {
	X, Y      int
	Modifiers Flags
	Amount    int
	Rotation  int
}

// DeltaY returns the vertical scroll distance in pixels.
func (e WheelEvent) DeltaY() float64 {
	return float64(e.Rotation*e.Amount) * WheelLinePixels
}

// CursorType identifies a cursor shape requested by the engine.
type CursorType int

// DragData describes content offered for a drag operation.
type DragData struct {
	URL      string
	Text     string
	Fragment string
}
