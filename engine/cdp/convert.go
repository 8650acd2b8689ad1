package cdp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // screencast frames
	_ "image/png"  // screencast frames and screenshots
	"math"

	"github.com/chromedp/cdproto/input"
	"golang.org/x/image/draw"

	"github.com/gogpu/osr/engine"
)

// modifiers maps engine flags to the protocol modifier mask.
func modifiers(f engine.Flags) input.Modifier {
	var m input.Modifier
	if f.Has(engine.FlagAltDown) {
		m |= input.ModifierAlt
	}
	if f.Has(engine.FlagControlDown) {
		m |= input.ModifierCtrl
	}
	if f.Has(engine.FlagCommandDown) {
		m |= input.ModifierMeta
	}
	if f.Has(engine.FlagShiftDown) {
		m |= input.ModifierShift
	}
	return m
}

// buttons returns the protocol "buttons" bitmask for the held mouse buttons.
func buttons(f engine.Flags) int64 {
	var b int64
	if f.Has(engine.FlagLeftMouseButton) {
		b |= 1
	}
	if f.Has(engine.FlagRightMouseButton) {
		b |= 2
	}
	if f.Has(engine.FlagMiddleMouseButton) {
		b |= 4
	}
	return b
}

func mouseType(t engine.MouseEventType) input.MouseType {
	switch t {
	case engine.MousePressed:
		return input.MousePressed
	case engine.MouseReleased:
		return input.MouseReleased
	default:
		return input.MouseMoved
	}
}

func mouseButton(b engine.MouseButton) input.MouseButton {
	switch b {
	case engine.ButtonLeft:
		return input.Left
	case engine.ButtonMiddle:
		return input.Middle
	case engine.ButtonRight:
		return input.Right
	default:
		return input.None
	}
}

func mouseParams(ev engine.MouseEvent) *input.DispatchMouseEventParams {
	p := input.DispatchMouseEvent(mouseType(ev.Type), float64(ev.X), float64(ev.Y)).
		WithModifiers(modifiers(ev.Modifiers)).
		WithButtons(buttons(ev.Modifiers))
	if ev.Type != engine.MouseMoved {
		p = p.WithButton(mouseButton(ev.Button)).WithClickCount(int64(max(ev.ClickCount, 1)))
	}
	return p
}

// keyParams encodes a key event. Pressed keys go out as rawKeyDown so the
// following typed event is the only one that inserts text.
func keyParams(ev engine.KeyEvent) *input.DispatchKeyEventParams {
	mods := modifiers(ev.Modifiers)
	switch ev.Type {
	case engine.KeyTyped:
		text := string(ev.Char)
		return input.DispatchKeyEvent(input.KeyChar).
			WithModifiers(mods).
			WithText(text).
			WithUnmodifiedText(text)
	case engine.KeyReleased:
		return input.DispatchKeyEvent(input.KeyUp).
			WithModifiers(mods).
			WithWindowsVirtualKeyCode(int64(ev.KeyCode)).
			WithKey(keyName(ev))
	default:
		return input.DispatchKeyEvent(input.KeyRawDown).
			WithModifiers(mods).
			WithWindowsVirtualKeyCode(int64(ev.KeyCode)).
			WithKey(keyName(ev))
	}
}

// keyName returns the DOM key value for printable characters. Control
// keys are identified by their virtual-key code alone.
func keyName(ev engine.KeyEvent) string {
	if ev.Char >= 0x20 && ev.Char != 0x7f {
		return string(ev.Char)
	}
	return ""
}

func wheelParams(ev engine.WheelEvent) *input.DispatchMouseEventParams {
	return input.DispatchMouseEvent(input.MouseWheel, float64(ev.X), float64(ev.Y)).
		WithModifiers(modifiers(ev.Modifiers)).
		WithDeltaX(0).
		WithDeltaY(ev.DeltaY())
}

// deviceSize returns the frame size in device pixels for a view.
func deviceSize(view engine.Rect, scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(float64(view.Width) * scale))
	h := int(math.Round(float64(view.Height) * scale))
	return max(w, 1), max(h, 1)
}

// decodeFrame decodes a base64 screencast frame.
func decodeFrame(data string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("cdp: frame base64: %w", err)
	}
	return decodeImage(raw)
}

func decodeImage(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cdp: frame decode: %w", err)
	}
	return img, nil
}

// toBGRA renders img into a tightly packed width x height BGRA buffer,
// scaling when the sizes differ. dst is reused when large enough.
func toBGRA(dst []byte, img image.Image, width, height int) []byte {
	size := width * height * 4
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	rgba := &image.RGBA{Pix: dst, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(rgba, rgba.Rect, img, b, draw.Src, nil)
	}

	for i := 0; i < size; i += 4 {
		dst[i], dst[i+2] = dst[i+2], dst[i]
	}
	return dst
}
