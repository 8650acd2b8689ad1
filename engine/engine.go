package engine

import (
	"context"
	"errors"
)

// Common errors returned by engine implementations.
var (
	// ErrBrowserClosed is returned when a closed browser handle is used.
	ErrBrowserClosed = errors.New("engine: browser is closed")

	// ErrEngineClosed is returned when creating browsers on a shut down engine.
	ErrEngineClosed = errors.New("engine: engine is closed")
)

// RenderHandler receives rendering callbacks from the engine.
//
// Callbacks may arrive on any goroutine. OnPaint in particular runs on the
// engine's paint goroutine concurrently with the host render loop.
type RenderHandler interface {
	// ViewRect returns the view bounds. The origin is always (0, 0).
	ViewRect() Rect

	// ScreenPoint converts a view point to screen coordinates.
	ScreenPoint(view Point) Point

	// ScreenInfo reports scale factor, depth and bounds.
	// The boolean result reports whether info was filled in.
	ScreenInfo() (ScreenInfo, bool)

	// OnPopupShow reports popup visibility changes.
	OnPopupShow(show bool)

	// OnPopupSize reports the popup location and size in view pixels.
	OnPopupSize(r Rect)

	// OnPaint delivers BGRA pixels, 4 bytes per pixel, row-major.
	// The buffer is only valid for the duration of the call.
	OnPaint(popup bool, dirty []Rect, pixels []byte, width, height int)

	// OnCursorChange reports a cursor change. Returning true marks the
	// change as handled.
	OnCursorChange(cursor CursorType) bool

	// StartDragging asks the embedder to start a drag operation.
	// Returning false cancels the drag.
	StartDragging(data DragData, allowedOps int, x, y int) bool

	// UpdateDragCursor reports the drag operation under the cursor.
	UpdateDragCursor(op int)
}

// EventSink accepts input events in engine encoding.
type EventSink interface {
	SendMouseEvent(ev MouseEvent)
	SendKeyEvent(ev KeyEvent)
	SendMouseWheelEvent(ev WheelEvent)
}

// Browser is a live engine browser handle.
type Browser interface {
	EventSink

	// WasResized notifies the engine that the view size changed.
	// The engine queries ViewRect for the new bounds.
	WasResized(width, height int)

	// Invalidate asks the engine to repaint the whole view.
	Invalidate()

	// SetFocus gives or removes input focus.
	SetFocus(focused bool)

	// Close closes the browser. With ignoreConfirmation the engine skips
	// in-page unload prompts.
	Close(ignoreConfirmation bool)

	// ExecuteJavaScript runs code in the frame identified by frameURL.
	// An empty frameURL targets the main frame.
	ExecuteJavaScript(code, frameURL string, line int)

	// GetSource delivers the main frame source to fn asynchronously.
	GetSource(fn func(source string))

	// IsLoading reports whether the main frame is loading.
	IsLoading() bool
}

// Request describes a browser to create.
type Request struct {
	URL         string
	Transparent bool

	// RequestContext is an engine-specific request context, or nil for
	// the engine default.
	RequestContext any

	// Handler receives rendering callbacks for the new browser.
	Handler RenderHandler
}

// Engine creates browser handles.
type Engine interface {
	// CreateBrowser creates a top-level off-screen browser.
	CreateBrowser(ctx context.Context, req Request) (Browser, error)

	// CreateDevTools creates a developer tools browser inspecting parent.
	// inspectAt selects the element under that view point, if any.
	CreateDevTools(ctx context.Context, parent Browser, req Request, inspectAt *Point) (Browser, error)
}
