package osr

import (
	"errors"

	"github.com/gogpu/osr/engine"
	"github.com/gogpu/osr/internal/staging"
)

var _ engine.RenderHandler = (*Session)(nil)

// ViewRect implements engine.RenderHandler.
func (s *Session) ViewRect() engine.Rect {
	return s.Geometry().Rect()
}

// ScreenPoint implements engine.RenderHandler. The view sits at the
// screen origin.
func (s *Session) ScreenPoint(view engine.Point) engine.Point {
	r := s.ViewRect()
	return view.Add(engine.Point{X: r.X, Y: r.Y})
}

// ScreenInfo implements engine.RenderHandler.
func (s *Session) ScreenInfo() (engine.ScreenInfo, bool) {
	return s.Geometry().ScreenInfo(), true
}

// OnPopupShow implements engine.RenderHandler. Hiding the popup clears
// its rectangle and asks the engine to repaint the page underneath.
func (s *Session) OnPopupShow(show bool) {
	if show {
		return
	}
	s.comp.ClearPopup()
	if b := s.handle(); b != nil {
		b.Invalidate()
	}
}

// OnPopupSize implements engine.RenderHandler.
func (s *Session) OnPopupSize(r engine.Rect) {
	s.comp.SetPopupRect(r)
}

// OnPaint implements engine.RenderHandler. The frame is copied into the
// staging buffer and uploaded on the next Tick.
func (s *Session) OnPaint(popup bool, dirty []engine.Rect, pixels []byte, width, height int) {
	if s.State() >= StateClosing {
		return
	}
	err := s.staging.Submit(pixels, width, height, dirty, popup)
	if err != nil && !errors.Is(err, staging.ErrOversized) && !errors.Is(err, staging.ErrUndersized) {
		Logger().Debug("osr: paint rejected", "session", s.id, "err", err)
	}
}

// OnCursorChange implements engine.RenderHandler. Cursor changes are
// always reported as handled.
func (s *Session) OnCursorChange(engine.CursorType) bool {
	return true
}

// StartDragging implements engine.RenderHandler. Drag and drop is not
// supported; the drag is cancelled.
func (s *Session) StartDragging(engine.DragData, int, int, int) bool {
	return false
}

// UpdateDragCursor implements engine.RenderHandler.
func (s *Session) UpdateDragCursor(int) {}
