package osr

import "github.com/gogpu/osr/engine"

// Reported color depth. Frames are always 32-bit BGRA.
const (
	ColorDepth          = 32
	ColorDepthComponent = 8
)

// ViewGeometry is the size of a browser view. The origin is always (0, 0).
// Depth and DepthPerComponent are fixed at ColorDepth and
// ColorDepthComponent.
type ViewGeometry struct {
	Width             int
	Height            int
	ScaleFactor       float64
	Depth             int
	DepthPerComponent int
}

func defaultGeometry() ViewGeometry {
	return ViewGeometry{
		Width:             1,
		Height:            1,
		ScaleFactor:       1,
		Depth:             ColorDepth,
		DepthPerComponent: ColorDepthComponent,
	}
}

// Rect returns the view rectangle.
func (g ViewGeometry) Rect() engine.Rect {
	return engine.Rect{Width: g.Width, Height: g.Height}
}

// ScreenInfo returns the screen description reported to the engine. The
// view rectangle doubles as the available rectangle.
func (g ViewGeometry) ScreenInfo() engine.ScreenInfo {
	r := g.Rect()
	return engine.ScreenInfo{
		ScaleFactor:       g.ScaleFactor,
		Depth:             g.Depth,
		DepthPerComponent: g.DepthPerComponent,
		Rect:              r,
		AvailableRect:     r,
	}
}
