package engine

// Point is a position in view coordinates.
type Point struct {
	X, Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is an axis-aligned rectangle in view pixels.
// (X, Y) is the top-left corner.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the largest rectangle contained by both r and s.
// The result is the zero Rect if they do not overlap.
func (r Rect) Intersect(s Rect) Rect {
	x0 := max(r.X, s.X)
	y0 := max(r.Y, s.Y)
	x1 := min(r.X+r.Width, s.X+s.Width)
	y1 := min(r.Y+r.Height, s.Y+s.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ScreenInfo is the answer to an engine's screen query.
type ScreenInfo struct {
	ScaleFactor       float64
	Depth             int
	DepthPerComponent int
	IsMonochrome      bool

	// Rect and AvailableRect are the view bounds. Off-screen embeddings
	// report the same rectangle for both.
	Rect          Rect
	AvailableRect Rect
}
