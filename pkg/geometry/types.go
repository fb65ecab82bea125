// Package geometry provides the integer geometric types shared by the
// segmentation packages.
//
// Coordinates follow image convention throughout: X is the column, Y is the
// row, and Y grows downward.
package geometry

import (
	"image"
	"math"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for PointInt{X: x, Y: y}.
func Pt(x, y int) PointInt {
	return PointInt{X: x, Y: y}
}

// Less orders points by X, then Y.
func (p PointInt) Less(other PointInt) bool {
	if p.X != other.X {
		return p.X < other.X
	}
	return p.Y < other.Y
}

// RectInt represents a rectangle with integer coordinates.
// The rectangle covers columns [X, X+Width) and rows [Y, Y+Height).
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImageRect converts an image.Rectangle.
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Corners builds a rectangle from two opposite corners (x1,y1) and (x2,y2).
func Corners(x1, y1, x2, y2 int) RectInt {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// ImageRect converts to an image.Rectangle.
func (r RectInt) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Right returns the exclusive right edge.
func (r RectInt) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r RectInt) Bottom() int { return r.Y + r.Height }

// Area returns Width*Height, or 0 for an empty rectangle.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle has no positive extent.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Translate returns the rectangle moved by (dx, dy).
func (r RectInt) Translate(dx, dy int) RectInt {
	r.X += dx
	r.Y += dy
	return r
}

// Intersect returns the largest rectangle contained in both r and other.
// The result is the zero RectInt if they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.Right(), other.Right())
	y2 := min(r.Bottom(), other.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return RectInt{}
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// OverlapArea returns the area shared by r and other.
func (r RectInt) OverlapArea(other RectInt) int {
	return r.Intersect(other).Area()
}

// OverlapFraction returns the shared area as a fraction of r's own area.
// It is not symmetric.
func (r RectInt) OverlapFraction(other RectInt) float64 {
	a := r.Area()
	if a == 0 {
		return 0
	}
	return float64(r.OverlapArea(other)) / float64(a)
}

// Within reports whether r lies entirely inside bounds.
func (r RectInt) Within(bounds RectInt) bool {
	return r.X >= bounds.X && r.Y >= bounds.Y &&
		r.Right() <= bounds.Right() && r.Bottom() <= bounds.Bottom()
}

// AspectRatio returns Width/Height, or 0 when Height is 0.
func (r RectInt) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Segment is a straight line segment between two integer endpoints.
type Segment struct {
	P0 PointInt `json:"p0"`
	P1 PointInt `json:"p1"`
}

// Seg is shorthand for a segment from (x0,y0) to (x1,y1).
func Seg(x0, y0, x1, y1 int) Segment {
	return Segment{P0: Pt(x0, y0), P1: Pt(x1, y1)}
}

// Angle returns the absolute inclination of the segment in degrees, in
// [0, 90]. Horizontal segments are 0, vertical segments are exactly 90.
func (s Segment) Angle() float64 {
	dx := s.P1.X - s.P0.X
	dy := s.P1.Y - s.P0.Y
	if dx == 0 {
		return 90
	}
	return math.Abs(math.Atan(float64(dy)/float64(dx))) * 180 / math.Pi
}

// Length returns the Chebyshev length max(|dx|, |dy|).
func (s Segment) Length() int {
	return max(abs(s.P1.X-s.P0.X), abs(s.P1.Y-s.P0.Y))
}

// Canonical returns the segment with endpoints ordered so that P0 <= P1.
func (s Segment) Canonical() Segment {
	if s.P1.Less(s.P0) {
		s.P0, s.P1 = s.P1, s.P0
	}
	return s
}

// Less orders segments by P0, then P1.
func (s Segment) Less(other Segment) bool {
	if s.P0 != other.P0 {
		return s.P0.Less(other.P0)
	}
	return s.P1.Less(other.P1)
}

// Bounds returns the bounding segment of s and other: from the minimum
// corner to the maximum corner of both.
func (s Segment) Bounds(other Segment) Segment {
	return Segment{
		P0: Pt(min(s.P0.X, s.P1.X, other.P0.X, other.P1.X), min(s.P0.Y, s.P1.Y, other.P0.Y, other.P1.Y)),
		P1: Pt(max(s.P0.X, s.P1.X, other.P0.X, other.P1.X), max(s.P0.Y, s.P1.Y, other.P0.Y, other.P1.Y)),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
