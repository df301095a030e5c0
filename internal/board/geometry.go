package board

import "math"

// Point is one pointer position in logical units (pixels or terminal cells).
type Point struct {
	X float64
	Y float64
}

// Sub returns the component-wise difference p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectAt returns a zero-size rectangle located at p.
func RectAt(p Point) Rect {
	return Rect{X: p.X, Y: p.Y}
}

// Corners returns top-left, top-right, bottom-left, bottom-right in that order.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X, Y: r.Y + r.H},
		{X: r.X + r.W, Y: r.Y + r.H},
	}
}

// Translate returns r moved by delta.
func (r Rect) Translate(delta Point) Rect {
	r.X += delta.X
	r.Y += delta.Y
	return r
}

// Contains reports whether p lies inside r; the right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// cornerScore averages the distances between corresponding corners and rounds to 4 decimals.
func cornerScore(a, b Rect) float64 {
	ac := a.Corners()
	bc := b.Corners()
	sum := 0.0
	for i := range ac {
		sum += Distance(ac[i], bc[i])
	}
	return math.Round(sum/4*1e4) / 1e4
}
