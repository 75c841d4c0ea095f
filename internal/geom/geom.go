// Package geom holds the 2D value types shared by the camera, the level
// renderers and the entity overlay.
package geom

import "math"

// Point is a position in either screen pixels or world units.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Lerp interpolates linearly from p to q; t=0 yields p, t=1 yields q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned rectangle. Min is the top-left corner.
type Rect struct {
	Min, Max Point
}

// R builds a rectangle from two corners in any order.
func R(x0, y0, x1, y1 float64) Rect {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Rect{Min: Point{x0, y0}, Max: Point{x1, y1}}
}

// Contains reports whether p lies inside r. Edges are inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Transform maps world units to screen pixels: screen = world*Scale + Pan.
// The camera and the ebiten backend both go through these two methods so
// picking and drawing never disagree.
type Transform struct {
	Pan   Point
	Scale float64
}

// Identity is the transform with no pan and unit scale.
var Identity = Transform{Scale: 1}

// ScreenToWorld converts a screen pixel to world units.
func (t Transform) ScreenToWorld(s Point) Point {
	return Point{(s.X - t.Pan.X) / t.Scale, (s.Y - t.Pan.Y) / t.Scale}
}

// WorldToScreen converts world units to a screen pixel.
func (t Transform) WorldToScreen(w Point) Point {
	return Point{w.X*t.Scale + t.Pan.X, w.Y*t.Scale + t.Pan.Y}
}

// Lerp interpolates pan and scale independently.
func (t Transform) Lerp(to Transform, k float64) Transform {
	return Transform{
		Pan:   t.Pan.Lerp(to.Pan, k),
		Scale: t.Scale + (to.Scale-t.Scale)*k,
	}
}
