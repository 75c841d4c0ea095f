// Package scene is the contract between the view core and a rendering
// backend: a retained tree of containers, vector shapes, labels and
// stamped sprites, plus a viewport that owns pan/zoom animation.
//
// Every position handed to a node is in world units. The backend applies
// the viewport transform when drawing.
package scene

import (
	"image/color"

	"github.com/spacehole-rogue/starview/internal/geom"
)

// Node is one element of the scene tree. Positions are offsets from the parent.
type Node interface {
	SetPosition(p geom.Point)
	Position() geom.Point
	SetVisible(v bool)
	Visible() bool
	SetInteractive(v bool)
	Interactive() bool
	// Destroy detaches the node from its parent and releases what it owns.
	// Calling it twice is harmless.
	Destroy()
}

// Container is a node with children.
type Container interface {
	Node
	AddChild(n Node)
	RemoveChild(n Node)
	// RemoveChildren detaches and destroys every child.
	RemoveChildren()
	Children() []Node
}

// ShapeKind selects the primitive a Shape draws.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRing
	ShapeRect
	ShapeLine
)

// Shape is one vector primitive, relative to its node's origin.
//
//	Circle, Ring: centered on Offset with Radius
//	Rect:         top-left at Offset, Width x Height
//	Line:         from Offset to To
type Shape struct {
	Kind        ShapeKind
	Offset      geom.Point
	To          geom.Point
	Radius      float64
	Width       float64
	Height      float64
	StrokeWidth float64
	Color       color.RGBA
}

// Figure is a vector drawing made of primitives, painted in order.
type Figure []Shape

// Bounds returns the smallest rectangle covering every primitive.
func (f Figure) Bounds() geom.Rect {
	if len(f) == 0 {
		return geom.Rect{}
	}
	var r geom.Rect
	for i, s := range f {
		var b geom.Rect
		switch s.Kind {
		case ShapeCircle, ShapeRing:
			pad := s.Radius + s.StrokeWidth/2
			b = geom.R(s.Offset.X-pad, s.Offset.Y-pad, s.Offset.X+pad, s.Offset.Y+pad)
		case ShapeRect:
			b = geom.R(s.Offset.X, s.Offset.Y, s.Offset.X+s.Width, s.Offset.Y+s.Height)
		case ShapeLine:
			b = geom.R(s.Offset.X, s.Offset.Y, s.To.X, s.To.Y)
			half := s.StrokeWidth / 2
			b.Min = b.Min.Sub(geom.Pt(half, half))
			b.Max = b.Max.Add(geom.Pt(half, half))
		}
		if i == 0 {
			r = b
			continue
		}
		r = geom.R(min(r.Min.X, b.Min.X), min(r.Min.Y, b.Min.Y), max(r.Max.X, b.Max.X), max(r.Max.Y, b.Max.Y))
	}
	return r
}

// Texture is a cached raster built once from a Figure and drawn many
// times through sprites.
type Texture interface {
	// Dispose releases the raster. Sprites still using it draw nothing.
	Dispose()
}

// Viewport owns the world-to-screen transform. Animated changes are
// interpolated by the backend; Transform always reports the current,
// possibly mid-animation, state.
type Viewport interface {
	Transform() geom.Transform
	SetTransform(t geom.Transform, animate bool)
	// Target is where the running animation ends, or the current
	// transform when none runs.
	Target() geom.Transform
	Animating() bool
	Size() (w, h float64)
	Resize(w, h float64)
}

// Backend creates nodes for one live scene. A host that recreates its
// backend must Close the old one; nodes of a closed backend ignore calls.
type Backend interface {
	Root() Container
	NewContainer() Container
	NewShape(f Figure) Node
	NewLabel(text string, clr color.RGBA) Node
	// NewStamp rasterizes f into a reusable texture.
	NewStamp(f Figure) (Texture, error)
	NewSprite(t Texture) Node
	Viewport() Viewport
	Closed() bool
	Close()
}
