package levels

import (
	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/geom"
)

// Grid places addressable children on a Size x Size lattice that fills the
// screen minus Padding on every side. Child i sits in column i/Size, row
// i%Size; indices outside the lattice are not placed.
type Grid struct {
	Size    int
	Padding float64
}

// NewGrid returns the grid described by the layout config.
func NewGrid(cfg config.LayoutConfig) Grid {
	return Grid{Size: cfg.GridSize, Padding: cfg.Padding}
}

// Cells returns how many children the grid can hold.
func (g Grid) Cells() int { return g.Size * g.Size }

// Spacing returns the distance between neighboring cells on each axis for
// a w x h screen.
func (g Grid) Spacing(w, h float64) geom.Point {
	if g.Size < 2 {
		return geom.Point{}
	}
	n := float64(g.Size - 1)
	return geom.Pt(max(w-2*g.Padding, 0)/n, max(h-2*g.Padding, 0)/n)
}

// Position returns where child i goes, or false when i is outside the grid.
func (g Grid) Position(i int, w, h float64) (geom.Point, bool) {
	if i < 0 || i >= g.Cells() {
		return geom.Point{}, false
	}
	s := g.Spacing(w, h)
	return geom.Pt(
		g.Padding+float64(i/g.Size)*s.X,
		g.Padding+float64(i%g.Size)*s.Y,
	), true
}

// CellRadius is the largest radius a child can use without touching its
// neighbors.
func (g Grid) CellRadius(w, h float64) float64 {
	s := g.Spacing(w, h)
	return min(s.X, s.Y) / 2
}

// Placeholder returns the cells of an evenly spaced 3x3 lattice inside the
// grid. The result depends only on the grid size.
func (g Grid) Placeholder() []int {
	if g.Size < 3 {
		return []int{0}
	}
	step := g.Size / 3
	first := step / 2
	cells := make([]int, 0, 9)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			cells = append(cells, (first+col*step)*g.Size+first+row*step)
		}
	}
	return cells
}
