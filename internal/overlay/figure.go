package overlay

import (
	"image/color"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/palette"
	"github.com/spacehole-rogue/starview/internal/scene"
)

// spreadRadius is how far entities sharing a system are fanned out around
// its center, in world units.
const spreadRadius = 18

// tierRadius is the entity size per tier, in world units. Low tier entities are drawn larger so
// they stay visible when zoomed far out.
func tierRadius(t Tier) float64 {
	switch t {
	case TierHigh, TierMedium:
		return 5
	default:
		return 12
	}
}

// hitRadius is how close a pointer must be to pick an entity.
func hitRadius(t Tier) float64 { return tierRadius(t) + 3 }

// entityFigure is the shape of one entity at tier t. High tier adds a
// heading ring, low tier is a bare square.
func entityFigure(t Tier, clr color.RGBA) scene.Figure {
	r := tierRadius(t)
	switch t {
	case TierHigh:
		return scene.Figure{
			{Kind: scene.ShapeCircle, Radius: r, Color: clr},
			{Kind: scene.ShapeRing, Radius: r + 3, StrokeWidth: 1, Color: palette.Alpha(clr, 140)},
			{Kind: scene.ShapeCircle, Radius: r * 0.35, Color: palette.CGA[palette.White]},
		}
	case TierMedium:
		return scene.Figure{{Kind: scene.ShapeCircle, Radius: r, Color: clr}}
	default:
		return scene.Figure{{Kind: scene.ShapeRect, Offset: geom.Pt(-r/2, -r/2), Width: r, Height: r, Color: clr}}
	}
}

// pathFigure draws a move order as a wide faint halo under a narrow bright
// core.
func pathFigure(from, to geom.Point, clr color.RGBA) scene.Figure {
	return scene.Figure{
		{Kind: scene.ShapeLine, Offset: from, To: to, StrokeWidth: 6, Color: palette.Alpha(clr, 48)},
		{Kind: scene.ShapeLine, Offset: from, To: to, StrokeWidth: 1.5, Color: clr},
	}
}

// spread returns a stable offset for an entity so several entities in the
// same system do not sit on top of each other.
func spread(id string) geom.Point {
	h := xxhash.Sum64String(id)
	angle := float64(h&0xffff) / 0x10000 * 2 * math.Pi
	dist := spreadRadius * (0.35 + 0.65*float64(h>>16&0xffff)/0xffff)
	return geom.Pt(math.Cos(angle)*dist, math.Sin(angle)*dist)
}
