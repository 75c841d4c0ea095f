package levels

import (
	"image/color"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/palette"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/world"
)

var (
	labelColor       = palette.CGA[palette.LightGray]
	placeholderColor = palette.CGA[palette.DarkGray]
	orbitColor       = palette.Alpha(palette.CGA[palette.DarkGray], 160)
)

// presenceColor returns the ring drawn around a tagged child.
func presenceColor(p world.Presence) (color.RGBA, bool) {
	switch p {
	case world.PresenceHome:
		return palette.CGA[palette.LightGreen], true
	case world.PresenceBase:
		return palette.CGA[palette.LightCyan], true
	case world.PresenceOccupied:
		return palette.CGA[palette.Yellow], true
	case world.PresenceContested:
		return palette.CGA[palette.LightRed], true // hostile and friendly both present
	default:
		return color.RGBA{}, false
	}
}

func starColor(t world.StarType) color.RGBA {
	switch t {
	case world.StarRed:
		return palette.CGA[palette.LightRed]
	case world.StarBlue:
		return palette.CGA[palette.LightBlue]
	case world.StarWhite:
		return palette.CGA[palette.White]
	case world.StarOrange:
		return palette.CGA[palette.Brown]
	default:
		return palette.CGA[palette.Yellow]
	}
}

func bodyColor(k world.BodyKind) color.RGBA {
	switch k {
	case world.BodyTerrestrial:
		return palette.CGA[palette.Green]
	case world.BodyGasGiant:
		return palette.CGA[palette.Brown]
	case world.BodyIce:
		return palette.CGA[palette.LightCyan]
	case world.BodyVolcanic:
		return palette.CGA[palette.Red]
	case world.BodyStation:
		return palette.CGA[palette.LightGray]
	default:
		return palette.CGA[palette.DarkGray] // barren rock
	}
}

// withPresence appends the presence ring, if any, outside radius r.
func withPresence(f scene.Figure, p world.Presence, r float64) scene.Figure {
	clr, ok := presenceColor(p)
	if !ok {
		return f
	}
	return append(f, scene.Shape{Kind: scene.ShapeRing, Radius: r + 4, StrokeWidth: 2, Color: clr})
}

func galaxyFigure(c child, r float64) scene.Figure {
	f := scene.Figure{
		{Kind: scene.ShapeCircle, Radius: r * 0.6, Color: palette.Alpha(palette.CGA[palette.Magenta], 120)},
		{Kind: scene.ShapeCircle, Radius: r * 0.35, Color: palette.Alpha(palette.CGA[palette.LightMagenta], 200)},
		{Kind: scene.ShapeCircle, Radius: r * 0.12, Color: palette.CGA[palette.White]},
	}
	return withPresence(f, c.presence, r*0.6)
}

func regionFigure(c child, r float64) scene.Figure {
	// Denser regions get a larger core.
	fill := min(float64(c.count), 20) / 20
	f := scene.Figure{
		{Kind: scene.ShapeRing, Radius: r * 0.6, StrokeWidth: 1, Color: palette.CGA[palette.Cyan]},
		{Kind: scene.ShapeCircle, Radius: 2 + fill*r*0.4, Color: palette.CGA[palette.LightCyan]},
	}
	return withPresence(f, c.presence, r*0.6)
}

func systemFigure(c child, r float64) scene.Figure {
	radius := min(4+float64(c.count), r*0.8)
	f := scene.Figure{
		{Kind: scene.ShapeCircle, Radius: radius * 1.8, Color: palette.Alpha(starColor(c.star), 50)},
		{Kind: scene.ShapeCircle, Radius: radius, Color: starColor(c.star)},
	}
	return withPresence(f, c.presence, radius*1.8)
}

func bodyRadius(c child) float64 {
	if c.body == world.BodyStation {
		return 4
	}
	return 4 + 2*float64(max(c.size, 0))
}

func bodyFigure(c child) scene.Figure {
	r := bodyRadius(c)
	var f scene.Figure
	if c.body == world.BodyStation {
		f = scene.Figure{{Kind: scene.ShapeRect, Offset: geom.Pt(-r, -r), Width: 2 * r, Height: 2 * r, Color: bodyColor(c.body)}}
	} else {
		f = scene.Figure{{Kind: scene.ShapeCircle, Radius: r, Color: bodyColor(c.body)}}
	}
	return withPresence(f, c.presence, r)
}

func placeholderFigure(r float64) scene.Figure {
	return scene.Figure{{Kind: scene.ShapeRing, Radius: r, StrokeWidth: 1, Color: placeholderColor}}
}

func starGlow(t world.StarType) color.RGBA {
	return palette.Alpha(starColor(t), 60)
}
