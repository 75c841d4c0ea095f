package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/scene"
)

// DrawText renders s with its top-left corner at screen pixel (x, y),
// one atlas glyph per character.
func DrawText(dst *ebiten.Image, atlas *Atlas, s string, x, y float64, clr color.Color) {
	var op ebiten.DrawImageOptions
	px := x
	for _, r := range s {
		if r != ' ' {
			op = ebiten.DrawImageOptions{}
			op.GeoM.Translate(px, y)
			op.ColorScale.ScaleWithColor(clr)
			dst.DrawImage(atlas.Glyph(r), &op)
		}
		px += GlyphWidth
	}
}

// FillRect paints a screen-space rectangle, used for backgrounds behind
// text.
func FillRect(dst *ebiten.Image, x, y, w, h float64, clr color.Color) {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), clr, false)
}

// drawFigure paints f with its origin at world point at.
func drawFigure(dst *ebiten.Image, f scene.Figure, at geom.Point, t geom.Transform) {
	for _, s := range f {
		p := t.WorldToScreen(at.Add(s.Offset))
		x, y := float32(p.X), float32(p.Y)
		stroke := float32(max(s.StrokeWidth*t.Scale, 1))
		switch s.Kind {
		case scene.ShapeCircle:
			r := float32(s.Radius * t.Scale)
			if s.StrokeWidth > 0 {
				vector.StrokeCircle(dst, x, y, r, stroke, s.Color, true)
				continue
			}
			vector.DrawFilledCircle(dst, x, y, r, s.Color, true)
		case scene.ShapeRing:
			vector.StrokeCircle(dst, x, y, float32(s.Radius*t.Scale), stroke, s.Color, true)
		case scene.ShapeRect:
			w, h := float32(s.Width*t.Scale), float32(s.Height*t.Scale)
			if s.StrokeWidth > 0 {
				vector.StrokeRect(dst, x, y, w, h, stroke, s.Color, false)
				continue
			}
			vector.DrawFilledRect(dst, x, y, w, h, s.Color, false)
		case scene.ShapeLine:
			q := t.WorldToScreen(at.Add(s.To))
			vector.StrokeLine(dst, x, y, float32(q.X), float32(q.Y), stroke, s.Color, true)
		}
	}
}
