package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spacehole-rogue/starview/internal/geom"
)

// Draw paints the scene through the viewport's current transform. Child
// positions are offsets from their parent.
func (b *Backend) Draw(screen *ebiten.Image) {
	t := b.viewport.Transform()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.drawLocked(screen, b.root, geom.Point{}, t)
}

func (b *Backend) drawLocked(screen *ebiten.Image, n *node, parent geom.Point, t geom.Transform) {
	if !n.visible {
		return
	}
	at := parent.Add(n.pos)
	switch n.kind {
	case kindContainer:
		for _, c := range n.children {
			b.drawLocked(screen, c, at, t)
		}
	case kindShape:
		drawFigure(screen, n.figure, at, t)
	case kindLabel:
		if b.atlas == nil || n.text == "" {
			return
		}
		p := t.WorldToScreen(at)
		DrawText(screen, b.atlas, n.text, p.X-TextWidth(n.text)/2, p.Y, n.color)
	case kindSprite:
		if n.tex == nil || n.tex.disposed {
			return
		}
		p := t.WorldToScreen(at.Add(n.tex.origin))
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(t.Scale, t.Scale)
		op.GeoM.Translate(p.X, p.Y)
		screen.DrawImage(n.tex.img, &op)
	}
}
