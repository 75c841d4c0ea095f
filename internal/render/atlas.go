package render

import (
	"image"
	"image/color"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	GlyphWidth  = 8
	GlyphHeight = 14
	AtlasCols   = 16
	firstGlyph  = 32
	lastGlyph   = 126
	numGlyphs   = lastGlyph - firstGlyph + 1
	AtlasRows   = (numGlyphs + AtlasCols - 1) / AtlasCols
)

// Atlas holds the label glyph atlas and cached sub-images, one per
// printable ASCII character.
type Atlas struct {
	image  *ebiten.Image
	glyphs [numGlyphs]*ebiten.Image
}

// NewAtlas builds the glyph atlas. Call it once at startup.
func NewAtlas() *Atlas {
	eimg := ebiten.NewImageFromImage(buildAtlasImage())
	a := &Atlas{image: eimg}
	for i := range a.glyphs {
		a.glyphs[i] = eimg.SubImage(glyphRect(i)).(*ebiten.Image)
	}
	return a
}

// Glyph returns the cached sub-image for r. Characters outside printable
// ASCII draw as '?'.
func (a *Atlas) Glyph(r rune) *ebiten.Image {
	return a.glyphs[glyphIndex(r)]
}

// TextWidth is the width in pixels of s drawn at scale 1.
func TextWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s) * GlyphWidth)
}

func glyphIndex(r rune) int {
	if r < firstGlyph || r > lastGlyph {
		r = '?'
	}
	return int(r - firstGlyph)
}

func glyphRect(i int) image.Rectangle {
	x := (i % AtlasCols) * GlyphWidth
	y := (i / AtlasCols) * GlyphHeight
	return image.Rect(x, y, x+GlyphWidth, y+GlyphHeight)
}

// buildAtlasImage renders every printable ASCII character with
// basicfont.Face7x13, white on transparent, one per cell.
func buildAtlasImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, AtlasCols*GlyphWidth, AtlasRows*GlyphHeight))
	face := basicfont.Face7x13
	for i := 0; i < numGlyphs; i++ {
		cell := glyphRect(i)
		drawFontGlyph(img, face, cell.Min.X, cell.Min.Y, rune(firstGlyph+i))
	}
	return img
}

// drawFontGlyph renders a single character into the atlas. Face7x13 glyphs
// are 7x13; the baseline sits at y+11 so descenders stay in the cell.
func drawFontGlyph(img *image.NRGBA, face font.Face, cellX, cellY int, r rune) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(cellX, cellY+11),
	}
	d.DrawString(string(r))
}
