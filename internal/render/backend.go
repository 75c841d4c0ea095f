// Package render is the ebiten implementation of the scene contract: a
// retained node tree drawn with vector primitives, stamps rasterized into
// ebiten images, and a viewport that animates pan and zoom.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/scene"
)

var _ scene.Backend = (*Backend)(nil)

// ErrStampTooLarge is returned for figures that would not fit a stamp.
var ErrStampTooLarge = errors.New("render: figure too large for a stamp")

const (
	maxStampSide = 256
	stampPad     = 2
)

type nodeKind uint8

const (
	kindContainer nodeKind = iota
	kindShape
	kindLabel
	kindSprite
)

// Backend owns one live scene. The scene tree and Draw share one mutex.
type Backend struct {
	mu       sync.Mutex
	root     *node
	viewport *Viewport
	atlas    *Atlas
	textures []*texture
	closed   bool
	log      logging.Log
}

// Options configures a Backend.
type Options struct {
	Width, Height float64
	// Animation is how long animated viewport changes take.
	Animation time.Duration
	// Atlas draws labels. Labels are skipped when nil.
	Atlas *Atlas
	Clock func() time.Time
	Log   logging.Log
}

func NewBackend(o Options) *Backend {
	b := &Backend{
		viewport: NewViewport(o.Width, o.Height, o.Animation, o.Clock),
		atlas:    o.Atlas,
		log:      logging.OrNop(o.Log).With(logging.Component("render")),
	}
	b.root = &node{b: b, kind: kindContainer, visible: true}
	return b
}

func (b *Backend) Root() scene.Container { return b.root }

func (b *Backend) newNode(k nodeKind) *node {
	return &node{b: b, kind: k, visible: true}
}

func (b *Backend) NewContainer() scene.Container {
	return b.newNode(kindContainer)
}

func (b *Backend) NewShape(f scene.Figure) scene.Node {
	n := b.newNode(kindShape)
	n.figure = slices.Clone(f)
	return n
}

func (b *Backend) NewLabel(text string, clr color.RGBA) scene.Node {
	n := b.newNode(kindLabel)
	n.text, n.color = text, clr
	return n
}

// NewStamp rasterizes f at scale 1. Sprites scale the stamp with the
// viewport.
func (b *Backend) NewStamp(f scene.Figure) (scene.Texture, error) {
	origin, w, h, err := stampLayout(f)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("new stamp: %w", scene.ErrRevoked)
	}
	img := ebiten.NewImage(w, h)
	drawFigure(img, f, geom.Point{}, geom.Transform{Pan: origin.Mul(-1), Scale: 1})
	t := &texture{b: b, img: img, origin: origin}
	b.textures = append(b.textures, t)
	return t, nil
}

// stampLayout returns where a stamp of f starts relative to the figure
// origin and its pixel size.
func stampLayout(f scene.Figure) (origin geom.Point, w, h int, err error) {
	if len(f) == 0 {
		return geom.Point{}, 0, 0, errors.New("render: empty figure")
	}
	r := f.Bounds()
	w = int(math.Ceil(r.Width())) + 2*stampPad
	h = int(math.Ceil(r.Height())) + 2*stampPad
	if w > maxStampSide || h > maxStampSide {
		return geom.Point{}, 0, 0, fmt.Errorf("%w: %dx%d", ErrStampTooLarge, w, h)
	}
	return r.Min.Sub(geom.Pt(stampPad, stampPad)), w, h, nil
}

func (b *Backend) NewSprite(t scene.Texture) scene.Node {
	n := b.newNode(kindSprite)
	n.tex, _ = t.(*texture)
	return n
}

func (b *Backend) Viewport() scene.Viewport { return b.viewport }

// ViewportState exposes the viewport with its concrete type so the host
// can Update it.
func (b *Backend) ViewportState() *Viewport { return b.viewport }

func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close destroys the scene and releases every stamp. Later node calls do
// nothing.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, c := range slices.Clone(b.root.children) {
		c.destroyLocked()
	}
	for _, t := range b.textures {
		t.disposeLocked()
	}
	b.textures = nil
	b.closed = true
	b.log.Debug("backend closed")
}

// Stats counts live nodes and stamps.
func (b *Backend) Stats() (nodes, stamps int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var walk func(n *node)
	walk = func(n *node) {
		nodes++
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(b.root)
	return nodes - 1, len(b.textures)
}

type texture struct {
	b        *Backend
	img      *ebiten.Image
	origin   geom.Point
	disposed bool
}

func (t *texture) Dispose() {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	t.disposeLocked()
	t.b.textures = slices.DeleteFunc(t.b.textures, func(x *texture) bool { return x == t })
}

func (t *texture) disposeLocked() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.img.Deallocate()
}

type node struct {
	b           *Backend
	kind        nodeKind
	pos         geom.Point
	visible     bool
	interactive bool
	destroyed   bool
	parent      *node
	children    []*node

	figure scene.Figure
	text   string
	color  color.RGBA
	tex    *texture
}

func (n *node) SetPosition(p geom.Point) {
	n.b.mu.Lock()
	n.pos = p
	n.b.mu.Unlock()
}

func (n *node) Position() geom.Point {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.pos
}

func (n *node) SetVisible(v bool) {
	n.b.mu.Lock()
	n.visible = v
	n.b.mu.Unlock()
}

func (n *node) Visible() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.visible
}

func (n *node) SetInteractive(v bool) {
	n.b.mu.Lock()
	n.interactive = v
	n.b.mu.Unlock()
}

func (n *node) Interactive() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.interactive
}

func (n *node) Destroy() {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	n.destroyLocked()
}

func (n *node) destroyLocked() {
	if n.destroyed {
		return
	}
	n.destroyed = true
	n.detachLocked()
	for _, c := range n.children {
		c.parent = nil
		c.destroyLocked()
	}
	n.children = nil
}

func (n *node) detachLocked() {
	if n.parent == nil {
		return
	}
	p := n.parent
	p.children = slices.DeleteFunc(p.children, func(c *node) bool { return c == n })
	n.parent = nil
}

func (n *node) AddChild(child scene.Node) {
	c, ok := child.(*node)
	if !ok || c == nil || c.b != n.b {
		return
	}
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	if n.b.closed || n.destroyed || c.destroyed {
		return
	}
	c.detachLocked()
	c.parent = n
	n.children = append(n.children, c)
}

func (n *node) RemoveChild(child scene.Node) {
	c, ok := child.(*node)
	if !ok {
		return
	}
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	if c.parent == n {
		c.detachLocked()
	}
}

func (n *node) RemoveChildren() {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	for _, c := range slices.Clone(n.children) {
		c.destroyLocked()
	}
	n.children = nil
}

func (n *node) Children() []scene.Node {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	out := make([]scene.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}
