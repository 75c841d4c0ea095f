// Package scenetest is an in-memory scene.Backend for tests. It records
// every node so tests can inspect what a component built.
package scenetest

import (
	"errors"
	"image/color"
	"slices"
	"sync"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/scene"
)

// Kind tells what a recorded node is.
type Kind string

const (
	KindContainer Kind = "container"
	KindShape     Kind = "shape"
	KindLabel     Kind = "label"
	KindSprite    Kind = "sprite"
)

var _ scene.Backend = (*Backend)(nil)

// Backend is an in-memory scene.Backend that records every node it creates.
type Backend struct {
	mu       sync.Mutex
	root     *Node
	viewport *Viewport
	closed   bool

	failStamp   func(scene.Figure) bool
	stampsBuilt int
	created     map[Kind]int
}

// NewBackend creates a backend with a w x h screen.
func NewBackend(w, h float64) *Backend {
	b := &Backend{created: make(map[Kind]int)}
	b.root = b.newNode(KindContainer)
	b.viewport = &Viewport{size: geom.Pt(w, h), current: geom.Identity, target: geom.Identity}
	return b
}

// FailStamps makes NewStamp fail for every figure fn accepts.
func (b *Backend) FailStamps(fn func(scene.Figure) bool) {
	b.mu.Lock()
	b.failStamp = fn
	b.mu.Unlock()
}

// StampsBuilt returns how many stamps were created successfully.
func (b *Backend) StampsBuilt() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stampsBuilt
}

// Created returns how many nodes of kind k were ever created.
func (b *Backend) Created(k Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created[k]
}

func (b *Backend) newNode(k Kind) *Node {
	b.created[k]++
	return &Node{b: b, kind: k, visible: true}
}

func (b *Backend) Root() scene.Container { return b.root }

// RootNode exposes the root with its concrete type.
func (b *Backend) RootNode() *Node { return b.root }

func (b *Backend) NewContainer() scene.Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newNode(KindContainer)
}

func (b *Backend) NewShape(f scene.Figure) scene.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.newNode(KindShape)
	n.figure = slices.Clone(f)
	return n
}

func (b *Backend) NewLabel(text string, clr color.RGBA) scene.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.newNode(KindLabel)
	n.label = text
	n.labelColor = clr
	return n
}

var errStamp = errors.New("scenetest: stamp generation failed")

func (b *Backend) NewStamp(f scene.Figure) (scene.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failStamp != nil && b.failStamp(f) {
		return nil, errStamp
	}
	b.stampsBuilt++
	return &Texture{figure: slices.Clone(f)}, nil
}

func (b *Backend) NewSprite(t scene.Texture) scene.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.newNode(KindSprite)
	n.texture, _ = t.(*Texture)
	return n
}

func (b *Backend) Viewport() scene.Viewport { return b.viewport }

// ViewportState exposes the viewport with its concrete type.
func (b *Backend) ViewportState() *Viewport { return b.viewport }

func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Find walks the live tree under the root and returns nodes accepted by fn.
func (b *Backend) Find(fn func(*Node) bool) []*Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if fn(n) {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(b.root)
	return out
}

// Texture is a recorded stamp.
type Texture struct {
	figure   scene.Figure
	disposed bool
}

func (t *Texture) Dispose() { t.disposed = true }

// Disposed reports whether Dispose was called.
func (t *Texture) Disposed() bool { return t.disposed }

// Figure returns the figure the stamp was built from.
func (t *Texture) Figure() scene.Figure { return t.figure }
