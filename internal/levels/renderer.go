// Package levels holds the four level renderers: universe, galaxy, region
// and system. Each resolves its children from the data service, lays them
// out, and answers hit tests with the finer address under the pointer.
package levels

import (
	"context"
	"maps"
	"sync"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/world"
)

// Renderer is the contract every level renderer satisfies.
type Renderer interface {
	Level() world.ViewLevel
	// SetAddress stores the slice of addr this level is keyed by. It never
	// fetches.
	SetAddress(addr world.SpatialAddress)
	Address() world.SpatialAddress
	// SetPresence tags children by index. Tags style the next Render.
	SetPresence(tags map[int]world.Presence)
	Bind(h *scene.Handle)
	SetVisible(v bool)
	Visible() bool
	// Render replaces the content with a fresh layout of this level's
	// children. Fetch failures and empty results produce a placeholder and
	// no error; errors are returned for cancellation and revoked contexts.
	Render(ctx context.Context) error
	// HitTest returns the child under world point p.
	HitTest(p geom.Point) (world.Location, bool)
	Destroy()
}

// Sizer reports the screen size a layout fills.
type Sizer interface {
	Size() (w, h float64)
}

// Options are shared by every renderer constructor.
type Options struct {
	Handle  *scene.Handle
	Service dataservice.Service
	View    Sizer
	Layout  config.LayoutConfig
	Log     logging.Log
}

// child is one resolved entry of a level.
type child struct {
	index    int
	name     string
	presence world.Presence
	star     world.StarType
	body     world.BodyKind
	size     int
	count    int
}

// item is one laid-out visual. Items with a zero radius are decoration and
// never hit.
type item struct {
	index  int
	name   string
	pos    geom.Point
	radius float64
	figure scene.Figure
	label  string
}

const labelGap = 4

// base carries everything the four renderers share. Each renderer supplies
// fetch, layout and placeholder.
type base struct {
	level world.ViewLevel
	svc   dataservice.Service
	view  Sizer
	grid  Grid
	log   logging.Log

	fetch       func(ctx context.Context, addr world.SpatialAddress) ([]child, error)
	layout      func(children []child, w, h float64) []item
	placeholder func(w, h float64) []item

	mu          sync.Mutex
	handle      *scene.Handle
	addr        world.SpatialAddress
	presence    map[int]world.Presence
	root        scene.Container
	items       []item
	visible     bool
	placeholded bool
	destroyed   bool
	gen         uint64
}

func newBase(level world.ViewLevel, o Options) *base {
	b := &base{
		level:   level,
		svc:     o.Service,
		view:    o.View,
		grid:    NewGrid(o.Layout),
		log:     logging.OrNop(o.Log).With(logging.Component("levels"), logging.String("level", level.String())),
		handle:  o.Handle,
		addr:    world.ServerAddress(""),
		visible: true,
	}
	b.placeholder = b.gridPlaceholder
	return b
}

func (b *base) Level() world.ViewLevel { return b.level }

func (b *base) SetAddress(addr world.SpatialAddress) {
	b.mu.Lock()
	b.addr = addr.ForLevel(b.level)
	b.mu.Unlock()
}

func (b *base) Address() world.SpatialAddress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

func (b *base) SetPresence(tags map[int]world.Presence) {
	b.mu.Lock()
	b.presence = maps.Clone(tags)
	b.mu.Unlock()
}

// Bind moves the renderer to a new render context. Content built on the
// old backend is dropped; the next Render rebuilds it.
func (b *base) Bind(h *scene.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root != nil {
		b.root.Destroy()
		b.root = nil
	}
	b.items = nil
	b.handle = h
}

func (b *base) SetVisible(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible = v
	if b.root != nil {
		b.root.SetVisible(v)
	}
}

func (b *base) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Placeholder reports whether the last Render fell back to the placeholder.
func (b *base) Placeholder() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.placeholded
}

func (b *base) Render(ctx context.Context) error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil
	}
	b.gen++
	gen := b.gen
	addr := b.addr
	presence := b.presence
	b.mu.Unlock()

	w, h := b.view.Size()
	children, err := b.resolve(ctx, addr)
	if cerr := ctx.Err(); cerr != nil {
		err = cerr
	}

	var items []item
	placeholder := false
	switch {
	case err != nil:
		if apperr.IsProgrammer(err) {
			b.log.Error("render with incomplete address", logging.Err(err))
		} else {
			b.log.Warn("fetch failed, showing placeholder", logging.Err(err), logging.String("address", addr.String()))
		}
		items, placeholder = b.placeholder(w, h), true
	case len(children) == 0:
		b.log.Debug("nothing to show, showing placeholder", logging.String("address", addr.String()))
		items, placeholder = b.placeholder(w, h), true
	default:
		for i := range children {
			if p, ok := presence[children[i].index]; ok {
				children[i].presence = p
			}
		}
		items = b.layout(children, w, h)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed || gen != b.gen {
		// A newer Render or Destroy owns the content now.
		return ctx.Err()
	}
	if berr := b.buildLocked(items); berr != nil {
		return berr
	}
	b.items = items
	b.placeholded = placeholder
	b.log.Debug("rendered", logging.Int("items", len(items)), logging.Bool("placeholder", placeholder))
	return ctx.Err()
}

// resolve checks the address and fetches without holding the lock.
func (b *base) resolve(ctx context.Context, addr world.SpatialAddress) ([]child, error) {
	if !addr.Valid() || addr.Depth() < int(b.level)-1 {
		return nil, apperr.Programmerf("Render", "%s renderer needs a deeper address than %q", b.level, addr)
	}
	return b.fetch(ctx, addr)
}

func (b *base) containerLocked() (scene.Backend, scene.Container, error) {
	be, err := b.handle.Backend()
	if err != nil {
		return nil, nil, apperr.Stale("levels."+b.level.String(), err)
	}
	if b.root == nil {
		b.root = be.NewContainer()
		b.root.SetVisible(b.visible)
		be.Root().AddChild(b.root)
	}
	return be, b.root, nil
}

func (b *base) buildLocked(items []item) error {
	be, root, err := b.containerLocked()
	if err != nil {
		return err
	}
	root.RemoveChildren()
	for _, it := range items {
		n := be.NewShape(it.figure)
		n.SetPosition(it.pos)
		root.AddChild(n)
		if it.label == "" {
			continue
		}
		l := be.NewLabel(it.label, labelColor)
		l.SetPosition(it.pos.Add(geom.Pt(0, it.figure.Bounds().Max.Y+labelGap)))
		root.AddChild(l)
	}
	return nil
}

// HitTest is the renderer's single pointer handler. Later items win, which
// matches draw order.
func (b *base) HitTest(p geom.Point) (world.Location, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed || !b.visible {
		return world.Location{}, false
	}
	for i := len(b.items) - 1; i >= 0; i-- {
		it := b.items[i]
		if it.radius <= 0 || p.Dist(it.pos) > it.radius {
			continue
		}
		return world.Location{
			Level:   b.level,
			Address: b.addr.Child(it.index),
			Name:    it.name,
		}, true
	}
	return world.Location{}, false
}

// Destroy detaches all content. Later calls do nothing.
func (b *base) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.gen++
	if b.root != nil {
		b.root.Destroy()
		b.root = nil
	}
	b.items = nil
}

// itemAt returns the selectable item with the given child index.
func (b *base) itemAt(index int) (item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.items {
		if it.radius > 0 && it.index == index {
			return it, true
		}
	}
	return item{}, false
}

// gridLayout places children on the grid, dropping those outside it.
func (b *base) gridLayout(children []child, w, h float64, figure func(child, float64) scene.Figure) []item {
	r := b.grid.CellRadius(w, h)
	items := make([]item, 0, len(children))
	for _, c := range children {
		pos, ok := b.grid.Position(c.index, w, h)
		if !ok {
			b.log.Debug("child outside grid", logging.Int("index", c.index))
			continue
		}
		items = append(items, item{
			index:  c.index,
			name:   c.name,
			pos:    pos,
			radius: r,
			figure: figure(c, r),
			label:  c.name,
		})
	}
	return items
}

func (b *base) gridPlaceholder(w, h float64) []item {
	r := b.grid.CellRadius(w, h)
	cells := b.grid.Placeholder()
	items := make([]item, 0, len(cells))
	for _, i := range cells {
		pos, _ := b.grid.Position(i, w, h)
		items = append(items, item{index: -1, pos: pos, figure: placeholderFigure(r * 0.4)})
	}
	return items
}
