// Package coordinator keeps exactly one level renderer on screen while the
// user navigates, shares the spatial context between renderers and the
// entity overlay, and rebinds everything when the host swaps its backend.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/levels"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/world"
)

// Camera is the part of the camera the coordinator drives.
type Camera interface {
	Bind(h *scene.Handle)
	ScreenToWorld(sx, sy float64) geom.Point
}

// Overlay is the part of the entity overlay the coordinator drives.
type Overlay interface {
	SetAddress(addr world.SpatialAddress)
	Bind(h *scene.Handle)
	LoadEntities(ctx context.Context, ownerFilter string) error
	LoadMovementPaths(ctx context.Context) error
	SetVisible(v bool)
	Visible() bool
	HitTest(p geom.Point) (world.Location, bool)
	Tick(now time.Time)
	Destroy()
}

// Options wires a coordinator to the components it switches between.
type Options struct {
	Handle    *scene.Handle
	Camera    Camera
	Renderers []levels.Renderer
	Overlay   Overlay
	// OwnerFilter limits the overlay to one owner's entities. Empty shows
	// everyone.
	OwnerFilter string
	Log         logging.Log
}

// Coordinator is the view-level state machine. The zero level means no
// transition has settled yet.
type Coordinator struct {
	camera    Camera
	overlay   Overlay
	renderers map[world.ViewLevel]levels.Renderer
	log       logging.Log

	mu        sync.Mutex
	handle    *scene.Handle
	addr      world.SpatialAddress
	filter    string
	current   world.ViewLevel
	pending   world.ViewLevel
	gen       uint64
	destroyed bool

	onSelect func(world.Location)
	onHover  func(*world.Location)
	hovered  *world.Location
}

// New wires the coordinator. Every level needs exactly one renderer.
func New(o Options) (*Coordinator, error) {
	c := &Coordinator{
		camera:    o.Camera,
		overlay:   o.Overlay,
		renderers: make(map[world.ViewLevel]levels.Renderer, len(world.Levels)),
		log:       logging.OrNop(o.Log).With(logging.Component("coordinator")),
		handle:    o.Handle,
		addr:      world.ServerAddress(""),
		filter:    o.OwnerFilter,
	}
	for _, r := range o.Renderers {
		if _, dup := c.renderers[r.Level()]; dup {
			return nil, apperr.Programmerf("coordinator.New", "two renderers for level %s", r.Level())
		}
		c.renderers[r.Level()] = r
	}
	for _, l := range world.Levels {
		if c.renderers[l] == nil {
			return nil, apperr.Programmerf("coordinator.New", "no renderer for level %s", l)
		}
	}
	if c.overlay == nil {
		return nil, apperr.Programmerf("coordinator.New", "no overlay")
	}
	c.hideAllLocked()
	return c, nil
}

// Current returns the level that last settled, or zero before the first
// transition.
func (c *Coordinator) Current() world.ViewLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Address returns the shared spatial context.
func (c *Coordinator) Address() world.SpatialAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Renderer returns the renderer for level l.
func (c *Coordinator) Renderer(l world.ViewLevel) levels.Renderer {
	return c.renderers[l]
}

// SetContext updates the shared address. Negative indices leave that level
// and every finer one unset.
func (c *Coordinator) SetContext(server string, galaxy, region, system int) {
	addr := world.ServerAddress(server)
	for _, i := range []int{galaxy, region, system} {
		if i < 0 {
			break
		}
		addr = addr.Child(i)
	}
	c.SetAddress(addr)
}

// SetAddress updates the shared address and forwards the matching slice to
// every renderer and the overlay. Nothing is fetched.
func (c *Coordinator) SetAddress(addr world.SpatialAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addr = addr
	for _, r := range c.renderers {
		r.SetAddress(addr)
	}
	c.overlay.SetAddress(addr)
}

// SetOwnerFilter changes whose entities the overlay loads from the next
// load on.
func (c *Coordinator) SetOwnerFilter(owner string) {
	c.mu.Lock()
	c.filter = owner
	c.mu.Unlock()
}

// SetPresence tags the children of level l. Tags style the next render.
func (c *Coordinator) SetPresence(l world.ViewLevel, tags map[int]world.Presence) {
	r, ok := c.renderers[l]
	if !ok {
		c.log.Warn("presence for unknown level", logging.String("level", l.String()))
		return
	}
	r.SetPresence(tags)
}

// SetCurrentView hides everything, rebuilds the target renderer and shows
// it. For the region level the overlay is loaded and shown too. A call for
// the level already shown or already on its way is a no-op. When a newer
// call starts before this one finishes, this one's result is discarded.
//
// A build error is returned after the renderer has been shown with its
// placeholder. A revoked render context is logged and ignored; the host's
// UpdateAllEngines renders again.
func (c *Coordinator) SetCurrentView(ctx context.Context, target world.ViewLevel) error {
	return c.transition(ctx, target, false)
}

// NavigateUp goes to the parent of the level shown or on its way.
// Universe has no parent.
func (c *Coordinator) NavigateUp(ctx context.Context) error {
	c.mu.Lock()
	from := c.targetLocked()
	c.mu.Unlock()
	if from == 0 || from == world.LevelUniverse {
		return nil
	}
	return c.SetCurrentView(ctx, from.Parent())
}

// Enter sets the context to addr and shows the level that lists addr's
// children. A body address opens its system.
func (c *Coordinator) Enter(ctx context.Context, addr world.SpatialAddress) error {
	level := world.ViewLevel(min(addr.Depth()+1, int(world.LevelSystem)))
	c.SetAddress(addr)
	return c.SetCurrentView(ctx, level)
}

// UpdateAllEngines moves every component to a new render context. The
// previous handle is revoked and the shown level is rendered again.
func (c *Coordinator) UpdateAllEngines(ctx context.Context, h *scene.Handle) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	if c.handle != h {
		c.handle.Revoke()
	}
	c.handle = h
	if c.camera != nil {
		c.camera.Bind(h)
	}
	for _, r := range c.renderers {
		r.Bind(h)
	}
	c.overlay.Bind(h)
	target := c.targetLocked()
	c.mu.Unlock()

	c.log.Info("render context replaced", logging.String("level", target.String()))
	if target == 0 {
		return nil
	}
	return c.transition(ctx, target, true)
}

func (c *Coordinator) targetLocked() world.ViewLevel {
	if c.pending != 0 {
		return c.pending
	}
	return c.current
}

func (c *Coordinator) transition(ctx context.Context, target world.ViewLevel, force bool) error {
	r, ok := c.renderers[target]
	if !ok {
		c.log.Error("transition to invalid level ignored", logging.Int("level", int(target)))
		return nil
	}

	c.mu.Lock()
	if c.destroyed || (!force && target == c.targetLocked()) {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.pending = target
	c.hideAllLocked()
	filter := c.filter
	c.mu.Unlock()

	log := c.log.With(logging.String("target", target.String()))
	log.Debug("transition started")

	err := r.Render(ctx)
	if apperr.IsStale(err) {
		log.Warn("render context revoked during transition", logging.Err(err))
		err = nil
	}

	if target == world.LevelRegion && c.live(gen) {
		c.loadOverlay(ctx, filter, log)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || gen != c.gen {
		log.Debug("transition superseded")
		return err
	}
	r.SetVisible(true)
	c.overlay.SetVisible(target == world.LevelRegion)
	c.current = target
	c.pending = 0
	log.Info("view settled")
	return err
}

// loadOverlay fills the overlay for the region just rendered. Failures
// leave the previous entity set and are not fatal to the transition.
func (c *Coordinator) loadOverlay(ctx context.Context, filter string, log logging.Log) {
	if err := c.overlay.LoadEntities(ctx, filter); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("overlay entities unavailable", logging.Err(err))
		}
		return
	}
	if err := c.overlay.LoadMovementPaths(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("overlay paths unavailable", logging.Err(err))
	}
}

func (c *Coordinator) live(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.destroyed && gen == c.gen
}

func (c *Coordinator) hideAllLocked() {
	for _, r := range c.renderers {
		r.SetVisible(false)
	}
	c.overlay.SetVisible(false)
}

// OnSelectLocation registers the handler for clicks that hit something.
func (c *Coordinator) OnSelectLocation(fn func(world.Location)) {
	c.mu.Lock()
	c.onSelect = fn
	c.mu.Unlock()
}

// OnHoverLocation registers the handler for hover changes. It receives nil
// when the pointer leaves everything.
func (c *Coordinator) OnHoverLocation(fn func(*world.Location)) {
	c.mu.Lock()
	c.onHover = fn
	c.mu.Unlock()
}

// hit resolves screen point (sx, sy) against the overlay first, then the
// shown renderer.
func (c *Coordinator) hit(sx, sy float64) (world.Location, bool) {
	c.mu.Lock()
	current := c.current
	settled := c.pending == 0
	c.mu.Unlock()
	if current == 0 || !settled || c.camera == nil {
		return world.Location{}, false
	}
	p := c.camera.ScreenToWorld(sx, sy)
	if current == world.LevelRegion && c.overlay.Visible() {
		if loc, ok := c.overlay.HitTest(p); ok {
			return loc, true
		}
	}
	return c.renderers[current].HitTest(p)
}

// PointerMove reports hover changes for screen point (sx, sy).
func (c *Coordinator) PointerMove(sx, sy float64) {
	loc, ok := c.hit(sx, sy)

	c.mu.Lock()
	var next *world.Location
	if ok {
		next = &loc
	}
	if sameHover(c.hovered, next) {
		c.mu.Unlock()
		return
	}
	c.hovered = next
	fn := c.onHover
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}
}

func sameHover(a, b *world.Location) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// PointerDown selects whatever is under screen point (sx, sy) and reports
// whether anything was hit.
func (c *Coordinator) PointerDown(sx, sy float64) bool {
	loc, ok := c.hit(sx, sy)
	if !ok {
		return false
	}
	c.mu.Lock()
	fn := c.onSelect
	c.mu.Unlock()
	if fn != nil {
		fn(loc)
	}
	return true
}

// Frame advances the overlay once per display refresh.
func (c *Coordinator) Frame(now time.Time) {
	c.overlay.Tick(now)
}

// Destroy tears down every renderer and the overlay. In-flight
// transitions finish without touching the screen. Later calls do nothing.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.gen++
	c.onSelect, c.onHover = nil, nil
	c.mu.Unlock()

	for _, r := range c.renderers {
		r.Destroy()
	}
	c.overlay.Destroy()
	c.log.Info("destroyed")
}
