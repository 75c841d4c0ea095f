package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/levels"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/scene/scenetest"
	"github.com/spacehole-rogue/starview/internal/world"
)

// fakeRenderer records calls. Render blocks on gate when one is set.
type fakeRenderer struct {
	level world.ViewLevel

	mu        sync.Mutex
	addr      world.SpatialAddress
	presence  map[int]world.Presence
	handle    *scene.Handle
	visible   bool
	destroyed bool
	err       error
	gate      chan struct{}
	entered   chan struct{}
	hit       *world.Location

	renders atomic.Int32
	binds   atomic.Int32
}

var _ levels.Renderer = (*fakeRenderer)(nil)

func (r *fakeRenderer) Level() world.ViewLevel { return r.level }

func (r *fakeRenderer) SetAddress(addr world.SpatialAddress) {
	r.mu.Lock()
	r.addr = addr.ForLevel(r.level)
	r.mu.Unlock()
}

func (r *fakeRenderer) Address() world.SpatialAddress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

func (r *fakeRenderer) SetPresence(tags map[int]world.Presence) {
	r.mu.Lock()
	r.presence = tags
	r.mu.Unlock()
}

func (r *fakeRenderer) Bind(h *scene.Handle) {
	r.binds.Add(1)
	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()
}

func (r *fakeRenderer) SetVisible(v bool) {
	r.mu.Lock()
	r.visible = v
	r.mu.Unlock()
}

func (r *fakeRenderer) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

func (r *fakeRenderer) Render(ctx context.Context) error {
	r.renders.Add(1)
	r.mu.Lock()
	gate, entered, err := r.gate, r.entered, r.err
	r.gate, r.entered = nil, nil
	r.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *fakeRenderer) HitTest(geom.Point) (world.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hit == nil || !r.visible {
		return world.Location{}, false
	}
	return *r.hit, true
}

func (r *fakeRenderer) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
}

// hold makes the next Render block until the returned release is called.
// entered is closed once that Render started.
func (r *fakeRenderer) hold() (entered <-chan struct{}, release func()) {
	gate, in := make(chan struct{}), make(chan struct{})
	r.mu.Lock()
	r.gate, r.entered = gate, in
	r.mu.Unlock()
	return in, func() { close(gate) }
}

type fakeOverlay struct {
	mu        sync.Mutex
	addr      world.SpatialAddress
	handle    *scene.Handle
	visible   bool
	destroyed bool
	filters   []string
	loadErr   error
	hit       *world.Location
	ticks     int

	paths atomic.Int32
}

var _ Overlay = (*fakeOverlay)(nil)

func (o *fakeOverlay) SetAddress(addr world.SpatialAddress) {
	o.mu.Lock()
	o.addr = addr.ForLevel(world.LevelRegion)
	o.mu.Unlock()
}

func (o *fakeOverlay) Bind(h *scene.Handle) {
	o.mu.Lock()
	o.handle = h
	o.mu.Unlock()
}

func (o *fakeOverlay) LoadEntities(_ context.Context, filter string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filters = append(o.filters, filter)
	return o.loadErr
}

func (o *fakeOverlay) LoadMovementPaths(context.Context) error {
	o.paths.Add(1)
	return nil
}

func (o *fakeOverlay) SetVisible(v bool) {
	o.mu.Lock()
	o.visible = v
	o.mu.Unlock()
}

func (o *fakeOverlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

func (o *fakeOverlay) HitTest(geom.Point) (world.Location, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hit == nil {
		return world.Location{}, false
	}
	return *o.hit, true
}

func (o *fakeOverlay) Tick(time.Time) {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func (o *fakeOverlay) Destroy() {
	o.mu.Lock()
	o.destroyed = true
	o.mu.Unlock()
}

// identityCamera maps screen to world unchanged.
type identityCamera struct {
	binds atomic.Int32
}

func (c *identityCamera) Bind(*scene.Handle) { c.binds.Add(1) }

func (c *identityCamera) ScreenToWorld(sx, sy float64) geom.Point { return geom.Pt(sx, sy) }

type env struct {
	handle    *scene.Handle
	camera    *identityCamera
	renderers map[world.ViewLevel]*fakeRenderer
	overlay   *fakeOverlay
	c         *Coordinator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		handle:    scene.NewHandle(scenetest.NewBackend(800, 600)),
		camera:    &identityCamera{},
		renderers: make(map[world.ViewLevel]*fakeRenderer),
		overlay:   &fakeOverlay{},
	}
	var rs []levels.Renderer
	for _, l := range world.Levels {
		r := &fakeRenderer{level: l, visible: true}
		e.renderers[l] = r
		rs = append(rs, r)
	}
	c, err := New(Options{
		Handle:      e.handle,
		Camera:      e.camera,
		Renderers:   rs,
		Overlay:     e.overlay,
		OwnerFilter: "p-me",
	})
	require.NoError(t, err)
	e.c = c
	e.c.SetAddress(world.SystemAddress("alpha", 0, 4, 7))
	t.Cleanup(c.Destroy)
	return e
}

// visible lists the levels whose renderer is shown.
func (e *env) visible() []world.ViewLevel {
	var out []world.ViewLevel
	for _, l := range world.Levels {
		if e.renderers[l].Visible() {
			out = append(out, l)
		}
	}
	return out
}

// requireSettled checks the one-renderer invariant for level l.
func (e *env) requireSettled(t *testing.T, l world.ViewLevel) {
	t.Helper()
	require.Equal(t, l, e.c.Current())
	require.Equal(t, []world.ViewLevel{l}, e.visible())
	require.Equal(t, l == world.LevelRegion, e.overlay.Visible())
}
