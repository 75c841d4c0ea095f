// Package overlay draws the dynamic entities of the current region on top
// of the region renderer: culled to the viewport, styled by level of
// detail, batched through cached stamps when crowded, and moved smoothly
// between polls.
package overlay

import (
	"context"
	"image/color"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/palette"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/tween"
	"github.com/spacehole-rogue/starview/internal/world"
)

// ViewSource is where a pass reads the camera from.
type ViewSource interface {
	Scale() float64
	ViewBounds() geom.Rect
}

// Resolver maps a system address to the world point it is drawn at. The
// region renderer is the resolver in production.
type Resolver interface {
	CoordToWorld(addr world.SpatialAddress) (geom.Point, bool)
}

// Options wires an overlay to its backend, data and camera.
type Options struct {
	Handle   *scene.Handle
	Service  dataservice.Service
	View     ViewSource
	Resolver Resolver
	Config   config.OverlayConfig
	Log      logging.Log
	// Clock stamps position updates. Defaults to time.Now; Tick callers
	// must use the same clock.
	Clock func() time.Time
}

// Stats describes the last pass.
type Stats struct {
	Tier       Tier
	Culled     int
	Batched    bool
	Groups     map[GroupKey][]string
	Fallback   []GroupKey
	Individual []string
	Paths      int
}

type tracked struct {
	rec    world.EntityRecord
	color  color.RGBA
	motion tween.Tween[geom.Point]
	// restyle asks the next pass to rebuild the entity's node.
	restyle bool
}

type sprite struct {
	key  GroupKey
	node scene.Node
}

type path struct {
	id       string
	from, to geom.Point
	color    color.RGBA
}

// fetch is the entity load in flight and the region it was issued for.
type fetch struct {
	region world.SpatialAddress
	cancel context.CancelFunc
}

// Overlay draws the dynamic entities of one region.
type Overlay struct {
	svc    dataservice.Service
	view   ViewSource
	cfg    config.OverlayConfig
	th     Thresholds
	log    logging.Log
	now    func() time.Time
	life   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	inFlight  *fetch
	handle    *scene.Handle
	resolver  Resolver
	region    world.SpatialAddress
	filter    string
	visible   bool
	destroyed bool
	stopPoll  context.CancelFunc

	entities map[string]*tracked
	paths    []path

	root      scene.Container
	pathLayer scene.Container
	layer     scene.Container
	nodes     map[string]scene.Node
	sprites   map[string]*sprite
	stamps    map[GroupKey]scene.Texture
	failed    map[GroupKey]bool

	tier       Tier
	tierSet    bool
	dirty      bool
	pathsDirty bool
	lastScale  float64
	lastBounds geom.Rect
	stats      Stats
}

// New creates a hidden overlay.
func New(o Options) *Overlay {
	now := o.Clock
	if now == nil {
		now = time.Now
	}
	life, cancel := context.WithCancel(context.Background())
	return &Overlay{
		svc:      o.Service,
		view:     o.View,
		cfg:      o.Config,
		th:       NewThresholds(o.Config),
		log:      logging.OrNop(o.Log).With(logging.Component("overlay")),
		now:      now,
		life:     life,
		cancel:   cancel,
		handle:   o.Handle,
		resolver: o.Resolver,
		region:   world.ServerAddress(""),
		entities: make(map[string]*tracked),
		nodes:    make(map[string]scene.Node),
		sprites:  make(map[string]*sprite),
		stamps:   make(map[GroupKey]scene.Texture),
		failed:   make(map[GroupKey]bool),
	}
}

// SetAddress binds the overlay to the region of addr. Moving to another
// region forgets every entity of the old one.
func (o *Overlay) SetAddress(addr world.SpatialAddress) {
	region := addr.ForLevel(world.LevelRegion)
	o.mu.Lock()
	defer o.mu.Unlock()
	if region == o.region {
		return
	}
	o.region = region
	clear(o.entities)
	o.paths = nil
	o.dirty, o.pathsDirty = true, true
}

// Address returns the region the overlay is bound to.
func (o *Overlay) Address() world.SpatialAddress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.region
}

// SetResolver replaces the coordinate resolver.
func (o *Overlay) SetResolver(r Resolver) {
	o.mu.Lock()
	o.resolver = r
	o.mu.Unlock()
}

// Bind moves the overlay to a new render context. Visuals and stamps built
// on the old backend are dropped and rebuilt by the next pass; entity
// positions and motion carry over.
func (o *Overlay) Bind(h *scene.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropVisualsLocked()
	if o.root != nil {
		o.root.Destroy()
		o.root, o.layer, o.pathLayer = nil, nil, nil
	}
	o.handle = h
	o.dirty, o.pathsDirty = true, true
}

// LoadEntities fetches the region's entities, keeps those owned by
// ownerFilter (all when empty) and retargets their motion. A call for the
// region already being fetched is dropped; a call for another region
// cancels the stale fetch and replaces it. On failure the previous set
// stays on screen.
func (o *Overlay) LoadEntities(ctx context.Context, ownerFilter string) error {
	o.mu.Lock()
	region, resolver := o.region, o.resolver
	if region.Depth() < 2 || !region.Valid() {
		o.mu.Unlock()
		return apperr.Programmerf("LoadEntities", "overlay is not bound to a region (%q)", region)
	}
	if resolver == nil {
		o.mu.Unlock()
		return apperr.Programmerf("LoadEntities", "overlay has no coordinate resolver")
	}
	if f := o.inFlight; f != nil {
		if f.region == region {
			o.mu.Unlock()
			o.log.Debug("refresh dropped, fetch in flight")
			return nil
		}
		f.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	f := &fetch{region: region, cancel: cancel}
	o.inFlight = f
	o.filter = ownerFilter
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		if o.inFlight == f {
			o.inFlight = nil
		}
		o.mu.Unlock()
	}()

	res, err := o.svc.FetchEntities(ctx, region)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	records, err := dataservice.Unwrap("FetchEntities", res, err)
	if err != nil {
		o.log.Warn("entity fetch failed, keeping previous set", logging.Err(err))
		return err
	}

	type placed struct {
		rec world.EntityRecord
		pos geom.Point
	}
	next := make([]placed, 0, len(records))
	for _, rec := range records {
		if ownerFilter != "" && rec.OwnerID != ownerFilter {
			continue
		}
		p, ok := resolver.CoordToWorld(rec.Location)
		if !ok {
			o.log.Debug("entity outside the drawn region", logging.String("id", rec.ID))
			continue
		}
		next = append(next, placed{rec: rec, pos: p.Add(spread(rec.ID))})
	}

	now := o.now()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed || o.region != region {
		return nil
	}
	seen := make(map[string]bool, len(next))
	for _, n := range next {
		seen[n.rec.ID] = true
		tr, ok := o.entities[n.rec.ID]
		if !ok {
			o.entities[n.rec.ID] = &tracked{
				rec:    n.rec,
				color:  palette.Hex(n.rec.Color),
				motion: tween.Settled(n.pos),
			}
			continue
		}
		tr.rec = n.rec
		if c := palette.Hex(n.rec.Color); c != tr.color {
			tr.color = c
			tr.restyle = true
		}
		if tr.motion.Target() != n.pos {
			tr.motion.Retarget(n.pos, now, o.cfg.MotionDuration)
		}
	}
	for id := range o.entities {
		if !seen[id] {
			delete(o.entities, id)
		}
	}
	o.dirty = true
	o.log.Debug("entities loaded", logging.Int("count", len(o.entities)), logging.String("filter", ownerFilter))
	return nil
}

// LoadMovementPaths fetches the movement order of every entity and
// resolves both ends. A path with an unresolvable end is not drawn; one
// entity's failure never affects another's path.
func (o *Overlay) LoadMovementPaths(ctx context.Context) error {
	o.mu.Lock()
	ids := slices.Sorted(maps.Keys(o.entities))
	colors := make(map[string]color.RGBA, len(ids))
	for _, id := range ids {
		colors[id] = o.entities[id].color
	}
	region, resolver := o.region, o.resolver
	o.mu.Unlock()

	details := fetchDetails(ctx, o.svc, ids, o.cfg.DetailConcurrency, o.log)
	if err := ctx.Err(); err != nil {
		return err
	}

	var paths []path
	failed := 0
	for i, id := range ids {
		d := details[i]
		if d.err != nil {
			failed++
			continue
		}
		if d.movement == nil || resolver == nil {
			continue
		}
		from, okFrom := resolver.CoordToWorld(d.movement.Origin)
		to, okTo := resolver.CoordToWorld(d.movement.Destination)
		if !okFrom || !okTo {
			continue
		}
		paths = append(paths, path{id: id, from: from, to: to, color: colors[id]})
	}
	if failed > 0 {
		o.log.Warn("some movement orders could not be fetched", logging.Int("failed", failed), logging.Int("total", len(ids)))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed || o.region != region {
		return nil
	}
	o.paths = paths
	o.pathsDirty = true
	return nil
}

// SetVisible shows or hides the overlay. Polling runs only while visible.
func (o *Overlay) SetVisible(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed {
		return
	}
	o.visible = v
	if o.root != nil {
		o.root.SetVisible(v)
	}
	if v {
		o.startPollLocked()
	} else {
		o.stopPollLocked()
	}
	o.dirty = true
}

func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Count returns how many entities are tracked.
func (o *Overlay) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entities)
}

// Stats returns what the last pass did.
func (o *Overlay) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Tick advances motion to now and runs a pass when anything changed. The
// host calls it once per display refresh.
func (o *Overlay) Tick(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed || !o.visible || o.view == nil {
		return
	}
	scale, bounds := o.view.Scale(), o.view.ViewBounds()
	moving := false
	for _, tr := range o.entities {
		if tr.motion.Running() {
			moving = true
			break
		}
	}
	if !o.dirty && !o.pathsDirty && !moving && scale == o.lastScale && bounds == o.lastBounds {
		return
	}
	if err := o.passLocked(now, scale, bounds); err != nil {
		o.log.Debug("pass skipped", logging.Err(err))
		return
	}
	o.dirty = false
	o.lastScale, o.lastBounds = scale, bounds
}

func (o *Overlay) layersLocked() (scene.Backend, error) {
	be, err := o.handle.Backend()
	if err != nil {
		return nil, apperr.Stale("overlay", err)
	}
	if o.root == nil {
		o.root = be.NewContainer()
		o.pathLayer = be.NewContainer()
		o.layer = be.NewContainer()
		o.root.AddChild(o.pathLayer)
		o.root.AddChild(o.layer)
		o.root.SetVisible(o.visible)
		be.Root().AddChild(o.root)
	}
	return be, nil
}

func (o *Overlay) passLocked(now time.Time, scale float64, bounds geom.Rect) error {
	be, err := o.layersLocked()
	if err != nil {
		return err
	}

	tier := o.th.TierFor(scale)
	if o.tierSet && tier != o.tier {
		o.log.Debug("tier changed, rebuilding", logging.String("from", o.tier.String()), logging.String("to", tier.String()))
		o.dropVisualsLocked()
	}
	o.tier, o.tierSet = tier, true

	all := make([]Entity, 0, len(o.entities))
	for _, id := range slices.Sorted(maps.Keys(o.entities)) {
		tr := o.entities[id]
		all = append(all, Entity{
			ID:       id,
			Position: tr.motion.Step(now),
			Color:    tr.color,
			Label:    tr.rec.Label,
			Tier:     tier,
			Location: tr.rec.Location,
		})
	}
	culled := Cull(all, bounds)

	stats := Stats{Tier: tier, Culled: len(culled)}
	individual := culled
	keep := make(map[string]bool)
	if len(culled) > o.cfg.BatchThreshold {
		stats.Batched = true
		stats.Groups = make(map[GroupKey][]string)
		individual = nil
		groups := Group(culled)
		for _, key := range sortedKeys(groups) {
			members := groups[key]
			tex, err := o.stampLocked(be, key)
			if err != nil {
				stats.Fallback = append(stats.Fallback, key)
				individual = append(individual, members...)
				continue
			}
			for _, e := range members {
				stats.Groups[key] = append(stats.Groups[key], e.ID)
				o.placeSpriteLocked(be, key, tex, e)
				keep[e.ID] = true
			}
		}
	}
	for id, sp := range o.sprites {
		if !keep[id] {
			sp.node.Destroy()
			delete(o.sprites, id)
		}
	}
	o.trimStampsLocked(stats.Groups)

	o.syncNodesLocked(be, individual)
	for _, e := range individual {
		stats.Individual = append(stats.Individual, e.ID)
	}

	if o.pathsDirty {
		o.buildPathsLocked(be)
	}
	stats.Paths = len(o.pathLayer.Children())
	o.stats = stats
	return nil
}

// stampLocked returns the cached stamp for key, building it on first use.
// Keys that failed stay failed until the cache is dropped.
func (o *Overlay) stampLocked(be scene.Backend, key GroupKey) (scene.Texture, error) {
	if tex, ok := o.stamps[key]; ok {
		return tex, nil
	}
	if o.failed[key] {
		return nil, apperr.ResourceGeneration("overlay.stamp", "stamp failed earlier", nil)
	}
	tex, err := be.NewStamp(entityFigure(key.Tier, key.Color))
	if err != nil {
		err = apperr.ResourceGeneration("overlay.stamp", "build stamp for "+palette.Key(key.Color), err)
		o.log.Warn("stamp failed, drawing group individually", logging.Err(err), logging.String("tier", key.Tier.String()))
		o.failed[key] = true
		return nil, err
	}
	o.stamps[key] = tex
	return tex, nil
}

// trimStampsLocked keeps the cache within MaxStamps by disposing stamps
// the pass did not use. Stamps in use are never disposed, so a single pass
// with more groups than MaxStamps keeps them all until the next one.
func (o *Overlay) trimStampsLocked(used map[GroupKey][]string) {
	if o.cfg.MaxStamps <= 0 || len(o.stamps) <= o.cfg.MaxStamps {
		return
	}
	for key, tex := range o.stamps {
		if _, ok := used[key]; ok {
			continue
		}
		tex.Dispose()
		delete(o.stamps, key)
	}
	o.log.Debug("stamp cache trimmed", logging.Int("size", len(o.stamps)))
}

func (o *Overlay) placeSpriteLocked(be scene.Backend, key GroupKey, tex scene.Texture, e Entity) {
	sp, ok := o.sprites[e.ID]
	if ok && sp.key != key {
		sp.node.Destroy()
		ok = false
	}
	if !ok {
		n := be.NewSprite(tex)
		n.SetInteractive(false)
		o.layer.AddChild(n)
		sp = &sprite{key: key, node: n}
		o.sprites[e.ID] = sp
	}
	sp.node.SetPosition(e.Position)
}

// syncNodesLocked keeps one persistent node per individually drawn entity:
// new entities get a node, vanished ones lose it, the rest only move.
func (o *Overlay) syncNodesLocked(be scene.Backend, entities []Entity) {
	want := make(map[string]bool, len(entities))
	for _, e := range entities {
		want[e.ID] = true
		n, ok := o.nodes[e.ID]
		if tr := o.entities[e.ID]; ok && tr.restyle {
			n.Destroy()
			ok = false
		}
		if !ok {
			n = o.newEntityNode(be, e)
			o.layer.AddChild(n)
			o.nodes[e.ID] = n
			o.entities[e.ID].restyle = false
		}
		n.SetPosition(e.Position)
	}
	for id, n := range o.nodes {
		if !want[id] {
			n.Destroy()
			delete(o.nodes, id)
		}
	}
}

func (o *Overlay) newEntityNode(be scene.Backend, e Entity) scene.Node {
	c := be.NewContainer()
	c.SetInteractive(true)
	c.AddChild(be.NewShape(entityFigure(e.Tier, e.Color)))
	if e.Tier == TierHigh && e.Label != "" {
		l := be.NewLabel(e.Label, palette.CGA[palette.LightGray])
		l.SetPosition(geom.Pt(0, hitRadius(e.Tier)+2))
		c.AddChild(l)
	}
	return c
}

func (o *Overlay) buildPathsLocked(be scene.Backend) {
	o.pathLayer.RemoveChildren()
	for _, p := range o.paths {
		if _, ok := o.entities[p.id]; !ok {
			continue
		}
		o.pathLayer.AddChild(be.NewShape(pathFigure(p.from, p.to, p.color)))
	}
	o.pathsDirty = false
}

// dropVisualsLocked destroys every entity visual and the stamp cache.
func (o *Overlay) dropVisualsLocked() {
	for id, n := range o.nodes {
		n.Destroy()
		delete(o.nodes, id)
	}
	for id, sp := range o.sprites {
		sp.node.Destroy()
		delete(o.sprites, id)
	}
	o.dropStampsLocked()
	clear(o.failed)
}

// dropStampsLocked disposes every cached stamp along with the sprites
// drawing them.
func (o *Overlay) dropStampsLocked() {
	for id, sp := range o.sprites {
		sp.node.Destroy()
		delete(o.sprites, id)
	}
	for key, tex := range o.stamps {
		tex.Dispose()
		delete(o.stamps, key)
	}
}

// HitTest returns the individually drawn entity under world point p.
// Batched entities are not interactive.
func (o *Overlay) HitTest(p geom.Point) (world.Location, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed || !o.visible {
		return world.Location{}, false
	}
	r := hitRadius(o.tier)
	best, bestDist := "", r
	for id, n := range o.nodes {
		if !n.Interactive() {
			continue
		}
		if d := p.Dist(n.Position()); d <= bestDist {
			best, bestDist = id, d
		}
	}
	tr, ok := o.entities[best]
	if best == "" || !ok {
		return world.Location{}, false
	}
	return world.Location{
		Level:    world.LevelRegion,
		Address:  tr.rec.Location,
		EntityID: best,
		Name:     tr.rec.Label,
	}, true
}

// Destroy stops polling, waits for in-flight work and releases every
// visual and stamp. Later calls do nothing.
func (o *Overlay) Destroy() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.destroyed = true
	o.visible = false
	o.stopPollLocked()
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropVisualsLocked()
	if o.root != nil {
		o.root.Destroy()
		o.root, o.layer, o.pathLayer = nil, nil, nil
	}
	clear(o.entities)
	o.paths = nil
}
