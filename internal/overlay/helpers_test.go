package overlay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/scene/scenetest"
	"github.com/spacehole-rogue/starview/internal/world"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var region = world.RegionAddress("alpha", 0, 4)

func sys(i int) world.SpatialAddress { return world.SystemAddress("alpha", 0, 4, i) }

// gridResolver places system i of the test region at (100i, 100).
type gridResolver struct{}

func (gridResolver) CoordToWorld(addr world.SpatialAddress) (geom.Point, bool) {
	if !addr.SameRegion(region) || addr.System < 0 || addr.System >= 50 {
		return geom.Point{}, false
	}
	return systemAt(addr.System), true
}

func systemAt(i int) geom.Point { return geom.Pt(float64(100*i), 100) }

type fakeView struct {
	mu     sync.Mutex
	scale  float64
	bounds geom.Rect
}

func (v *fakeView) Scale() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scale
}

func (v *fakeView) ViewBounds() geom.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

func (v *fakeView) set(scale float64, bounds geom.Rect) {
	v.mu.Lock()
	v.scale, v.bounds = scale, bounds
	v.mu.Unlock()
}

// fakeService answers entity calls from in-memory tables.
type fakeService struct {
	dataservice.Service

	mu       sync.Mutex
	entities []world.EntityRecord
	details  map[string]world.EntityDetail
	failIDs  map[string]bool
	failList bool
	block    chan struct{}
	started  chan struct{}

	listCalls   atomic.Int32
	detailCalls atomic.Int32
}

func newFakeService() *fakeService {
	return &fakeService{details: map[string]world.EntityDetail{}, failIDs: map[string]bool{}}
}

func (s *fakeService) setEntities(recs ...world.EntityRecord) {
	s.mu.Lock()
	s.entities = recs
	s.mu.Unlock()
}

func (s *fakeService) FetchEntities(ctx context.Context, scope world.SpatialAddress) (dataservice.Result[[]world.EntityRecord], error) {
	s.listCalls.Add(1)
	s.mu.Lock()
	block, started := s.block, s.started
	s.mu.Unlock()
	if block != nil {
		if started != nil {
			close(started)
		}
		select {
		case <-block:
		case <-ctx.Done():
			return dataservice.Result[[]world.EntityRecord]{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return dataservice.Fail[[]world.EntityRecord]("list unavailable"), nil
	}
	var out []world.EntityRecord
	for _, e := range s.entities {
		if e.Location.SameRegion(scope) {
			out = append(out, e)
		}
	}
	return dataservice.OK(out), nil
}

func (s *fakeService) FetchEntityDetail(ctx context.Context, id string) (dataservice.Result[world.EntityDetail], error) {
	s.detailCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[id] {
		return dataservice.Result[world.EntityDetail]{}, fmt.Errorf("detail %s: boom", id)
	}
	d, ok := s.details[id]
	if !ok {
		return dataservice.OK(world.EntityDetail{ID: id}), nil
	}
	return dataservice.OK(d), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type env struct {
	backend *scenetest.Backend
	handle  *scene.Handle
	svc     *fakeService
	view    *fakeView
	clock   *fakeClock
	cfg     config.OverlayConfig
	ov      *Overlay
}

func testConfig() config.OverlayConfig {
	return config.OverlayConfig{
		LODHigh:           1.0,
		LODMedium:         0.5,
		BatchThreshold:    50,
		MotionDuration:    500 * time.Millisecond,
		PollInterval:      time.Hour,
		MaxStamps:         64,
		DetailConcurrency: 4,
	}
}

func newEnv(t *testing.T, mutate ...func(*config.OverlayConfig)) *env {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	e := &env{
		backend: scenetest.NewBackend(800, 600),
		svc:     newFakeService(),
		view:    &fakeView{scale: 1, bounds: geom.R(-1000, -1000, 10000, 1000)},
		clock:   &fakeClock{now: epoch},
		cfg:     cfg,
	}
	e.handle = scene.NewHandle(e.backend)
	e.ov = New(Options{
		Handle:   e.handle,
		Service:  e.svc,
		View:     e.view,
		Resolver: gridResolver{},
		Config:   cfg,
		Clock:    e.clock.Now,
	})
	e.ov.SetAddress(region)
	t.Cleanup(e.ov.Destroy)
	return e
}

// show makes the overlay visible. The default poll interval is long enough
// that no poll fires during a test.
func (e *env) show() {
	e.ov.SetVisible(true)
}

func (e *env) load(t *testing.T, filter string) {
	t.Helper()
	require.NoError(t, e.ov.LoadEntities(context.Background(), filter))
}

func (e *env) tick() {
	e.ov.Tick(e.clock.Now())
}

func record(id string, system int, clr string) world.EntityRecord {
	return world.EntityRecord{ID: id, OwnerID: "p-" + clr, Color: clr, Label: "Fleet " + id, Location: sys(system)}
}

// crowd builds n entities spread over systems 0..9 with the given colors
// used round robin.
func crowd(n int, colors ...string) []world.EntityRecord {
	out := make([]world.EntityRecord, n)
	for i := range out {
		out[i] = record(fmt.Sprintf("e%03d", i), i%10, colors[i%len(colors)])
	}
	return out
}

func (e *env) entityNodes() []*scenetest.Node {
	return e.backend.Find(func(n *scenetest.Node) bool {
		return n.Kind() == scenetest.KindContainer && n.Interactive() && n.Attached()
	})
}

func (e *env) sprites() []*scenetest.Node {
	return e.backend.Find(func(n *scenetest.Node) bool {
		return n.Kind() == scenetest.KindSprite && n.Attached()
	})
}
