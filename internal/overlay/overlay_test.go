package overlay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/palette"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/scene/scenetest"
	"github.com/spacehole-rogue/starview/internal/world"
)

func TestIndividualNodesPersistAcrossPasses(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(record("a", 1, "#ff0000"), record("b", 2, "#ff0000"), record("c", 3, "#00ff00"))
	e.load(t, "")
	e.tick()

	stats := e.ov.Stats()
	assert.False(t, stats.Batched)
	assert.Equal(t, []string{"a", "b", "c"}, stats.Individual)
	nodes := e.entityNodes()
	require.Len(t, nodes, 3)
	before := map[geom.Point]*scenetest.Node{}
	for _, n := range nodes {
		before[n.Position()] = n
	}
	aNode := before[systemAt(1).Add(spread("a"))]
	require.NotNil(t, aNode)

	// b vanishes, d appears, a stays put.
	e.svc.setEntities(record("a", 1, "#ff0000"), record("c", 3, "#00ff00"), record("d", 4, "#0000ff"))
	e.load(t, "")
	e.tick()

	assert.Len(t, e.entityNodes(), 3)
	assert.False(t, aNode.Destroyed(), "unchanged entities are never rebuilt")
	assert.True(t, before[systemAt(2).Add(spread("b"))].Destroyed())
	assert.Equal(t, 4, e.backend.Created(scenetest.KindShape), "one shape per entity ever created")
}

func TestBatchingAboveThreshold(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000", "#0000ff")...)
	e.load(t, "")
	e.tick()

	stats := e.ov.Stats()
	assert.True(t, stats.Batched)
	assert.Equal(t, 60, stats.Culled)
	assert.Len(t, stats.Groups, 2)
	assert.Empty(t, stats.Individual)
	assert.Equal(t, 2, e.backend.StampsBuilt())

	sprites := e.sprites()
	assert.Len(t, sprites, 60)
	for _, s := range sprites {
		assert.False(t, s.Interactive())
	}
	assert.Empty(t, e.entityNodes())

	_, hit := e.ov.HitTest(systemAt(1).Add(spread("e001")))
	assert.False(t, hit, "batched entities are not interactive")

	// A second pass reuses the cached stamps.
	e.view.set(1.5, geom.R(-1000, -1000, 10000, 1000))
	e.tick()
	assert.Equal(t, 2, e.backend.StampsBuilt())
}

func TestBatchingPartitionsCulledEntities(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(90, "#ff0000", "#00ff00", "#0000ff")...)
	e.load(t, "")
	// Systems 0..5 only: 54 entities stay on screen.
	e.view.set(1, geom.R(-50, 0, 550, 200))
	e.tick()

	stats := e.ov.Stats()
	require.True(t, stats.Batched)
	seen := map[string]int{}
	for _, ids := range stats.Groups {
		for _, id := range ids {
			seen[id]++
		}
	}
	assert.Len(t, seen, stats.Culled)
	assert.Equal(t, 54, stats.Culled)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestAtThresholdStaysIndividual(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(50, "#ff0000")...)
	e.load(t, "")
	e.tick()
	assert.False(t, e.ov.Stats().Batched)
	assert.Len(t, e.entityNodes(), 50)
}

func TestStampFailureFallsBackForThatGroupOnly(t *testing.T) {
	e := newEnv(t)
	red := palette.Hex("#ff0000")
	e.backend.FailStamps(func(f scene.Figure) bool { return f[0].Color == red })
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000", "#0000ff")...)
	e.load(t, "")
	e.tick()

	stats := e.ov.Stats()
	require.True(t, stats.Batched)
	assert.Equal(t, []GroupKey{{Tier: TierHigh, Color: red}}, stats.Fallback)
	assert.Len(t, stats.Individual, 30)
	assert.Len(t, stats.Groups, 1)
	assert.Len(t, e.sprites(), 30)
	assert.Len(t, e.entityNodes(), 30)

	loc, hit := e.ov.HitTest(systemAt(0).Add(spread("e000")))
	require.True(t, hit, "fallback entities are drawn individually and interactive")
	assert.Equal(t, "e000", loc.EntityID)
}

func TestTierChangeRebuildsVisuals(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000")...)
	e.load(t, "")
	e.tick()
	old := e.sprites()
	require.NotEmpty(t, old)
	oldTex := old[0].Texture()

	e.view.set(0.7, geom.R(-1000, -1000, 10000, 1000))
	e.tick()

	assert.Equal(t, TierMedium, e.ov.Stats().Tier)
	for _, s := range old {
		assert.True(t, s.Destroyed())
	}
	assert.True(t, oldTex.Disposed(), "tier change clears the stamp cache")
	assert.Equal(t, 2, e.backend.StampsBuilt())
}

func TestStampCacheIsBounded(t *testing.T) {
	e := newEnv(t, func(c *config.OverlayConfig) { c.MaxStamps = 1 })
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000", "#00ff00")...)
	e.load(t, "")
	e.tick()
	first := e.sprites()
	require.Len(t, first, 60)
	textures := map[*scenetest.Texture]bool{}
	for _, s := range first {
		textures[s.Texture()] = true
	}
	require.Len(t, textures, 2, "stamps in use are kept")

	e.svc.setEntities(crowd(60, "#0000ff")...)
	e.load(t, "")
	e.tick()
	for tex := range textures {
		assert.True(t, tex.Disposed())
	}
	assert.Len(t, e.ov.stamps, 1)
}

func TestMotionInterpolatesFromCurrentPosition(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "")
	e.tick()
	start := systemAt(1).Add(spread("a"))
	mid := systemAt(3).Add(spread("a"))
	end := systemAt(5).Add(spread("a"))

	node := e.entityNodes()[0]
	assert.Equal(t, start, node.Position())

	e.svc.setEntities(record("a", 3, "#ff0000"))
	e.load(t, "")

	var dists []float64
	for ms := 0; ms <= 500; ms += 100 {
		e.clock.Set(epoch.Add(time.Duration(ms) * time.Millisecond))
		e.tick()
		dists = append(dists, node.Position().Dist(mid))
	}
	for i := 1; i < len(dists); i++ {
		assert.Less(t, dists[i], dists[i-1])
	}
	assert.Equal(t, mid, node.Position(), "exact target at the end of the motion")

	// Retarget half way through a second move: motion restarts from the
	// visual position, not from the last server position.
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "")
	e.clock.Set(epoch.Add(750 * time.Millisecond))
	e.tick()
	half := node.Position()
	assert.InDelta(t, mid.Lerp(start, 0.5).X, half.X, 1e-6)

	e.svc.setEntities(record("a", 5, "#ff0000"))
	e.load(t, "")
	e.clock.Set(epoch.Add(750*time.Millisecond + time.Millisecond))
	e.tick()
	assert.Less(t, node.Position().Dist(half), 5.0)

	e.clock.Set(epoch.Add(2 * time.Second))
	e.tick()
	assert.Equal(t, end, node.Position())
}

func TestMovementPaths(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(
		record("ok", 1, "#ff0000"),
		record("away", 2, "#ff0000"),
		record("broken", 3, "#ff0000"),
		record("idle", 4, "#ff0000"),
	)
	e.svc.details["ok"] = world.EntityDetail{ID: "ok", Movement: &world.Movement{Origin: sys(1), Destination: sys(6)}}
	e.svc.details["away"] = world.EntityDetail{ID: "away", Movement: &world.Movement{
		Origin:      sys(2),
		Destination: world.SystemAddress("alpha", 0, 9, 1),
	}}
	e.svc.details["broken"] = world.EntityDetail{ID: "broken", Movement: &world.Movement{Origin: sys(3), Destination: sys(7)}}
	e.svc.failIDs["broken"] = true

	e.load(t, "")
	require.NoError(t, e.ov.LoadMovementPaths(context.Background()))
	e.tick()

	assert.Equal(t, int32(4), e.svc.detailCalls.Load())
	assert.Equal(t, 1, e.ov.Stats().Paths)

	paths := e.backend.Find(func(n *scenetest.Node) bool {
		f := n.Figure()
		return len(f) == 2 && f[0].Kind == scene.ShapeLine && n.Attached()
	})
	require.Len(t, paths, 1)
	f := paths[0].Figure()
	assert.Equal(t, systemAt(1), f[0].Offset)
	assert.Equal(t, systemAt(6), f[0].To)
	assert.Greater(t, f[0].StrokeWidth, f[1].StrokeWidth, "halo is wider than the core")
	assert.Less(t, f[0].Color.A, f[1].Color.A, "halo is fainter than the core")
}

func TestLoadEntitiesDropsOverlappingRefresh(t *testing.T) {
	e := newEnv(t)
	e.svc.setEntities(record("a", 1, "#ff0000"))
	release := make(chan struct{})
	started := make(chan struct{})
	e.svc.mu.Lock()
	e.svc.block, e.svc.started = release, started
	e.svc.mu.Unlock()

	done := make(chan error)
	go func() { done <- e.ov.LoadEntities(context.Background(), "") }()
	<-started

	e.svc.mu.Lock()
	e.svc.started = nil
	e.svc.mu.Unlock()
	assert.NoError(t, e.ov.LoadEntities(context.Background(), ""))
	assert.Equal(t, int32(1), e.svc.listCalls.Load(), "the second refresh is dropped, not queued")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, e.ov.Count())
}

// regionResolver places system i of one region at (100i, 100).
type regionResolver struct{ region world.SpatialAddress }

func (r regionResolver) CoordToWorld(addr world.SpatialAddress) (geom.Point, bool) {
	if !addr.SameRegion(r.region) || addr.System < 0 {
		return geom.Point{}, false
	}
	return systemAt(addr.System), true
}

func TestLoadForNewRegionReplacesStaleFetch(t *testing.T) {
	e := newEnv(t)
	next := world.RegionAddress("alpha", 0, 5)
	e.svc.setEntities(
		record("a", 1, "#ff0000"),
		world.EntityRecord{ID: "b", OwnerID: "p-b", Color: "#00ff00", Location: world.SystemAddress("alpha", 0, 5, 2)},
	)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	e.svc.mu.Lock()
	e.svc.block, e.svc.started = release, started
	e.svc.mu.Unlock()

	done := make(chan error)
	go func() { done <- e.ov.LoadEntities(context.Background(), "") }()
	<-started

	e.svc.mu.Lock()
	e.svc.block, e.svc.started = nil, nil
	e.svc.mu.Unlock()
	e.ov.SetAddress(next)
	e.ov.SetResolver(regionResolver{region: next})

	require.NoError(t, e.ov.LoadEntities(context.Background(), ""))
	assert.Equal(t, int32(2), e.svc.listCalls.Load(), "the new region is fetched, not dropped")
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, e.ov.Count())

	e.show()
	e.tick()
	require.Len(t, e.entityNodes(), 1)
	assert.Equal(t, systemAt(2).Add(spread("b")), e.entityNodes()[0].Position())
}

func TestMissingResolverKeepsPreviousSet(t *testing.T) {
	e := newEnv(t)
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "")

	e.ov.SetResolver(nil)
	err := e.ov.LoadEntities(context.Background(), "")
	assert.True(t, apperr.IsProgrammer(err))
	assert.Equal(t, int32(1), e.svc.listCalls.Load())
	assert.Equal(t, 1, e.ov.Count())
}

func TestFailedFetchKeepsPreviousSet(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(record("a", 1, "#ff0000"), record("b", 2, "#ff0000"))
	e.load(t, "")
	e.tick()
	nodes := e.entityNodes()

	e.svc.mu.Lock()
	e.svc.failList = true
	e.svc.mu.Unlock()
	err := e.ov.LoadEntities(context.Background(), "")
	assert.True(t, apperr.IsTransient(err))
	e.tick()

	assert.Equal(t, 2, e.ov.Count())
	for _, n := range nodes {
		assert.False(t, n.Destroyed())
	}
}

func TestOwnerFilterIsExplicit(t *testing.T) {
	e := newEnv(t)
	e.svc.setEntities(record("a", 1, "#ff0000"), record("b", 2, "#00ff00"), record("c", 3, "#ff0000"))
	e.load(t, "p-#ff0000")
	assert.Equal(t, 2, e.ov.Count())

	e.load(t, "")
	assert.Equal(t, 3, e.ov.Count())
}

func TestEntitiesOutsideRegionAreSkipped(t *testing.T) {
	e := newEnv(t)
	e.svc.setEntities(record("a", 1, "#ff0000"), record("far", 60, "#ff0000"))
	e.load(t, "")
	assert.Equal(t, 1, e.ov.Count())
}

func TestUnboundOverlayRefusesToLoad(t *testing.T) {
	e := newEnv(t)
	e.ov.SetAddress(world.GalaxyAddress("alpha", 0))
	err := e.ov.LoadEntities(context.Background(), "")
	assert.True(t, apperr.IsProgrammer(err))
	assert.Zero(t, e.svc.listCalls.Load())
}

func TestHiddenOverlaySkipsPasses(t *testing.T) {
	e := newEnv(t)
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "")
	e.tick()
	assert.Zero(t, e.backend.Created(scenetest.KindShape))

	e.show()
	e.tick()
	assert.Equal(t, 1, e.backend.Created(scenetest.KindShape))
	e.ov.SetVisible(false)
	for _, n := range e.entityNodes() {
		assert.False(t, n.Shown())
	}
}

func TestPollingRefreshesWhileVisible(t *testing.T) {
	e := newEnv(t, func(c *config.OverlayConfig) { c.PollInterval = 5 * time.Millisecond })
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "p-#ff0000")

	e.show()
	require.Eventually(t, func() bool { return e.svc.listCalls.Load() >= 3 }, time.Second, time.Millisecond)

	e.ov.SetVisible(false)
	e.ov.Destroy()
	calls := e.svc.listCalls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, e.svc.listCalls.Load(), "no poll survives Destroy")
}

func TestBindMovesVisualsToNewBackend(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000")...)
	e.load(t, "")
	e.tick()
	oldSprites := e.sprites()

	next := scenetest.NewBackend(800, 600)
	e.handle.Revoke()
	e.ov.Bind(scene.NewHandle(next))
	e.tick()

	for _, s := range oldSprites {
		assert.True(t, s.Destroyed())
		assert.True(t, s.Texture().Disposed())
	}
	assert.Equal(t, 1, next.StampsBuilt())
	assert.Equal(t, 60, next.Created(scenetest.KindSprite))
	assert.Equal(t, 60, e.ov.Count(), "entities survive a rebind")
}

func TestPassOnRevokedHandleIsSkipped(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(record("a", 1, "#ff0000"))
	e.load(t, "")
	e.handle.Revoke()
	assert.NotPanics(t, e.tick)
	assert.Zero(t, e.backend.Created(scenetest.KindShape))
}

func TestDestroyReleasesEverything(t *testing.T) {
	e := newEnv(t)
	e.show()
	e.svc.setEntities(crowd(60, "#ff0000")...)
	e.load(t, "")
	e.tick()
	sprites := e.sprites()

	e.ov.Destroy()
	e.ov.Destroy()
	for _, s := range sprites {
		assert.True(t, s.Destroyed())
		assert.True(t, s.Texture().Disposed())
	}
	assert.Zero(t, e.ov.Count())
	assert.False(t, e.ov.Visible())
	e.ov.SetVisible(true)
	assert.False(t, e.ov.Visible())
}
