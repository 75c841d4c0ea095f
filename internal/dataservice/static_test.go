package dataservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/world"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func unwrap[T any](r Result[T], err error) (T, error) {
	return Unwrap("test", r, err)
}

func newStatic(t *testing.T) (*StaticService, *fakeClock) {
	t.Helper()
	f, err := LoadFixture([]byte(sampleFixture))
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewStaticService(f, WithClock(clock.Now)), clock
}

func TestStaticHierarchy(t *testing.T) {
	s, _ := newStatic(t)
	ctx := context.Background()

	uni, err := unwrap(s.FetchUniverseSummary(ctx, "alpha"))
	require.NoError(t, err)
	require.Len(t, uni.Galaxies, 1)
	assert.Equal(t, "Andromeda", uni.Galaxies[0].Name)

	regions, err := unwrap(s.FetchGalaxyRegions(ctx, "alpha", 0))
	require.NoError(t, err)
	assert.Len(t, regions, 1)

	systems, err := unwrap(s.FetchRegionSystems(ctx, "alpha", 0, 0))
	require.NoError(t, err)
	assert.Len(t, systems, 2)

	bodies, err := unwrap(s.FetchSystemBodies(ctx, "alpha", 0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, "Vega I", bodies[0].Name)

	_, err = unwrap(s.FetchRegionSystems(ctx, "alpha", 0, 9))
	assert.True(t, apperr.IsTransient(err))

	_, err = unwrap(s.FetchUniverseSummary(ctx, "beta"))
	assert.True(t, apperr.IsTransient(err))
}

func TestStaticEntitiesMoveAlongRoute(t *testing.T) {
	s, clock := newStatic(t)
	ctx := context.Background()
	scope := world.RegionAddress("alpha", 0, 0)

	ents, err := unwrap(s.FetchEntities(ctx, scope))
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, 3, ents[1].Location.System)

	clock.Add(31 * time.Second)
	ents, err = unwrap(s.FetchEntities(ctx, scope))
	require.NoError(t, err)
	assert.Equal(t, 7, ents[1].Location.System)
	assert.Equal(t, 3, ents[0].Location.System, "single stop entities never move")

	ents, err = unwrap(s.FetchEntities(ctx, world.SystemAddress("alpha", 0, 0, 3)))
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "f1", ents[0].ID)
}

func TestStaticEntityDetail(t *testing.T) {
	s, clock := newStatic(t)
	ctx := context.Background()

	d, err := unwrap(s.FetchEntityDetail(ctx, "f1"))
	require.NoError(t, err)
	assert.Nil(t, d.Movement)

	clock.Add(45 * time.Second)
	d, err = unwrap(s.FetchEntityDetail(ctx, "f2"))
	require.NoError(t, err)
	require.NotNil(t, d.Movement)
	assert.Equal(t, 7, d.Movement.Origin.System)
	assert.Equal(t, 3, d.Movement.Destination.System)
	assert.Equal(t, 30*time.Second, d.Movement.ArriveAt.Sub(d.Movement.DepartAt))

	_, err = unwrap(s.FetchEntityDetail(ctx, "missing"))
	assert.True(t, apperr.IsTransient(err))
}

func TestStaticLatencyHonorsContext(t *testing.T) {
	f, err := LoadFixture([]byte(sampleFixture))
	require.NoError(t, err)
	s := NewStaticService(f, WithLatency(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchUniverseSummary(ctx, "alpha")
	assert.ErrorIs(t, err, context.Canceled)
}
