package dataservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/world"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate("alpha", 42)
	b := Generate("alpha", 42)
	assert.Equal(t, a, b)

	c := Generate("alpha", 43)
	assert.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 99, 12345} {
		f := Generate("alpha", seed)
		require.NoError(t, f.Validate())

		require.GreaterOrEqual(t, len(f.Galaxies), minGalaxies)
		home := f.Galaxies[0].Regions[0]
		assert.Equal(t, 0, home.Index)
		assert.Equal(t, "home", home.Presence)

		for _, g := range f.Galaxies {
			for _, r := range g.Regions {
				assert.Less(t, r.Index, gridCells)
				for _, s := range r.Systems {
					assert.Less(t, s.Index, gridCells)
					assert.GreaterOrEqual(t, len(s.Bodies), minBodies)
				}
			}
		}
	}
}

func TestGenerateBusyRegionBatches(t *testing.T) {
	s := NewStaticService(Generate("alpha", 7))
	ents, err := unwrap(s.FetchEntities(context.Background(), world.RegionAddress("alpha", 0, 0)))
	require.NoError(t, err)
	assert.Greater(t, len(ents), 50)
}
