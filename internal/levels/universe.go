package levels

import (
	"context"

	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Renderer = (*Universe)(nil)

// Universe shows the galaxies of one server.
type Universe struct {
	*base
}

func NewUniverse(o Options) *Universe {
	u := &Universe{base: newBase(world.LevelUniverse, o)}
	u.fetch = u.fetchGalaxies
	u.layout = func(children []child, w, h float64) []item {
		return u.gridLayout(children, w, h, galaxyFigure)
	}
	return u
}

// SetUniverseContext selects the server to show.
func (u *Universe) SetUniverseContext(server string) {
	u.SetAddress(world.ServerAddress(server))
}

func (u *Universe) fetchGalaxies(ctx context.Context, addr world.SpatialAddress) ([]child, error) {
	res, err := u.svc.FetchUniverseSummary(ctx, addr.Server)
	sum, err := dataservice.Unwrap("FetchUniverseSummary", res, err)
	if err != nil {
		return nil, err
	}
	children := make([]child, 0, len(sum.Galaxies))
	for _, g := range sum.Galaxies {
		children = append(children, child{
			index:    g.Index,
			name:     g.Name,
			presence: world.ParsePresence(g.Presence),
			count:    g.RegionCount,
		})
	}
	return children, nil
}
