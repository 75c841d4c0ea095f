package levels

import (
	"context"

	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Renderer = (*Galaxy)(nil)

// Galaxy shows the regions of one galaxy.
type Galaxy struct {
	*base
}

func NewGalaxy(o Options) *Galaxy {
	g := &Galaxy{base: newBase(world.LevelGalaxy, o)}
	g.fetch = g.fetchRegions
	g.layout = func(children []child, w, h float64) []item {
		return g.gridLayout(children, w, h, regionFigure)
	}
	return g
}

// SetGalaxyContext selects the galaxy to show.
func (g *Galaxy) SetGalaxyContext(server string, galaxy int) {
	g.SetAddress(world.GalaxyAddress(server, galaxy))
}

func (g *Galaxy) fetchRegions(ctx context.Context, addr world.SpatialAddress) ([]child, error) {
	res, err := g.svc.FetchGalaxyRegions(ctx, addr.Server, addr.Galaxy)
	regions, err := dataservice.Unwrap("FetchGalaxyRegions", res, err)
	if err != nil {
		return nil, err
	}
	children := make([]child, 0, len(regions))
	for _, r := range regions {
		children = append(children, child{
			index:    r.Index,
			name:     r.Name,
			presence: world.ParsePresence(r.Presence),
			count:    r.SystemCount,
		})
	}
	return children, nil
}
