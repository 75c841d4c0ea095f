package levels

import (
	"context"

	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Renderer = (*Region)(nil)

// Region shows the star systems of one region. It also resolves system
// addresses to world points for the entity overlay.
type Region struct {
	*base
}

func NewRegion(o Options) *Region {
	r := &Region{base: newBase(world.LevelRegion, o)}
	r.fetch = r.fetchSystems
	r.layout = func(children []child, w, h float64) []item {
		return r.gridLayout(children, w, h, systemFigure)
	}
	return r
}

// SetRegionContext selects the region to show.
func (r *Region) SetRegionContext(server string, galaxy, region int) {
	r.SetAddress(world.RegionAddress(server, galaxy, region))
}

func (r *Region) fetchSystems(ctx context.Context, addr world.SpatialAddress) ([]child, error) {
	res, err := r.svc.FetchRegionSystems(ctx, addr.Server, addr.Galaxy, addr.Region)
	systems, err := dataservice.Unwrap("FetchRegionSystems", res, err)
	if err != nil {
		return nil, err
	}
	children := make([]child, 0, len(systems))
	for _, s := range systems {
		children = append(children, child{
			index:    s.Index,
			name:     s.Name,
			presence: world.ParsePresence(s.Presence),
			star:     s.StarType,
			count:    s.BodyCount,
		})
	}
	return children, nil
}

// CoordToWorld returns where a system of this region is drawn. Addresses
// outside the region, coarser than a system, or not laid out resolve to
// false.
func (r *Region) CoordToWorld(addr world.SpatialAddress) (geom.Point, bool) {
	if addr.System < 0 || !addr.Valid() || !addr.SameRegion(r.Address()) {
		return geom.Point{}, false
	}
	it, ok := r.itemAt(addr.System)
	if !ok {
		return geom.Point{}, false
	}
	return it.pos, true
}
