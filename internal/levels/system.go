package levels

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Renderer = (*System)(nil)

// goldenAngle spreads consecutive bodies around the star without lining
// them up.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

const (
	starRadius       = 14
	placeholderSlots = 5
	minHitRadius     = 8
)

// System shows the star and bodies of one system on concentric orbits.
type System struct {
	*base
	star world.StarType
}

func NewSystem(o Options) *System {
	s := &System{base: newBase(world.LevelSystem, o)}
	s.fetch = s.fetchBodies
	s.layout = s.orbitLayout
	s.placeholder = s.rowPlaceholder
	return s
}

// SetSystemContext selects the system to show.
func (s *System) SetSystemContext(server string, galaxy, region, system int) {
	s.SetAddress(world.SystemAddress(server, galaxy, region, system))
}

// fetchBodies asks for the bodies and, alongside, the region's system list
// for this system's star type. A failed star lookup keeps the default star.
func (s *System) fetchBodies(ctx context.Context, addr world.SpatialAddress) ([]child, error) {
	var (
		g      errgroup.Group
		bodies []world.Body
		star   world.StarType
	)
	g.Go(func() error {
		res, err := s.svc.FetchSystemBodies(ctx, addr.Server, addr.Galaxy, addr.Region, addr.System)
		bodies, err = dataservice.Unwrap("FetchSystemBodies", res, err)
		return err
	})
	g.Go(func() error {
		res, err := s.svc.FetchRegionSystems(ctx, addr.Server, addr.Galaxy, addr.Region)
		systems, err := dataservice.Unwrap("FetchRegionSystems", res, err)
		if err != nil {
			s.log.Debug("star type unavailable", logging.Err(err))
			return nil
		}
		for _, sys := range systems {
			if sys.Index == addr.System {
				star = sys.StarType
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.star = star
	s.mu.Unlock()

	children := make([]child, 0, len(bodies))
	for _, bd := range bodies {
		children = append(children, child{
			index:    bd.Index,
			name:     bd.Name,
			presence: world.ParsePresence(bd.Presence),
			body:     bd.Kind,
			size:     bd.Size,
		})
	}
	return children, nil
}

// orbitLayout puts the star at the center and body i on orbit i+1.
func (s *System) orbitLayout(children []child, w, h float64) []item {
	s.mu.Lock()
	star := s.star
	s.mu.Unlock()

	center := geom.Pt(w/2, h/2)
	step := max(min(w, h)/2-s.grid.Padding, 0) / float64(len(children))

	items := make([]item, 0, 2*len(children)+1)
	for i := range children {
		items = append(items, item{
			index:  -1,
			pos:    center,
			figure: scene.Figure{{Kind: scene.ShapeRing, Radius: step * float64(i+1), StrokeWidth: 1, Color: orbitColor}},
		})
	}
	items = append(items, item{
		index: -1,
		pos:   center,
		figure: scene.Figure{
			{Kind: scene.ShapeCircle, Radius: starRadius * 2, Color: starGlow(star)},
			{Kind: scene.ShapeCircle, Radius: starRadius, Color: starColor(star)},
		},
	})
	for i, c := range children {
		angle := goldenAngle * float64(i)
		orbit := step * float64(i+1)
		pos := center.Add(geom.Pt(math.Cos(angle)*orbit, math.Sin(angle)*orbit))
		items = append(items, item{
			index:  c.index,
			name:   c.name,
			pos:    pos,
			radius: max(bodyRadius(c), minHitRadius),
			figure: bodyFigure(c),
			label:  c.name,
		})
	}
	return items
}

// rowPlaceholder is an evenly spaced row of empty orbits across the middle.
func (s *System) rowPlaceholder(w, h float64) []item {
	span := max(w-2*s.grid.Padding, 0)
	items := make([]item, 0, placeholderSlots)
	for i := 0; i < placeholderSlots; i++ {
		x := s.grid.Padding + span*float64(i)/float64(placeholderSlots-1)
		items = append(items, item{index: -1, pos: geom.Pt(x, h/2), figure: placeholderFigure(minHitRadius)})
	}
	return items
}
