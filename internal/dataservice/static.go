package dataservice

import (
	"context"
	"fmt"
	"time"

	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Service = (*StaticService)(nil)

// StaticService serves a Fixture from memory. Entities advance along their
// routes as the clock moves, so polling sees them travel.
type StaticService struct {
	fixture *Fixture
	now     func() time.Time
	epoch   time.Time
	latency time.Duration
}

// StaticOption configures a StaticService.
type StaticOption func(*StaticService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StaticOption {
	return func(s *StaticService) { s.now = now }
}

// WithEpoch sets the instant every route starts from.
func WithEpoch(t time.Time) StaticOption {
	return func(s *StaticService) { s.epoch = t }
}

// WithLatency delays every answer, honoring cancellation.
func WithLatency(d time.Duration) StaticOption {
	return func(s *StaticService) { s.latency = d }
}

// NewStaticService serves f. The fixture must already be validated.
func NewStaticService(f *Fixture, opts ...StaticOption) *StaticService {
	s := &StaticService{fixture: f, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.epoch.IsZero() {
		s.epoch = s.now()
	}
	return s
}

func (s *StaticService) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *StaticService) FetchUniverseSummary(ctx context.Context, server string) (Result[world.UniverseSummary], error) {
	if err := s.wait(ctx); err != nil {
		return Result[world.UniverseSummary]{}, err
	}
	if server != s.fixture.Server {
		return Fail[world.UniverseSummary](fmt.Sprintf("unknown server %q", server)), nil
	}
	sum := world.UniverseSummary{Server: server}
	for _, g := range s.fixture.Galaxies {
		sum.Galaxies = append(sum.Galaxies, g.GalaxySummary)
	}
	return OK(sum), nil
}

func (s *StaticService) FetchGalaxyRegions(ctx context.Context, server string, galaxy int) (Result[[]world.RegionSummary], error) {
	if err := s.wait(ctx); err != nil {
		return Result[[]world.RegionSummary]{}, err
	}
	g := s.fixture.galaxy(galaxy)
	if server != s.fixture.Server || g == nil {
		return Fail[[]world.RegionSummary]("galaxy not found"), nil
	}
	out := make([]world.RegionSummary, 0, len(g.Regions))
	for _, r := range g.Regions {
		out = append(out, r.RegionSummary)
	}
	return OK(out), nil
}

func (s *StaticService) FetchRegionSystems(ctx context.Context, server string, galaxy, region int) (Result[[]world.SystemSummary], error) {
	if err := s.wait(ctx); err != nil {
		return Result[[]world.SystemSummary]{}, err
	}
	r := s.fixture.region(galaxy, region)
	if server != s.fixture.Server || r == nil {
		return Fail[[]world.SystemSummary]("region not found"), nil
	}
	out := make([]world.SystemSummary, 0, len(r.Systems))
	for _, sys := range r.Systems {
		out = append(out, sys.SystemSummary)
	}
	return OK(out), nil
}

func (s *StaticService) FetchSystemBodies(ctx context.Context, server string, galaxy, region, system int) (Result[[]world.Body], error) {
	if err := s.wait(ctx); err != nil {
		return Result[[]world.Body]{}, err
	}
	sys := s.fixture.system(galaxy, region, system)
	if server != s.fixture.Server || sys == nil {
		return Fail[[]world.Body]("system not found"), nil
	}
	return OK(append([]world.Body(nil), sys.Bodies...)), nil
}

func (s *StaticService) FetchEntities(ctx context.Context, scope world.SpatialAddress) (Result[[]world.EntityRecord], error) {
	if err := s.wait(ctx); err != nil {
		return Result[[]world.EntityRecord]{}, err
	}
	if scope.Server != s.fixture.Server || !scope.Valid() {
		return Fail[[]world.EntityRecord]("invalid scope"), nil
	}
	now := s.now()
	depth := scope.Depth()
	out := []world.EntityRecord{}
	for i := range s.fixture.Entities {
		e := &s.fixture.Entities[i]
		leg := s.legAt(e, now)
		loc := e.Route[leg.from]
		if loc.Truncate(depth) != scope.Truncate(depth) {
			continue
		}
		out = append(out, world.EntityRecord{
			ID:       e.ID,
			OwnerID:  e.OwnerID,
			Color:    e.Color,
			Label:    e.Label,
			Location: loc,
		})
	}
	return OK(out), nil
}

func (s *StaticService) FetchEntityDetail(ctx context.Context, id string) (Result[world.EntityDetail], error) {
	if err := s.wait(ctx); err != nil {
		return Result[world.EntityDetail]{}, err
	}
	for i := range s.fixture.Entities {
		e := &s.fixture.Entities[i]
		if e.ID != id {
			continue
		}
		detail := world.EntityDetail{ID: id}
		if len(e.Route) > 1 {
			leg := s.legAt(e, s.now())
			detail.Movement = &world.Movement{
				Origin:      e.Route[leg.from],
				Destination: e.Route[leg.to],
				DepartAt:    leg.depart,
				ArriveAt:    leg.depart.Add(time.Duration(e.Leg)),
			}
		}
		return OK(detail), nil
	}
	return Fail[world.EntityDetail]("entity not found"), nil
}

type routeLeg struct {
	from, to int
	depart   time.Time
}

// legAt returns the hop an entity is on at now.
func (s *StaticService) legAt(e *EntityDef, now time.Time) routeLeg {
	n := len(e.Route)
	if n == 1 || e.Leg <= 0 {
		return routeLeg{from: 0, to: 0, depart: s.epoch}
	}
	elapsed := now.Sub(s.epoch)
	if elapsed < 0 {
		elapsed = 0
	}
	k := int64(elapsed / time.Duration(e.Leg))
	return routeLeg{
		from:   int(k % int64(n)),
		to:     int((k + 1) % int64(n)),
		depart: s.epoch.Add(time.Duration(k) * time.Duration(e.Leg)),
	}
}
