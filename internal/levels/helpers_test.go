package levels

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/scene/scenetest"
	"github.com/spacehole-rogue/starview/internal/world"
)

const screenW, screenH = 1000, 600

type fixedSize struct{ w, h float64 }

func (s fixedSize) Size() (float64, float64) { return s.w, s.h }

func testFixture() *dataservice.Fixture {
	f := &dataservice.Fixture{
		Server: "alpha",
		Galaxies: []dataservice.GalaxyDef{{
			GalaxySummary: world.GalaxySummary{Index: 0, Name: "Andromeda", Presence: "home"},
			Regions: []dataservice.RegionDef{
				{
					RegionSummary: world.RegionSummary{Index: 0, Name: "Alpha-00"},
					Systems: []dataservice.SystemDef{
						{
							SystemSummary: world.SystemSummary{Index: 12, Name: "Vega", StarType: world.StarBlue},
							Bodies: []world.Body{
								{Index: 0, Name: "Vega I", Kind: world.BodyIce, Size: 2},
								{Index: 1, Name: "Vega II", Kind: world.BodyGasGiant, Size: 5},
								{Index: 2, Name: "Vega Station", Kind: world.BodyStation, Size: 1},
							},
						},
						{SystemSummary: world.SystemSummary{Index: 57, Name: "Nyx", StarType: world.StarRed}},
						{SystemSummary: world.SystemSummary{Index: 140, Name: "Far Out"}},
					},
				},
				{RegionSummary: world.RegionSummary{Index: 99, Name: "Edge"}},
			},
		}},
	}
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// countingService counts fetches and can be switched to fail every call.
type countingService struct {
	dataservice.Service
	calls atomic.Int32
	fail  atomic.Bool
}

var errBackendDown = errors.New("backend down")

func (s *countingService) check() error {
	s.calls.Add(1)
	if s.fail.Load() {
		return errBackendDown
	}
	return nil
}

func (s *countingService) FetchUniverseSummary(ctx context.Context, server string) (dataservice.Result[world.UniverseSummary], error) {
	if err := s.check(); err != nil {
		return dataservice.Result[world.UniverseSummary]{}, err
	}
	return s.Service.FetchUniverseSummary(ctx, server)
}

func (s *countingService) FetchGalaxyRegions(ctx context.Context, server string, galaxy int) (dataservice.Result[[]world.RegionSummary], error) {
	if err := s.check(); err != nil {
		return dataservice.Result[[]world.RegionSummary]{}, err
	}
	return s.Service.FetchGalaxyRegions(ctx, server, galaxy)
}

func (s *countingService) FetchRegionSystems(ctx context.Context, server string, galaxy, region int) (dataservice.Result[[]world.SystemSummary], error) {
	if err := s.check(); err != nil {
		return dataservice.Result[[]world.SystemSummary]{}, err
	}
	return s.Service.FetchRegionSystems(ctx, server, galaxy, region)
}

func (s *countingService) FetchSystemBodies(ctx context.Context, server string, galaxy, region, system int) (dataservice.Result[[]world.Body], error) {
	if err := s.check(); err != nil {
		return dataservice.Result[[]world.Body]{}, err
	}
	return s.Service.FetchSystemBodies(ctx, server, galaxy, region, system)
}

type env struct {
	backend *scenetest.Backend
	handle  *scene.Handle
	svc     *countingService
	opts    Options
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := scenetest.NewBackend(screenW, screenH)
	h := scene.NewHandle(b)
	svc := &countingService{Service: dataservice.NewStaticService(testFixture())}
	return &env{
		backend: b,
		handle:  h,
		svc:     svc,
		opts: Options{
			Handle:  h,
			Service: svc,
			View:    fixedSize{screenW, screenH},
			Layout:  config.LayoutConfig{GridSize: 10, Padding: 40},
		},
	}
}

// shapes returns the live shape nodes under the backend root.
func (e *env) shapes() []*scenetest.Node {
	return e.backend.Find(func(n *scenetest.Node) bool {
		return n.Kind() == scenetest.KindShape && n.Attached()
	})
}

func (e *env) labels() []string {
	var out []string
	for _, n := range e.backend.Find(func(n *scenetest.Node) bool { return n.Kind() == scenetest.KindLabel }) {
		out = append(out, n.Label())
	}
	return out
}

func mustRender(t *testing.T, r Renderer) {
	t.Helper()
	require.NoError(t, r.Render(context.Background()))
}
