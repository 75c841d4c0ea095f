package dataservice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spacehole-rogue/starview/internal/world"
)

// Fixture is the JSON-serializable content of a whole server, served by
// StaticService.
type Fixture struct {
	Server   string      `json:"server"`
	Galaxies []GalaxyDef `json:"galaxies"`
	Entities []EntityDef `json:"entities"`
}

// GalaxyDef is a galaxy with its regions.
type GalaxyDef struct {
	world.GalaxySummary
	Regions []RegionDef `json:"regions"`
}

// RegionDef is a region with its systems.
type RegionDef struct {
	world.RegionSummary
	Systems []SystemDef `json:"systems"`
}

// SystemDef is a system with its bodies.
type SystemDef struct {
	world.SystemSummary
	Bodies []world.Body `json:"bodies"`
}

// EntityDef is a dynamic entity that cycles through Route, spending Leg on
// each hop. A single-stop route never moves.
type EntityDef struct {
	ID      string                 `json:"id"`
	OwnerID string                 `json:"owner_id"`
	Color   string                 `json:"color"`
	Label   string                 `json:"label,omitempty"`
	Route   []world.SpatialAddress `json:"route"`
	Leg     Duration               `json:"leg"`
}

// Duration decodes "90s" style strings.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadFixture parses a Fixture from JSON bytes and validates it.
func LoadFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks index uniqueness, fills in derived counts and checks
// every entity route stays on this server.
func (f *Fixture) Validate() error {
	if f.Server == "" {
		return fmt.Errorf("fixture has no server name")
	}
	galaxies := map[int]bool{}
	for gi := range f.Galaxies {
		g := &f.Galaxies[gi]
		if galaxies[g.Index] {
			return fmt.Errorf("duplicate galaxy index %d", g.Index)
		}
		galaxies[g.Index] = true
		g.RegionCount = len(g.Regions)

		regions := map[int]bool{}
		for ri := range g.Regions {
			r := &g.Regions[ri]
			if regions[r.Index] {
				return fmt.Errorf("galaxy %d: duplicate region index %d", g.Index, r.Index)
			}
			regions[r.Index] = true
			r.SystemCount = len(r.Systems)

			systems := map[int]bool{}
			for si := range r.Systems {
				s := &r.Systems[si]
				if systems[s.Index] {
					return fmt.Errorf("region %d:%d: duplicate system index %d", g.Index, r.Index, s.Index)
				}
				systems[s.Index] = true
				s.BodyCount = len(s.Bodies)
			}
		}
	}

	ids := map[string]bool{}
	for _, e := range f.Entities {
		if e.ID == "" || ids[e.ID] {
			return fmt.Errorf("entity id %q is empty or duplicated", e.ID)
		}
		ids[e.ID] = true
		if len(e.Route) == 0 {
			return fmt.Errorf("entity %s has an empty route", e.ID)
		}
		for _, stop := range e.Route {
			if stop.Server != f.Server || stop.Depth() < 3 || !stop.Valid() {
				return fmt.Errorf("entity %s: route stop %s is not a system on %s", e.ID, stop, f.Server)
			}
		}
		if len(e.Route) > 1 && e.Leg <= 0 {
			return fmt.Errorf("entity %s moves but has no leg duration", e.ID)
		}
	}
	return nil
}

func (f *Fixture) galaxy(index int) *GalaxyDef {
	for i := range f.Galaxies {
		if f.Galaxies[i].Index == index {
			return &f.Galaxies[i]
		}
	}
	return nil
}

func (f *Fixture) region(galaxy, region int) *RegionDef {
	g := f.galaxy(galaxy)
	if g == nil {
		return nil
	}
	for i := range g.Regions {
		if g.Regions[i].Index == region {
			return &g.Regions[i]
		}
	}
	return nil
}

func (f *Fixture) system(galaxy, region, system int) *SystemDef {
	r := f.region(galaxy, region)
	if r == nil {
		return nil
	}
	for i := range r.Systems {
		if r.Systems[i].Index == system {
			return &r.Systems[i]
		}
	}
	return nil
}
