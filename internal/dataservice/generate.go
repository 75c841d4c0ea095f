package dataservice

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spacehole-rogue/starview/internal/world"
)

// Generation bounds. Cells are indices on the renderers' 10x10 grid.
const (
	gridCells        = 100
	minGalaxies      = 3
	maxGalaxies      = 5
	minRegions       = 12
	maxRegions       = 30
	minSystems       = 8
	maxSystems       = 20
	minBodies        = 2
	maxBodies        = 5
	minLeg           = 20 * time.Second
	maxLeg           = 60 * time.Second
	busyRegionFleets = 80 // enough to push the busiest region into batching
)

var starNames = []string{
	"Vega Prime", "Kepler's Rest", "Nyx", "Caelum", "Draconis",
	"Forge", "Hadal Deep", "Meridian", "Obsidian", "Solis",
	"Tempest", "Umbra", "Zenith", "Arcturus", "Cygnus",
	"Eridani", "Lyra", "Procyon", "Rigel", "Sirius",
}

var galaxyNames = []string{"Andromeda", "Milky Way", "Centaurus", "Pegasus", "Cygnus", "Draco"}

var regionNames = []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta"}

var romanNumerals = []string{"I", "II", "III", "IV", "V"}

var starTypes = []world.StarType{world.StarYellow, world.StarRed, world.StarBlue, world.StarWhite, world.StarOrange}

var bodyKinds = []world.BodyKind{
	world.BodyBarren, world.BodyTerrestrial, world.BodyGasGiant, world.BodyIce, world.BodyVolcanic,
}

// owners pairs an owner id with its display color.
var owners = []struct{ id, color string }{
	{"p-redshirt", "#ff5555"},
	{"p-corsair", "#ffff55"},
	{"p-trader", "#55ff55"},
	{"p-patrol", "#5555ff"},
	{"p-nomad", "#ff55ff"},
	{"p-archive", "#55ffff"},
}

// Generate builds a deterministic Fixture for server from seed: galaxies,
// regions scattered over distinct grid cells, systems with planets and an
// occasional station, and fleets shuttling between systems. Region 0 of
// galaxy 0 always holds enough fleets to exercise batched rendering.
func Generate(server string, seed int64) *Fixture {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>16|1)))
	f := &Fixture{Server: server}

	numGalaxies := minGalaxies + rng.IntN(maxGalaxies-minGalaxies+1)
	for gi := 0; gi < numGalaxies; gi++ {
		g := GalaxyDef{GalaxySummary: world.GalaxySummary{
			Index: gi * 11, // spread along the grid diagonal
			Name:  galaxyNames[gi%len(galaxyNames)],
		}}
		cells := pickCells(rng, minRegions+rng.IntN(maxRegions-minRegions+1))
		if gi == 0 {
			moveFirst(cells, 0) // the home region
		}
		for _, ri := range cells {
			r := RegionDef{RegionSummary: world.RegionSummary{
				Index: ri,
				Name:  fmt.Sprintf("%s-%02d", regionNames[rng.IntN(len(regionNames))], ri),
			}}
			for _, si := range pickCells(rng, minSystems+rng.IntN(maxSystems-minSystems+1)) {
				r.Systems = append(r.Systems, generateSystem(rng, si))
			}
			g.Regions = append(g.Regions, r)
		}
		f.Galaxies = append(f.Galaxies, g)
	}

	home := &f.Galaxies[0].Regions[0]
	home.Presence = "home"
	home.Systems[0].Presence = "home"
	home.Systems[0].Bodies[0].Presence = "home"
	home.Systems[0].Bodies[0].OwnerID = owners[0].id
	f.Galaxies[0].Presence = "home"

	n := 0
	for n < busyRegionFleets {
		f.Entities = append(f.Entities, generateFleet(rng, server, f.Galaxies[0], home, n))
		n++
	}
	for gi := range f.Galaxies {
		g := f.Galaxies[gi]
		for ri := range g.Regions {
			r := &g.Regions[ri]
			if r == home {
				continue
			}
			for k := rng.IntN(6); k > 0; k-- {
				f.Entities = append(f.Entities, generateFleet(rng, server, g, r, n))
				n++
			}
		}
	}

	// Generated content is valid by construction; Validate fills the counts.
	if err := f.Validate(); err != nil {
		panic(fmt.Sprintf("generated fixture is invalid: %v", err))
	}
	return f
}

// pickCells returns n distinct grid cells in random order.
func pickCells(rng *rand.Rand, n int) []int {
	cells := rng.Perm(gridCells)
	if n > len(cells) {
		n = len(cells)
	}
	return cells[:n]
}

// moveFirst puts cell at the front of cells, replacing the first entry
// when cell was not picked.
func moveFirst(cells []int, cell int) {
	for i, c := range cells {
		if c == cell {
			cells[0], cells[i] = cells[i], cells[0]
			return
		}
	}
	cells[0] = cell
}

func generateSystem(rng *rand.Rand, index int) SystemDef {
	name := starNames[rng.IntN(len(starNames))]
	s := SystemDef{SystemSummary: world.SystemSummary{
		Index:    index,
		Name:     name,
		StarType: starTypes[rng.IntN(len(starTypes))],
	}}

	numPlanets := minBodies + rng.IntN(maxBodies-minBodies+1)
	for i := 0; i < numPlanets; i++ {
		s.Bodies = append(s.Bodies, world.Body{
			Index: i,
			Name:  name + " " + romanNumerals[i%len(romanNumerals)],
			Kind:  bodyKinds[rng.IntN(len(bodyKinds))],
			Size:  1 + rng.IntN(5),
		})
	}

	// Station (50% chance), orbiting last.
	if rng.IntN(2) == 0 {
		s.Bodies = append(s.Bodies, world.Body{
			Index: numPlanets,
			Name:  name + " Station",
			Kind:  world.BodyStation,
			Size:  1,
		})
	}
	return s
}

// generateFleet builds a fleet touring 1-4 systems of region r. One fleet
// in five leaves the region on its last hop, so some paths end off-map.
func generateFleet(rng *rand.Rand, server string, g GalaxyDef, r *RegionDef, n int) EntityDef {
	owner := owners[rng.IntN(len(owners))]
	stops := 1 + rng.IntN(4)
	route := make([]world.SpatialAddress, 0, stops)
	for i := 0; i < stops; i++ {
		sys := r.Systems[rng.IntN(len(r.Systems))]
		route = append(route, world.SystemAddress(server, g.Index, r.Index, sys.Index))
	}
	if stops > 1 && len(g.Regions) > 1 && rng.IntN(5) == 0 {
		other := g.Regions[rng.IntN(len(g.Regions))]
		sys := other.Systems[rng.IntN(len(other.Systems))]
		route[stops-1] = world.SystemAddress(server, g.Index, other.Index, sys.Index)
	}

	leg := minLeg + time.Duration(rng.Int64N(int64(maxLeg-minLeg)))
	return EntityDef{
		ID:      fmt.Sprintf("fleet-%04d", n),
		OwnerID: owner.id,
		Color:   owner.color,
		Label:   fmt.Sprintf("Fleet %d", n),
		Route:   route,
		Leg:     Duration(leg),
	}
}
