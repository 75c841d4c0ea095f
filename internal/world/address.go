package world

import (
	"fmt"
	"strconv"
	"strings"
)

// ViewLevel is one of the four granularities the client can display.
type ViewLevel uint8

const (
	LevelUniverse ViewLevel = iota + 1
	LevelGalaxy
	LevelRegion
	LevelSystem
)

// Levels lists every valid level, coarsest first.
var Levels = []ViewLevel{LevelUniverse, LevelGalaxy, LevelRegion, LevelSystem}

// Valid reports whether l names one of the four levels.
func (l ViewLevel) Valid() bool {
	return l >= LevelUniverse && l <= LevelSystem
}

// Parent returns the next coarser level. Universe is its own parent.
func (l ViewLevel) Parent() ViewLevel {
	if l <= LevelUniverse {
		return LevelUniverse
	}
	return l - 1
}

func (l ViewLevel) String() string {
	switch l {
	case LevelUniverse:
		return "universe"
	case LevelGalaxy:
		return "galaxy"
	case LevelRegion:
		return "region"
	case LevelSystem:
		return "system"
	default:
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Unset marks an address field that has not been resolved.
const Unset = -1

// SpatialAddress is a hierarchical coordinate. A finer field is meaningful
// only when every coarser field is set.
type SpatialAddress struct {
	Server string `json:"server"`
	Galaxy int    `json:"galaxy"`
	Region int    `json:"region"`
	System int    `json:"system"`
	Body   int    `json:"body"`
}

// ServerAddress returns the address of a whole server.
func ServerAddress(server string) SpatialAddress {
	return SpatialAddress{Server: server, Galaxy: Unset, Region: Unset, System: Unset, Body: Unset}
}

// GalaxyAddress returns the address of a galaxy.
func GalaxyAddress(server string, galaxy int) SpatialAddress {
	a := ServerAddress(server)
	a.Galaxy = galaxy
	return a
}

// RegionAddress returns the address of a region.
func RegionAddress(server string, galaxy, region int) SpatialAddress {
	a := GalaxyAddress(server, galaxy)
	a.Region = region
	return a
}

// SystemAddress returns the address of a star system.
func SystemAddress(server string, galaxy, region, system int) SpatialAddress {
	a := RegionAddress(server, galaxy, region)
	a.System = system
	return a
}

// BodyAddress returns the address of a body inside a system.
func BodyAddress(server string, galaxy, region, system, body int) SpatialAddress {
	a := SystemAddress(server, galaxy, region, system)
	a.Body = body
	return a
}

// Depth returns how many numeric levels are set, honoring the hierarchy:
// a set field below an unset one does not count.
func (a SpatialAddress) Depth() int {
	n := 0
	for _, v := range [...]int{a.Galaxy, a.Region, a.System, a.Body} {
		if v < 0 {
			break
		}
		n++
	}
	return n
}

// Valid reports whether the address has a server and no finer field set
// below an unset coarser one.
func (a SpatialAddress) Valid() bool {
	if a.Server == "" {
		return false
	}
	fields := [...]int{a.Galaxy, a.Region, a.System, a.Body}
	unset := false
	for _, v := range fields {
		if v < 0 {
			unset = true
			continue
		}
		if unset {
			return false
		}
	}
	return true
}

// Truncate keeps the server plus the first depth numeric fields.
func (a SpatialAddress) Truncate(depth int) SpatialAddress {
	out := ServerAddress(a.Server)
	if depth >= 1 {
		out.Galaxy = a.Galaxy
	}
	if depth >= 2 {
		out.Region = a.Region
	}
	if depth >= 3 {
		out.System = a.System
	}
	if depth >= 4 {
		out.Body = a.Body
	}
	return out
}

// Child returns the address one level finer than a, with index in the
// first unset field. An address that is already a body is returned as is.
func (a SpatialAddress) Child(index int) SpatialAddress {
	out := a.Truncate(a.Depth())
	switch out.Depth() {
	case 0:
		out.Galaxy = index
	case 1:
		out.Region = index
	case 2:
		out.System = index
	case 3:
		out.Body = index
	}
	return out
}

// ForLevel returns the slice of a that a renderer of level l is keyed by.
func (a SpatialAddress) ForLevel(l ViewLevel) SpatialAddress {
	return a.Truncate(int(l) - 1)
}

// SameRegion reports whether a and b lie in the same region.
func (a SpatialAddress) SameRegion(b SpatialAddress) bool {
	return a.Server == b.Server && a.Galaxy == b.Galaxy && a.Region == b.Region &&
		a.Galaxy >= 0 && a.Region >= 0
}

func (a SpatialAddress) String() string {
	var sb strings.Builder
	sb.WriteString(a.Server)
	for _, v := range [...]int{a.Galaxy, a.Region, a.System, a.Body} {
		if v < 0 {
			break
		}
		fmt.Fprintf(&sb, ":%d", v)
	}
	return sb.String()
}

// Location is what selection and hover events carry: the level the pointer
// was over and the indices resolved at that level.
type Location struct {
	Level    ViewLevel
	Address  SpatialAddress
	EntityID string // set when the pointer hit a dynamic entity
	Name     string
}

// Presence tags a child for styling only. It has no navigation meaning.
type Presence uint8

const (
	PresenceNone Presence = iota
	PresenceHome
	PresenceBase
	PresenceOccupied
	PresenceContested
)

// ParsePresence maps the data service's tag strings.
func ParsePresence(s string) Presence {
	switch s {
	case "home":
		return PresenceHome
	case "base":
		return PresenceBase
	case "occupied":
		return PresenceOccupied
	case "contested":
		return PresenceContested
	default:
		return PresenceNone
	}
}
