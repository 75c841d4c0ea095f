package overlay

import (
	"cmp"
	"image/color"
	"slices"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/world"
)

// Entity is one dynamic entity as a single pass sees it.
type Entity struct {
	ID       string
	Position geom.Point
	Color    color.RGBA
	Label    string
	Tier     Tier
	Location world.SpatialAddress
}

// Cull keeps the entities inside bounds. Entities on an edge are kept.
func Cull(entities []Entity, bounds geom.Rect) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if bounds.Contains(e.Position) {
			out = append(out, e)
		}
	}
	return out
}

// GroupKey identifies entities that can share one stamp.
type GroupKey struct {
	Tier  Tier
	Color color.RGBA
}

func (k GroupKey) compare(o GroupKey) int {
	if c := cmp.Compare(k.Tier, o.Tier); c != 0 {
		return c
	}
	a := uint32(k.Color.R)<<24 | uint32(k.Color.G)<<16 | uint32(k.Color.B)<<8 | uint32(k.Color.A)
	b := uint32(o.Color.R)<<24 | uint32(o.Color.G)<<16 | uint32(o.Color.B)<<8 | uint32(o.Color.A)
	return cmp.Compare(a, b)
}

// Group partitions entities by (tier, color). Every entity lands in
// exactly one group.
func Group(entities []Entity) map[GroupKey][]Entity {
	groups := make(map[GroupKey][]Entity)
	for _, e := range entities {
		k := GroupKey{Tier: e.Tier, Color: e.Color}
		groups[k] = append(groups[k], e)
	}
	return groups
}

// sortedKeys returns the group keys in a stable order so passes are
// reproducible.
func sortedKeys(groups map[GroupKey][]Entity) []GroupKey {
	keys := make([]GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, GroupKey.compare)
	return keys
}
