package world

import "time"

// StarType is the spectral class a system is drawn with.
type StarType string

const (
	StarYellow StarType = "yellow"
	StarRed    StarType = "red"
	StarBlue   StarType = "blue"
	StarWhite  StarType = "white"
	StarOrange StarType = "orange"
)

// BodyKind classifies a body inside a system.
type BodyKind string

const (
	BodyBarren      BodyKind = "barren"
	BodyTerrestrial BodyKind = "terrestrial"
	BodyGasGiant    BodyKind = "gas_giant"
	BodyIce         BodyKind = "ice"
	BodyVolcanic    BodyKind = "volcanic"
	BodyStation     BodyKind = "station"
)

// GalaxySummary is one galaxy of a universe.
type GalaxySummary struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	RegionCount int    `json:"region_count"`
	Presence    string `json:"presence,omitempty"`
}

// UniverseSummary lists the galaxies of a server.
type UniverseSummary struct {
	Server   string          `json:"server"`
	Galaxies []GalaxySummary `json:"galaxies"`
}

// RegionSummary is one region of a galaxy.
type RegionSummary struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	SystemCount int    `json:"system_count"`
	Presence    string `json:"presence,omitempty"`
}

// SystemSummary is one system of a region.
type SystemSummary struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	StarType  StarType `json:"star_type"`
	BodyCount int      `json:"body_count"`
	Presence  string   `json:"presence,omitempty"`
}

// Body is a planet, moon or station of a system.
type Body struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Kind     BodyKind `json:"kind"`
	Size     int      `json:"size"`
	OwnerID  string   `json:"owner_id,omitempty"`
	Presence string   `json:"presence,omitempty"`
}

// EntityRecord is one dynamic entity (fleet, convoy) as the data service
// reports it. Location is the system it currently occupies.
type EntityRecord struct {
	ID       string         `json:"id"`
	OwnerID  string         `json:"owner_id"`
	Color    string         `json:"color"`
	Label    string         `json:"label,omitempty"`
	Location SpatialAddress `json:"location"`
}

// Movement is an in-flight move order between two addresses.
type Movement struct {
	Origin      SpatialAddress `json:"origin"`
	Destination SpatialAddress `json:"destination"`
	DepartAt    time.Time      `json:"depart_at"`
	ArriveAt    time.Time      `json:"arrive_at"`
}

// EntityDetail carries an entity's move order, if any.
type EntityDetail struct {
	ID       string    `json:"id"`
	Movement *Movement `json:"movement,omitempty"`
}
