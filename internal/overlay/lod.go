package overlay

import (
	"strconv"

	"github.com/spacehole-rogue/starview/internal/config"
)

// Tier is a level of detail. Higher tiers are more detailed.
type Tier uint8

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// Thresholds are the two scales that separate the tiers.
type Thresholds struct {
	High   float64
	Medium float64
}

// NewThresholds reads the tier boundaries from the overlay config.
func NewThresholds(cfg config.OverlayConfig) Thresholds {
	return Thresholds{High: cfg.LODHigh, Medium: cfg.LODMedium}
}

// TierFor maps a camera scale to a tier. It is monotonic: a larger scale
// never yields a less detailed tier.
func (th Thresholds) TierFor(scale float64) Tier {
	switch {
	case scale >= th.High:
		return TierHigh
	case scale >= th.Medium:
		return TierMedium
	default:
		return TierLow
	}
}
