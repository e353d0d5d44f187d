package system

import (
	"math"

	"github.com/emberwake/server/internal/world"
)

// TargetingStrategy names how a hostile picks a player target. Two distinct
// rules exist on purpose: patrol hostiles take the first match in scan order
// while bosses take the nearest. Do not unify them without a product
// decision; live behavior differs between the two tiers.
type TargetingStrategy string

const (
	// FirstMatchTargeting takes the first qualifying player in the
	// ID-ascending scan. The scan order is the documented tie-break.
	FirstMatchTargeting TargetingStrategy = "first_match"
	// NearestTargeting takes the smallest horizontal distance; ties go to
	// the lower player ID because the scan is ID-ascending.
	NearestTargeting TargetingStrategy = "nearest"
)

// selectTarget applies a strategy over an ID-ascending player slice.
// Only online, alive players qualify; distance is horizontal.
func selectTarget(strategy TargetingStrategy, players []world.Player, x, maxRange float64) (world.Player, bool) {
	switch strategy {
	case NearestTargeting:
		var best world.Player
		found := false
		bestDist := maxRange
		for _, p := range players {
			if !p.Targetable() {
				continue
			}
			d := math.Abs(p.X - x)
			if d > maxRange {
				continue
			}
			if !found || d < bestDist {
				best, bestDist, found = p, d, true
			}
		}
		return best, found
	default:
		for _, p := range players {
			if !p.Targetable() {
				continue
			}
			if math.Abs(p.X-x) <= maxRange {
				return p, true
			}
		}
		return world.Player{}, false
	}
}
