package benchmark

import (
	"math"

	"github.com/channeliq/channeliq/pkg/types/market"
)

// Demand-signal bands: the tenant's share of the aggregate market velocity
// maps to a coarse step function rather than a continuous ratio, so one
// outlier contributor cannot dominate the score.
const (
	shareStrong   = 0.50
	shareGood     = 0.20
	shareModerate = 0.05

	bandStrong   = 1.0
	bandGood     = 0.85
	bandModerate = 0.70
	bandWeak     = 0.50

	// Zero-presence scoring: a channel the tenant does not sell on at all gets
	// a floor score that grows logarithmically with market demand, capped well
	// below the weakest active band.
	zeroPresenceBase  = 0.15
	zeroPresenceScale = 0.04
	zeroPresenceCap   = 0.45
)

// Signal maps a tenant's own velocity against a cluster benchmark to a [0, 1]
// demand signal.  ok is false when no benchmark exists for the channel, in
// which case the composite score must redistribute this signal's weight.
func Signal(unitsPerDay float64, bench *market.ClusterBenchmark) (signal float64, ok bool) {
	if bench == nil || bench.TotalUnitsPerDay <= 0 {
		return 0, false
	}

	if unitsPerDay <= 0 {
		return zeroPresence(bench.TotalUnitsPerDay), true
	}

	share := unitsPerDay / bench.TotalUnitsPerDay
	switch {
	case share >= shareStrong:
		return bandStrong, true
	case share >= shareGood:
		return bandGood, true
	case share >= shareModerate:
		return bandModerate, true
	default:
		return bandWeak, true
	}
}

// zeroPresence scores an unsold channel by market demand alone:
// 0.15 + 0.04·ln(1 + 30·marketUnitsPerDay), capped at 0.45.  A market moving
// one unit a day scores ≈0.29; it takes ≈60 units/day to hit the cap.
func zeroPresence(marketUnitsPerDay float64) float64 {
	v := zeroPresenceBase + zeroPresenceScale*math.Log(1+30*marketUnitsPerDay)
	if v > zeroPresenceCap {
		return zeroPresenceCap
	}
	return v
}
