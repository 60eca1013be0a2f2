package recommend

import (
	"fmt"

	"github.com/channeliq/channeliq/pkg/types/market"
)

const (
	// deprioritizeShareOfBest: a channel scoring below this fraction of the
	// product's best channel is an abandonment candidate.
	deprioritizeShareOfBest = 0.40

	// strongDemandUnitsPerDay softens the advice: when the market itself moves
	// at least this much, the channel is worth optimizing before abandoning.
	strongDemandUnitsPerDay = 1.0

	deprioritizeConfidence = 60
)

// Deprioritize flags channels that score far below the product's best channel
// while also trending down.  It needs at least two scored channels — with one
// there is no "best" to compare against — so it is inert in the data-poor
// phase, where no scores exist at all.
func Deprioritize(in Input) []market.Recommendation {
	if in.Product == nil || len(in.Scores) < 2 {
		return nil
	}

	best := 0.0
	for _, cs := range in.Scores {
		if cs.FitScore > best {
			best = cs.FitScore
		}
	}
	if best <= 0 {
		return nil
	}

	var out []market.Recommendation
	for _, cs := range in.Scores {
		if cs.FitScore >= deprioritizeShareOfBest*best {
			continue
		}
		sig, ok := in.channel(cs.Marketplace)
		if !ok || sig.TrendSlope >= 0 {
			continue
		}

		rec := in.newRecommendation(market.RecommendationDeprioritize, cs.Marketplace)
		rec.Confidence = deprioritizeConfidence
		rec.Urgency = market.UrgencyLow
		rec.Reasoning = fmt.Sprintf("Scores %.0f of your best channel's %.0f on %s with declining sales; consider shifting effort elsewhere.",
			cs.FitScore, best, cs.Marketplace)

		if bench := in.bench(cs.Marketplace); bench != nil && bench.TotalUnitsPerDay >= strongDemandUnitsPerDay {
			rec.Reasoning += fmt.Sprintf(" Market demand there is healthy (%.1f units/day), so listing quality may be the problem rather than the channel.",
				bench.TotalUnitsPerDay)
		}
		out = append(out, rec)
	}
	return out
}
