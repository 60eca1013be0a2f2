package recommend

import (
	"fmt"
	"math"

	"github.com/channeliq/channeliq/pkg/types/market"
)

const (
	// restockThresholdDays triggers the recommendation; restockUrgentDays
	// escalates it.
	restockThresholdDays = 14.0
	restockUrgentDays    = 7.0

	// restockTargetDays is the supply the suggested quantity aims for.
	restockTargetDays = 30.0

	restockConfidence = 90
)

// Restock flags tracked channels whose stock will run out within the
// threshold at current unit velocity.  The suggested quantity targets a
// 30-day supply net of what is still on hand.
func Restock(in Input) []market.Recommendation {
	if in.Product == nil {
		return nil
	}

	var out []market.Recommendation
	for _, mp := range market.AllMarketplaces() {
		sig, ok := in.channel(mp)
		if !ok || !sig.StockTracked || sig.UnitsPerDay <= 0 {
			continue
		}

		daysOfStock := float64(sig.CurrentStock) / sig.UnitsPerDay
		if daysOfStock >= restockThresholdDays {
			continue
		}

		qty := int(math.Ceil(restockTargetDays*sig.UnitsPerDay - float64(sig.CurrentStock)))
		if qty <= 0 {
			continue
		}

		rec := in.newRecommendation(market.RecommendationRestock, mp)
		rec.Confidence = restockConfidence
		rec.Urgency = market.UrgencyMedium
		if daysOfStock < restockUrgentDays {
			rec.Urgency = market.UrgencyHigh
		}

		if sig.CurrentStock == 0 {
			rec.Reasoning = fmt.Sprintf("Out of stock on %s while selling %.1f units/day; restock %d units for a 30-day supply.",
				mp, sig.UnitsPerDay, qty)
			rec.Impact = &market.Impact{
				Amount:   sig.RevenuePerDay * restockTargetDays,
				Currency: sig.Currency,
				Note:     "revenue lost per month at current velocity",
			}
		} else {
			rec.Reasoning = fmt.Sprintf("%.1f days of stock left on %s at %.1f units/day; restock %d units for a 30-day supply.",
				daysOfStock, mp, sig.UnitsPerDay, qty)
			rec.Impact = &market.Impact{
				Amount:   sig.RevenuePerDay * (restockTargetDays - daysOfStock),
				Currency: sig.Currency,
				Note:     "revenue at risk after depletion",
			}
		}
		out = append(out, rec)
	}
	return out
}
