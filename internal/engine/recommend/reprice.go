package recommend

import (
	"fmt"

	"github.com/channeliq/channeliq/pkg/types/market"
)

const (
	// crossChannelDeviation is the relative deviation from the product's own
	// zero-price-excluded average price that triggers the cross-channel check.
	crossChannelDeviation = 0.15

	// marketDeviation is the relative deviation from the benchmark average
	// price that triggers the market-based check.
	marketDeviation = 0.20

	// marketOverpriceMaxVelocity: an above-market price only matters when the
	// channel barely sells.
	marketOverpriceMaxVelocity = 1.0

	crossChannelConfidence = 70
	marketConfidence       = 65
)

// Reprice runs two independent price checks: deviation from the product's own
// cross-channel average, then deviation from the market benchmark average for
// channels the first check did not already flag.
func Reprice(in Input) []market.Recommendation {
	if in.Product == nil {
		return nil
	}

	var out []market.Recommendation
	flagged := make(map[market.Marketplace]bool)

	// Cross-channel: needs ≥2 priced channels and at least one with sales.
	avgPrice, avgVelocity, priced, anySales := pricedAverages(in)
	if priced >= 2 && anySales {
		for _, mp := range market.AllMarketplaces() {
			sig, ok := in.channel(mp)
			if !ok || sig.AvgUnitPrice <= 0 {
				continue
			}
			dev := (sig.AvgUnitPrice - avgPrice) / avgPrice
			switch {
			case dev > crossChannelDeviation:
				if sig.UnitsPerDay > avgVelocity {
					continue // premium price earning its keep
				}
				rec := in.newRecommendation(market.RecommendationReprice, mp)
				rec.Confidence = crossChannelConfidence
				rec.Urgency = market.UrgencyMedium
				rec.Reasoning = fmt.Sprintf("Priced %.0f%% above this product's average across your channels with below-average sales on %s; consider lowering the price.",
					dev*100, mp)
				out = append(out, rec)
				flagged[mp] = true
			case dev < -crossChannelDeviation:
				rec := in.newRecommendation(market.RecommendationReprice, mp)
				rec.Confidence = crossChannelConfidence
				rec.Urgency = market.UrgencyMedium
				rec.Reasoning = fmt.Sprintf("Priced %.0f%% below this product's average across your channels on %s; there may be margin headroom.",
					-dev*100, mp)
				out = append(out, rec)
				flagged[mp] = true
			}
		}
	}

	// Market-based: benchmark average price, skipping already-flagged channels.
	for _, mp := range market.AllMarketplaces() {
		if flagged[mp] {
			continue
		}
		sig, ok := in.channel(mp)
		if !ok || sig.AvgUnitPrice <= 0 {
			continue
		}
		bench := in.bench(mp)
		if bench == nil || bench.AvgPrice <= 0 {
			continue
		}

		dev := (sig.AvgUnitPrice - bench.AvgPrice) / bench.AvgPrice
		switch {
		case dev > marketDeviation && sig.UnitsPerDay < marketOverpriceMaxVelocity:
			rec := in.newRecommendation(market.RecommendationReprice, mp)
			rec.Confidence = marketConfidence
			rec.Urgency = market.UrgencyMedium
			rec.Reasoning = fmt.Sprintf("Priced %.0f%% above the market average for similar products on %s with under one sale/day; consider lowering the price.",
				dev*100, mp)
			out = append(out, rec)
		case dev < -marketDeviation && sig.UnitsPerDay > 0:
			rec := in.newRecommendation(market.RecommendationReprice, mp)
			rec.Confidence = marketConfidence
			rec.Urgency = market.UrgencyMedium
			rec.Reasoning = fmt.Sprintf("Selling %.0f%% below the market average for similar products on %s; a higher price may hold.",
				-dev*100, mp)
			out = append(out, rec)
		}
	}

	return out
}

// pricedAverages returns the zero-price-excluded average price and velocity
// across the product's channels, the priced-channel count, and whether any
// priced channel has sales.
func pricedAverages(in Input) (avgPrice, avgVelocity float64, priced int, anySales bool) {
	var sumPrice, sumVelocity float64
	for _, sig := range in.Product.Channels {
		if sig.AvgUnitPrice <= 0 {
			continue
		}
		priced++
		sumPrice += sig.AvgUnitPrice
		sumVelocity += sig.UnitsPerDay
		if sig.UnitsPerDay > 0 {
			anySales = true
		}
	}
	if priced > 0 {
		avgPrice = sumPrice / float64(priced)
		avgVelocity = sumVelocity / float64(priced)
	}
	return avgPrice, avgVelocity, priced, anySales
}
