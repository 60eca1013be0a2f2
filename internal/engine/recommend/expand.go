package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/channeliq/channeliq/internal/engine/cluster"
	"github.com/channeliq/channeliq/pkg/types/market"
)

const (
	// marketCaptureRate is the fixed assumption behind the Tier A uplift
	// estimate: a new entrant captures 10% of the aggregate market.
	marketCaptureRate = 0.10

	// upliftDisplayCap bounds the uplift percentage shown in reasoning text;
	// beyond it the figure renders as "200%+".
	upliftDisplayCap = 200.0

	daysPerMonth = 30.0
)

// Tier A / Tier B confidence.
const (
	expandBenchmarkConfidence = 80
	priorBaseConfidence       = 40
	priorPerMatchConfidence   = 10
	priorMaxConfidence        = 70
	priorMaxResults           = 3
)

// Expand suggests marketplaces the product is not sold on.  Tier A uses
// qualified benchmark demand; when no uncovered marketplace has a benchmark
// the generator falls back to Tier B keyword priors.  Marketplaces without an
// existing connection get CONNECT instead of EXPAND.
func Expand(in Input) []market.Recommendation {
	if in.Product == nil || len(in.Product.Channels) == 0 {
		return nil
	}

	dominantMP, dominantRatio := dominantSeller(in)

	var out []market.Recommendation
	for _, mp := range market.AllMarketplaces() {
		if _, selling := in.channel(mp); selling {
			continue
		}
		bench := in.bench(mp)
		if bench == nil || bench.TotalUnitsPerDay <= 0 {
			continue
		}

		typ := market.RecommendationExpand
		if !in.Connected[mp] {
			typ = market.RecommendationConnect
		}

		rec := in.newRecommendation(typ, mp)
		rec.Urgency = market.UrgencyMedium
		rec.Confidence = expandBenchmarkConfidence
		rec.Reasoning = tierAReasoning(in, mp, bench, dominantMP, dominantRatio)
		rec.Impact = &market.Impact{
			Amount: bench.TotalRevenuePerDay * daysPerMonth * marketCaptureRate,
			Note:   "market-rate estimate across seller currencies",
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		out = priorExpand(in)
	}
	return out
}

// dominantSeller finds the marketplace where the tenant's own revenue velocity
// most exceeds the others-only aggregate, if any.
func dominantSeller(in Input) (market.Marketplace, float64) {
	var bestMP market.Marketplace
	var bestRatio float64
	for _, mp := range market.AllMarketplaces() {
		sig, ok := in.channel(mp)
		if !ok {
			continue
		}
		bench := in.bench(mp)
		if bench == nil || bench.TotalRevenuePerDay <= 0 {
			continue
		}
		ratio := sig.RevenuePerDay / bench.TotalRevenuePerDay
		if ratio > 1 && ratio > bestRatio {
			bestMP, bestRatio = mp, ratio
		}
	}
	return bestMP, bestRatio
}

func tierAReasoning(in Input, mp market.Marketplace, bench *market.ClusterBenchmark, dominantMP market.Marketplace, dominantRatio float64) string {
	demand := fmt.Sprintf("similar products move %.1f units/day on %s market-wide", bench.TotalUnitsPerDay, mp)

	uplift := ""
	if own := in.monthlyOwnRevenue(); own > 0 {
		pct := bench.TotalRevenuePerDay * daysPerMonth * marketCaptureRate / own * 100
		if pct > upliftDisplayCap {
			uplift = fmt.Sprintf("; estimated uplift %.0f%%+ of current revenue", upliftDisplayCap)
		} else {
			uplift = fmt.Sprintf("; estimated uplift %.0f%% of current revenue", pct)
		}
	}

	if dominantMP != "" {
		return fmt.Sprintf("You outsell the %s market aggregate (%.1fx) for this product; %s%s.",
			dominantMP, dominantRatio, demand, uplift)
	}
	return fmt.Sprintf("Not listed on %s, but %s%s.", mp, demand, uplift)
}

// priorExpand is the Tier B fallback: score uncovered marketplaces by keyword
// overlap between the product's cluster tokens and static category-strength
// lists, returning the top matches.
func priorExpand(in Input) []market.Recommendation {
	if in.Product.ClusterKey == cluster.UncategorizedKey {
		return nil
	}
	tokens := strings.Split(in.Product.ClusterKey, "-")

	type candidate struct {
		mp      market.Marketplace
		matches int
	}
	var candidates []candidate
	for _, mp := range market.AllMarketplaces() {
		if _, selling := in.channel(mp); selling {
			continue
		}
		n := priorMatches(mp, tokens)
		if n == 0 {
			continue
		}
		candidates = append(candidates, candidate{mp: mp, matches: n})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].matches != candidates[j].matches {
			return candidates[i].matches > candidates[j].matches
		}
		return candidates[i].mp < candidates[j].mp
	})
	if len(candidates) > priorMaxResults {
		candidates = candidates[:priorMaxResults]
	}

	out := make([]market.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		typ := market.RecommendationExpand
		if !in.Connected[c.mp] {
			typ = market.RecommendationConnect
		}
		conf := priorBaseConfidence + priorPerMatchConfidence*c.matches
		if conf > priorMaxConfidence {
			conf = priorMaxConfidence
		}

		rec := in.newRecommendation(typ, c.mp)
		rec.Urgency = market.UrgencyLow
		rec.Confidence = float64(conf)
		rec.Reasoning = fmt.Sprintf("Product category matches %d known strength(s) of %s; no market data yet to size the opportunity.",
			c.matches, c.mp)
		out = append(out, rec)
	}
	return out
}
