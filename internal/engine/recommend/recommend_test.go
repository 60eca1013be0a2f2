package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/pkg/types/market"
)

func productInput(channels map[market.Marketplace]market.RawSignals) Input {
	total := 0.0
	for _, sig := range channels {
		total += sig.RevenuePerDay * 30
	}
	return Input{
		Product: &signals.ProductSignals{
			ClusterKey:   "ceramic-mug",
			Title:        "Ceramic Mug",
			Channels:     channels,
			TotalRevenue: total,
			DaysOfData:   30,
		},
		Connected: map[market.Marketplace]bool{
			market.MarketplaceAmazon: true,
			market.MarketplaceEbay:   true,
		},
	}
}

func byType(recs []market.Recommendation, typ market.RecommendationType) []market.Recommendation {
	var out []market.Recommendation
	for _, r := range recs {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func forMarketplace(recs []market.Recommendation, mp market.Marketplace) *market.Recommendation {
	for i := range recs {
		if recs[i].Marketplace == mp {
			return &recs[i]
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Restock
// ─────────────────────────────────────────────────────────────────────────────

func TestRestock_FastDepletion(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {
			UnitsPerDay: 10, RevenuePerDay: 100, CurrentStock: 50,
			StockTracked: true, Currency: "USD",
		},
	})

	recs := Restock(in)
	require.Len(t, recs, 1)
	rec := recs[0]

	// 5 days of stock left: urgent; 30-day supply needs ceil(300-50)=250 units.
	assert.Equal(t, market.RecommendationRestock, rec.Type)
	assert.Equal(t, market.UrgencyHigh, rec.Urgency)
	assert.Contains(t, rec.Reasoning, "250 units")
	require.NotNil(t, rec.Impact)
	assert.InDelta(t, 2500.0, rec.Impact.Amount, 1e-9) // 25 days × 100/day at risk
	assert.Equal(t, "USD", rec.Impact.Currency)
}

func TestRestock_ZeroStockReportsLostRevenue(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {
			UnitsPerDay: 4, RevenuePerDay: 40, CurrentStock: 0,
			StockTracked: true, Currency: "EUR", Turnover: market.Stockout(),
		},
	})

	recs := Restock(in)
	require.Len(t, recs, 1)
	assert.Equal(t, market.UrgencyHigh, recs[0].Urgency)
	assert.Contains(t, recs[0].Reasoning, "Out of stock")
	assert.InDelta(t, 1200.0, recs[0].Impact.Amount, 1e-9)
}

func TestRestock_SkipsUntrackedAndHealthyStock(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {UnitsPerDay: 10, CurrentStock: 0, StockTracked: false},
		market.MarketplaceEbay:   {UnitsPerDay: 2, CurrentStock: 100, StockTracked: true},
		market.MarketplaceEtsy:   {UnitsPerDay: 0, CurrentStock: 0, StockTracked: true},
	})
	assert.Empty(t, Restock(in))
}

// ─────────────────────────────────────────────────────────────────────────────
// Reprice
// ─────────────────────────────────────────────────────────────────────────────

func TestReprice_PremiumChannelWithWeakSales(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {AvgUnitPrice: 100, UnitsPerDay: 5},
		market.MarketplaceEbay:   {AvgUnitPrice: 140, UnitsPerDay: 1},
	})

	recs := Reprice(in)
	rec := forMarketplace(byType(recs, market.RecommendationReprice), market.MarketplaceEbay)
	require.NotNil(t, rec)
	assert.Contains(t, rec.Reasoning, "above this product's average")
	assert.Contains(t, rec.Reasoning, "lowering")
}

func TestReprice_PremiumChannelOutsellingIsNotFlagged(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {AvgUnitPrice: 100, UnitsPerDay: 5},
		market.MarketplaceEbay:   {AvgUnitPrice: 140, UnitsPerDay: 6},
	})

	recs := Reprice(in)
	assert.Nil(t, forMarketplace(recs, market.MarketplaceEbay))
}

func TestReprice_MarketBased(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		// Single priced channel: the cross-channel check cannot run.
		market.MarketplaceAmazon: {AvgUnitPrice: 30, UnitsPerDay: 0.5},
	})
	in.Benchmarks = market.BenchmarkSet{
		"ceramic-mug": {
			market.MarketplaceAmazon: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceAmazon, 8, 160, 20, 50, 6),
		},
	}

	// 30 vs market average 20: 50% above with under one sale/day.
	recs := Reprice(in)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Reasoning, "above the market average")

	// Same price but selling briskly: no flag.
	sig := in.Product.Channels[market.MarketplaceAmazon]
	sig.UnitsPerDay = 3
	in.Product.Channels[market.MarketplaceAmazon] = sig
	assert.Empty(t, Reprice(in))
}

func TestReprice_MarketBasedUnderpricing(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {AvgUnitPrice: 14, UnitsPerDay: 5},
	})
	in.Benchmarks = market.BenchmarkSet{
		"ceramic-mug": {
			market.MarketplaceAmazon: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceAmazon, 8, 160, 20, 50, 6),
		},
	}

	recs := Reprice(in)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Reasoning, "below the market average")
}

// ─────────────────────────────────────────────────────────────────────────────
// Expand / Connect
// ─────────────────────────────────────────────────────────────────────────────

func TestExpand_DominantSellerReasoningNamesTheRightMarketplace(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {RevenuePerDay: 100, UnitsPerDay: 10, AvgUnitPrice: 10},
		market.MarketplaceEbay:   {RevenuePerDay: 10, UnitsPerDay: 1, AvgUnitPrice: 10},
	})
	in.Benchmarks = market.BenchmarkSet{
		"ceramic-mug": {
			// Amazon: 2.0x dominance.  Ebay: 0.5x, not dominant.
			market.MarketplaceAmazon: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceAmazon, 5, 50, 10, 35, 6),
			market.MarketplaceEbay: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceEbay, 2, 20, 10, 14, 5),
			// Walmart: uncovered, with demand worth expanding into.
			market.MarketplaceWalmart: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceWalmart, 6, 60, 10, 42, 7),
		},
	}

	recs := Expand(in)
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, market.MarketplaceWalmart, rec.Marketplace)
	// Walmart is not in the connected set.
	assert.Equal(t, market.RecommendationConnect, rec.Type)
	assert.Contains(t, rec.Reasoning, "amazon")
	assert.NotContains(t, rec.Reasoning, "ebay")
	require.NotNil(t, rec.Impact)
	assert.InDelta(t, 180.0, rec.Impact.Amount, 1e-9) // 10% of 60/day × 30
}

func TestExpand_ConnectedMarketplaceGetsExpand(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {RevenuePerDay: 100, UnitsPerDay: 10},
	})
	in.Connected[market.MarketplaceEtsy] = true
	in.Benchmarks = market.BenchmarkSet{
		"ceramic-mug": {
			market.MarketplaceEtsy: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceEtsy, 3, 30, 10, 21, 5),
		},
	}

	recs := Expand(in)
	require.Len(t, recs, 1)
	assert.Equal(t, market.RecommendationExpand, recs[0].Type)
	assert.Equal(t, market.MarketplaceEtsy, recs[0].Marketplace)
}

func TestExpand_PriorFallbackWithoutBenchmarks(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {RevenuePerDay: 50, UnitsPerDay: 5},
	})

	recs := Expand(in)
	require.NotEmpty(t, recs)
	require.LessOrEqual(t, len(recs), 3)

	// "ceramic" and "mug" both hit the etsy category priors.
	etsy := forMarketplace(recs, market.MarketplaceEtsy)
	require.NotNil(t, etsy)
	assert.Equal(t, market.RecommendationConnect, etsy.Type)
	assert.Equal(t, market.UrgencyLow, etsy.Urgency)
	assert.InDelta(t, 60.0, etsy.Confidence, 1e-9)
	assert.Nil(t, etsy.Impact)
}

func TestExpand_UncategorizedProductGetsNoPriors(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {RevenuePerDay: 50, UnitsPerDay: 5},
	})
	in.Product.ClusterKey = "uncategorized"

	assert.Empty(t, Expand(in))
}

// ─────────────────────────────────────────────────────────────────────────────
// Deprioritize
// ─────────────────────────────────────────────────────────────────────────────

func deprioritizeInput(weakSlope float64) Input {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {RevenuePerDay: 100, UnitsPerDay: 10, TrendSlope: 1},
		market.MarketplaceEbay:   {RevenuePerDay: 5, UnitsPerDay: 0.5, TrendSlope: weakSlope},
	})
	in.Scores = []market.ChannelScore{
		{Marketplace: market.MarketplaceAmazon, FitScore: 85, Rank: 1},
		{Marketplace: market.MarketplaceEbay, FitScore: 20, Rank: 2},
	}
	return in
}

func TestDeprioritize_WeakDecliningChannel(t *testing.T) {
	recs := Deprioritize(deprioritizeInput(-0.8))
	require.Len(t, recs, 1)
	assert.Equal(t, market.RecommendationDeprioritize, recs[0].Type)
	assert.Equal(t, market.MarketplaceEbay, recs[0].Marketplace)
	assert.Equal(t, market.UrgencyLow, recs[0].Urgency)
	assert.NotContains(t, recs[0].Reasoning, "demand there is healthy")
}

func TestDeprioritize_RequiresDecliningTrend(t *testing.T) {
	assert.Empty(t, Deprioritize(deprioritizeInput(0.4)))
}

func TestDeprioritize_SoftenedWhenMarketDemandIsStrong(t *testing.T) {
	in := deprioritizeInput(-0.8)
	in.Benchmarks = market.BenchmarkSet{
		"ceramic-mug": {
			market.MarketplaceEbay: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceEbay, 4, 40, 10, 28, 6),
		},
	}

	recs := Deprioritize(in)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Reasoning, "demand there is healthy")
}

func TestDeprioritize_NeedsTwoScoredChannels(t *testing.T) {
	in := deprioritizeInput(-0.8)
	in.Scores = in.Scores[:1]
	assert.Empty(t, Deprioritize(in))
}

func TestAll_Concatenates(t *testing.T) {
	in := productInput(map[market.Marketplace]market.RawSignals{
		market.MarketplaceAmazon: {
			RevenuePerDay: 100, UnitsPerDay: 10, AvgUnitPrice: 10,
			CurrentStock: 20, StockTracked: true, Currency: "USD",
		},
	})

	recs := All(in)
	assert.NotEmpty(t, byType(recs, market.RecommendationRestock))
	assert.NotEmpty(t, byType(recs, market.RecommendationConnect)) // prior fallback
}
