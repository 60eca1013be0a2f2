package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/pkg/types/market"
)

func twoChannelProduct() *signals.ProductSignals {
	return &signals.ProductSignals{
		ClusterKey: "ceramic-mug",
		Title:      "Ceramic Mug",
		Channels: map[market.Marketplace]market.RawSignals{
			market.MarketplaceAmazon: {
				RevenuePerDay: 100, UnitsPerDay: 10, AvgUnitPrice: 10,
				TrendSlope: 2, TrendFit: 0.9,
				Turnover: market.Measured(1.5), ReturnRate: 0.02,
				OrderCount: 60, UnitsSold: 300, DaysActive: 30, StockTracked: true,
			},
			market.MarketplaceEbay: {
				RevenuePerDay: 20, UnitsPerDay: 2, AvgUnitPrice: 10,
				TrendSlope: -1, TrendFit: 0.5,
				Turnover: market.Measured(0.3), ReturnRate: 0.10,
				OrderCount: 10, UnitsSold: 60, DaysActive: 30, StockTracked: true,
			},
		},
		TotalRevenue: 3600,
		OrderCount:   70,
		DaysOfData:   30,
	}
}

// uniformProduct builds channels whose signals are identical except turnover,
// so every other min-max collapses to the midpoint and the turnover handling
// is observable in isolation.
func uniformProduct(turnovers ...market.Turnover) *signals.ProductSignals {
	mps := market.AllMarketplaces()
	channels := make(map[market.Marketplace]market.RawSignals, len(turnovers))
	for i, tu := range turnovers {
		channels[mps[i]] = market.RawSignals{
			RevenuePerDay: 50, UnitsPerDay: 5, AvgUnitPrice: 10,
			TrendSlope: 0.5, TrendFit: 0.8,
			Turnover: tu, ReturnRate: 0.05,
			OrderCount: 50, DaysActive: 30, StockTracked: true,
		}
	}
	return &signals.ProductSignals{
		ClusterKey: "desk-lamp",
		Title:      "Desk Lamp",
		Channels:   channels,
		DaysOfData: 30,
	}
}

func scoreFor(scores []market.ChannelScore, mp market.Marketplace) market.ChannelScore {
	for _, cs := range scores {
		if cs.Marketplace == mp {
			return cs
		}
	}
	return market.ChannelScore{}
}

func TestScoreProduct_CompositeWithoutBenchmark(t *testing.T) {
	scores := NewScorer(0.2).ScoreProduct(twoChannelProduct(), nil, 30)
	require.Len(t, scores, 2)

	amazon := scoreFor(scores, market.MarketplaceAmazon)
	ebay := scoreFor(scores, market.MarketplaceEbay)

	// Dominant channel wins every min-max except the equal-price midpoint:
	// 0.25 + 0.20 + 0.10·0.5 + 0.15 + 0.15 + 0.15 = 0.95.
	assert.InDelta(t, 95.0, amazon.FitScore, 0.1)
	assert.InDelta(t, 5.0, ebay.FitScore, 0.1)
	assert.Equal(t, 1, amazon.Rank)
	assert.Equal(t, 2, ebay.Rank)
	assert.Nil(t, amazon.MarketDemand)
	assert.Equal(t, market.LabelStrong, amazon.Label)
	assert.Equal(t, market.LabelWeak, ebay.Label)
}

func TestScoreProduct_BenchmarkBlending(t *testing.T) {
	ps := twoChannelProduct()
	benchmarks := market.BenchmarkSet{
		"ceramic-mug": {
			// 10 own units/day against 15 aggregate: ≥50% share → band 1.0.
			market.MarketplaceAmazon: market.NewClusterBenchmark(
				"ceramic-mug", market.MarketplaceAmazon, 15, 180, 12, 100, 6),
		},
	}

	scores := NewScorer(0.2).ScoreProduct(ps, benchmarks, 30)
	amazon := scoreFor(scores, market.MarketplaceAmazon)
	ebay := scoreFor(scores, market.MarketplaceEbay)

	// 0.8·0.95 + 0.2·1.0 = 0.96
	assert.InDelta(t, 96.0, amazon.FitScore, 0.1)
	require.NotNil(t, amazon.MarketDemand)
	assert.InDelta(t, 15.0, amazon.MarketDemand.UnitsPerDay, 1e-9)

	// No ebay benchmark: core signals carry full weight, demand stays nil.
	assert.InDelta(t, 5.0, ebay.FitScore, 0.1)
	assert.Nil(t, ebay.MarketDemand)
}

func TestScoreProduct_Deterministic(t *testing.T) {
	s := NewScorer(0.2)
	a := s.ScoreProduct(twoChannelProduct(), nil, 30)
	b := s.ScoreProduct(twoChannelProduct(), nil, 30)
	assert.Equal(t, a, b)
}

func TestScoreProduct_TieBreaksOnMarketplaceName(t *testing.T) {
	ps := uniformProduct(market.Measured(0.5), market.Measured(0.5))
	scores := NewScorer(0.2).ScoreProduct(ps, nil, 30)
	require.Len(t, scores, 2)

	assert.Equal(t, scores[0].FitScore, scores[1].FitScore)
	assert.Equal(t, market.MarketplaceAmazon, scores[0].Marketplace)
	assert.Equal(t, market.MarketplaceEbay, scores[1].Marketplace)
	assert.Equal(t, 1, scores[0].Rank)
	assert.Equal(t, 2, scores[1].Rank)
}

func TestScoreProduct_TurnoverSentinels(t *testing.T) {
	s := NewScorer(0.2)

	// Stockout beats untracked: 1.0 versus the neutral 0.5.
	scores := s.ScoreProduct(uniformProduct(market.Stockout(), market.Untracked()), nil, 30)
	stockout := scoreFor(scores, market.MarketplaceAmazon)
	untracked := scoreFor(scores, market.MarketplaceEbay)
	assert.InDelta(t, 57.5, stockout.FitScore, 0.1)
	assert.InDelta(t, 50.0, untracked.FitScore, 0.1)

	// All-zero tracked turnover widens the range: idle stock scores 0, not
	// the neutral midpoint an untracked channel gets.
	idle := s.ScoreProduct(uniformProduct(market.Measured(0), market.Measured(0)), nil, 30)
	neutral := s.ScoreProduct(uniformProduct(market.Untracked(), market.Untracked()), nil, 30)
	assert.InDelta(t, 42.5, idle[0].FitScore, 0.1)
	assert.InDelta(t, 50.0, neutral[0].FitScore, 0.1)
}

func TestScoreProduct_SingleChannelPenalty(t *testing.T) {
	single := uniformProduct(market.Measured(0.5))
	multi := uniformProduct(market.Measured(0.5), market.Measured(0.5))

	s := NewScorer(0.2)
	confSingle := s.ScoreProduct(single, nil, 30)[0].Confidence
	confMulti := s.ScoreProduct(multi, nil, 30)[0].Confidence

	assert.InDelta(t, float64(singleChannelPenalty), confMulti-confSingle, 0.1)
}

func TestScoreProduct_ConfidenceMonotoneInOrdersAndCoverage(t *testing.T) {
	s := NewScorer(0.2)

	mk := func(orders, daysOfData int) float64 {
		ps := uniformProduct(market.Measured(0.5), market.Measured(0.5))
		for mp, sig := range ps.Channels {
			sig.OrderCount = orders
			ps.Channels[mp] = sig
		}
		ps.DaysOfData = daysOfData
		return s.ScoreProduct(ps, nil, 30)[0].Confidence
	}

	assert.LessOrEqual(t, mk(5, 30), mk(20, 30))
	assert.LessOrEqual(t, mk(20, 30), mk(50, 30))
	assert.LessOrEqual(t, mk(20, 10), mk(20, 20))
	assert.LessOrEqual(t, mk(20, 20), mk(20, 30))
}

func TestScoreProduct_ThinDataYieldsInsufficientLabel(t *testing.T) {
	ps := &signals.ProductSignals{
		ClusterKey: "ceramic-mug",
		Title:      "Ceramic Mug",
		Channels: map[market.Marketplace]market.RawSignals{
			market.MarketplaceEtsy: {
				RevenuePerDay: 1, UnitsPerDay: 0.1, AvgUnitPrice: 10,
				Turnover: market.Untracked(), OrderCount: 2, DaysActive: 3,
			},
		},
		DaysOfData: 3,
	}

	scores := NewScorer(0.2).ScoreProduct(ps, nil, 30)
	require.Len(t, scores, 1)
	assert.Less(t, scores[0].Confidence, float64(labelMinConfidence))
	assert.Equal(t, market.LabelInsufficientData, scores[0].Label)
}

func TestScoreProduct_Empty(t *testing.T) {
	s := NewScorer(0.2)
	assert.Nil(t, s.ScoreProduct(nil, nil, 30))
	assert.Nil(t, s.ScoreProduct(&signals.ProductSignals{}, nil, 30))
}
