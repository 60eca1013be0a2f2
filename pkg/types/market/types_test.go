package market_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/pkg/types/market"
)

// ─────────────────────────────────────────────────────────────────────────────
// Turnover tagged union
// ─────────────────────────────────────────────────────────────────────────────

func TestTurnover_States(t *testing.T) {
	t.Parallel()

	untracked := market.Untracked()
	assert.Equal(t, market.TurnoverUntracked, untracked.Kind())
	_, ok := untracked.Ratio()
	assert.False(t, ok, "untracked turnover must not expose a ratio")

	stockout := market.Stockout()
	assert.Equal(t, market.TurnoverStockout, stockout.Kind())
	_, ok = stockout.Ratio()
	assert.False(t, ok)

	measured := market.Measured(2.5)
	ratio, ok := measured.Ratio()
	require.True(t, ok)
	assert.Equal(t, 2.5, ratio)
}

func TestTurnover_MeasuredClampsNegative(t *testing.T) {
	t.Parallel()

	ratio, ok := market.Measured(-1).Ratio()
	require.True(t, ok)
	assert.Equal(t, 0.0, ratio)
}

func TestTurnover_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tv := range []market.Turnover{market.Untracked(), market.Stockout(), market.Measured(1.75)} {
		raw, err := json.Marshal(tv)
		require.NoError(t, err)

		var back market.Turnover
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, tv, back)
	}

	raw, err := json.Marshal(market.Stockout())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"stockout"}`, string(raw), "no sentinel ratio may appear")

	var bad market.Turnover
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"backordered"}`), &bad))
}

// ─────────────────────────────────────────────────────────────────────────────
// ClusterBenchmark
// ─────────────────────────────────────────────────────────────────────────────

func TestClusterBenchmark_Qualifies(t *testing.T) {
	t.Parallel()

	var nilBench *market.ClusterBenchmark
	assert.False(t, nilBench.Qualifies(5))

	qualified := market.NewClusterBenchmark("ceramic-mug", market.MarketplaceAmazon, 6, 90, 15, 7, 6)
	assert.True(t, qualified.Qualifies(5))
	assert.False(t, qualified.Qualifies(7))

	zeroDemand := market.NewClusterBenchmark("ceramic-mug", market.MarketplaceAmazon, 0, 0, 0, 0, 9)
	assert.False(t, zeroDemand.Qualifies(5), "a benchmark with no demand is not a benchmark")
}

func TestClusterBenchmark_ContributorCountNeverSerialized(t *testing.T) {
	t.Parallel()

	bench := market.NewClusterBenchmark("ceramic-mug", market.MarketplaceAmazon, 6, 90, 15, 7, 6)
	assert.Equal(t, 6, bench.Contributors())

	raw, err := json.Marshal(bench)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "contributor",
		"the contributor count is a privacy control, not a data point")
}

func TestBenchmarkSet_Lookup(t *testing.T) {
	t.Parallel()

	var empty market.BenchmarkSet
	assert.Nil(t, empty.Lookup("any", market.MarketplaceAmazon))

	bench := market.NewClusterBenchmark("ceramic-mug", market.MarketplaceEbay, 4, 48, 12, 5, 6)
	set := market.BenchmarkSet{"ceramic-mug": {market.MarketplaceEbay: bench}}

	assert.Equal(t, bench, set.Lookup("ceramic-mug", market.MarketplaceEbay))
	assert.Nil(t, set.Lookup("ceramic-mug", market.MarketplaceAmazon))
	assert.Nil(t, set.Lookup("other-key", market.MarketplaceEbay))
}

// ─────────────────────────────────────────────────────────────────────────────
// Urgency and report shell
// ─────────────────────────────────────────────────────────────────────────────

func TestUrgency_RankOrdering(t *testing.T) {
	t.Parallel()

	assert.Greater(t, market.UrgencyHigh.Rank(), market.UrgencyMedium.Rank())
	assert.Greater(t, market.UrgencyMedium.Rank(), market.UrgencyLow.Rank())
	assert.Equal(t, 0, market.Urgency("unknown").Rank())
}

func TestAllMarketplaces_StableOrder(t *testing.T) {
	t.Parallel()

	mps := market.AllMarketplaces()
	require.Len(t, mps, 5)
	assert.Equal(t, market.MarketplaceAmazon, mps[0])
	assert.Equal(t, market.AllMarketplaces(), mps, "order must be deterministic")
}
