// Integration test for the in-process analysis pipeline: real extractor,
// benchmark builder, scorer, recommendation generators, and orchestrator
// wired over in-memory data sources.  No external services required.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/scoring"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

const requester common.TenantID = "tenant-acme"

// ─────────────────────────────────────────────────────────────────────────────
// In-memory backends
// ─────────────────────────────────────────────────────────────────────────────

// fakeData backs the signal source, the benchmark store, and the population
// counter from plain slices, standing in for the postgres repository.
type fakeData struct {
	sales        []signals.SalesAggregate
	weekly       []signals.WeeklyBucket
	inventory    []signals.InventoryRow
	connected    []market.Marketplace
	contributors []benchmark.ContributorRow
	tenantCount  int

	contributorErr error
}

func (f *fakeData) SalesAggregates(_ context.Context, _ common.TenantID, _ common.Period) ([]signals.SalesAggregate, error) {
	return f.sales, nil
}
func (f *fakeData) WeeklyUnits(_ context.Context, _ common.TenantID, _ common.Period) ([]signals.WeeklyBucket, error) {
	return f.weekly, nil
}
func (f *fakeData) InventoryLevels(_ context.Context, _ common.TenantID) ([]signals.InventoryRow, error) {
	return f.inventory, nil
}
func (f *fakeData) ConnectedMarketplaces(_ context.Context, _ common.TenantID) ([]market.Marketplace, error) {
	return f.connected, nil
}
func (f *fakeData) ContributorAggregates(_ context.Context, _ common.Period) ([]benchmark.ContributorRow, error) {
	return f.contributors, f.contributorErr
}
func (f *fakeData) ActiveTenantCount(_ context.Context) (int, error) {
	return f.tenantCount, nil
}

// memoryCache is a map-backed read-through cache storing serialized values,
// so the test can inspect exactly what a shared cache would hold.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	loads   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, _ time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if raw, ok := c.entries[key]; ok {
		return json.Unmarshal(raw, dest)
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.loads++
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) dump() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out string
	for _, raw := range c.entries {
		out += string(raw)
	}
	return out
}

// captureEvents records published completion events.
type captureEvents struct {
	mu     sync.Mutex
	events []analysis.CompletionEvent
}

func (p *captureEvents) PublishAnalysisCompleted(_ context.Context, event analysis.CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *captureEvents) last(t *testing.T) analysis.CompletionEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

func engineConfig() config.EngineConfig {
	return config.EngineConfig{
		MinContributors:    5,
		BenchmarkTTL:       time.Hour,
		LookbackDays:       30,
		MaxProducts:        5,
		DataRichMinTenants: 10,
		PopulationTTL:      time.Minute,
		PopulationTimeout:  5 * time.Second,
		FetchTimeout:       5 * time.Second,
		BenchmarkTimeout:   5 * time.Second,
		BenchmarkWeight:    0.3,
	}
}

// seedData returns a tenant selling one mug product on amazon and ebay, plus
// cross-tenant contributors on amazon, ebay, walmart (all k-qualified) and
// etsy (below the k threshold).  Timestamps hang off now so the request
// window always covers them.
func seedData(now time.Time) *fakeData {
	const (
		titleA = "Ceramic Coffee Mug"
		titleB = "Coffee Mug Ceramic" // same cluster, different word order
	)

	f := &fakeData{
		sales: []signals.SalesAggregate{
			{
				SKU: "MUG-A", Title: titleA, Marketplace: market.MarketplaceAmazon,
				Currency: "USD", UnitsSold: 60, Revenue: 3000,
				OrderCount: 30, FulfilledOrders: 28, ReturnedOrders: 2,
				FirstSale: now.AddDate(0, 0, -28), LastSale: now.AddDate(0, 0, -1),
			},
			{
				SKU: "MUG-E", Title: titleB, Marketplace: market.MarketplaceEbay,
				Currency: "USD", UnitsSold: 6, Revenue: 90,
				OrderCount: 6, FulfilledOrders: 6,
				FirstSale: now.AddDate(0, 0, -25), LastSale: now.AddDate(0, 0, -2),
			},
		},
		weekly: []signals.WeeklyBucket{
			{SKU: "MUG-A", Marketplace: market.MarketplaceAmazon, WeekStart: now.AddDate(0, 0, -28), Units: 12},
			{SKU: "MUG-A", Marketplace: market.MarketplaceAmazon, WeekStart: now.AddDate(0, 0, -21), Units: 14},
			{SKU: "MUG-A", Marketplace: market.MarketplaceAmazon, WeekStart: now.AddDate(0, 0, -14), Units: 16},
			{SKU: "MUG-A", Marketplace: market.MarketplaceAmazon, WeekStart: now.AddDate(0, 0, -7), Units: 18},
		},
		inventory: []signals.InventoryRow{
			{SKU: "MUG-A", Title: titleA, Marketplace: market.MarketplaceAmazon, Quantity: 30, Price: 50},
			{SKU: "MUG-E", Title: titleB, Marketplace: market.MarketplaceEbay, Quantity: 100, Price: 15},
		},
		connected:   []market.Marketplace{market.MarketplaceAmazon, market.MarketplaceEbay},
		tenantCount: 25,
	}

	// The requester's own contribution must be folded out of every benchmark
	// it reads; the absurd volume makes any leak obvious.
	f.contributors = append(f.contributors, benchmark.ContributorRow{
		Tenant: requester, Marketplace: market.MarketplaceAmazon, Title: titleA,
		Units: 999, Revenue: 99999, Units7d: 500,
	})
	f.contributors = append(f.contributors, contributors(market.MarketplaceAmazon, titleA, 6, 30, 450, 7)...)
	f.contributors = append(f.contributors, contributors(market.MarketplaceEbay, titleA, 6, 20, 240, 5)...)
	f.contributors = append(f.contributors, contributors(market.MarketplaceWalmart, titleA, 6, 45, 900, 12)...)
	// Below the k = 5 gate; must never surface.
	f.contributors = append(f.contributors, contributors(market.MarketplaceEtsy, titleA, 3, 100, 2000, 30)...)

	return f
}

func contributors(mp market.Marketplace, title string, n, units int, revenue float64, units7d int) []benchmark.ContributorRow {
	rows := make([]benchmark.ContributorRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, benchmark.ContributorRow{
			Tenant:      common.TenantID(fmt.Sprintf("contributor-%s-%d", mp, i)),
			Marketplace: mp,
			Title:       title,
			Units:       units,
			Revenue:     revenue,
			Units7d:     units7d,
		})
	}
	return rows
}

func buildService(t *testing.T, data *fakeData) (analysis.Service, *memoryCache, *captureEvents, *benchmark.Pseudonymizer) {
	t.Helper()

	pseudo, err := benchmark.NewPseudonymizer(config.PrivacyConfig{Environment: "test"})
	require.NoError(t, err)

	log := logging.NewNopLogger()
	cfg := engineConfig()
	cache := newMemoryCache()
	events := &captureEvents{}

	extractor := signals.NewExtractor(data, log, cfg.FetchTimeout)
	builder := benchmark.NewBuilder(data, cache, pseudo, log, cfg.MinContributors, cfg.BenchmarkTTL)
	scorer := scoring.NewScorer(cfg.BenchmarkWeight)
	service := analysis.NewService(cfg, extractor, builder, scorer, data, pseudo, events, log)

	return service, cache, events, pseudo
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestPipeline_DataRichAnalysis(t *testing.T) {
	now := time.Now().UTC()
	data := seedData(now)
	service, cache, events, pseudo := buildService(t, data)

	report, err := service.Analyze(context.Background(), analysis.Request{TenantID: requester})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, common.PhaseDataRich, report.Phase)
	assert.Equal(t, 30, report.PeriodDays)
	require.Equal(t, 1, report.ProductsAnalyzed)

	product := report.Products[0]
	assert.Equal(t, "ceramic-coffee-mug", product.ClusterKey)
	assert.Equal(t, "Ceramic Coffee Mug", product.ProductTitle)

	t.Run("ScoresRankedWithMarketDemand", func(t *testing.T) {
		require.Len(t, product.ChannelScores, 2)

		best := product.ChannelScores[0]
		assert.Equal(t, 1, best.Rank)
		assert.Equal(t, market.MarketplaceAmazon, best.Marketplace)
		assert.GreaterOrEqual(t, best.FitScore, product.ChannelScores[1].FitScore)

		// Six contributors at 30 units over 30 days; the requester's 999-unit
		// row must not be in the aggregate.
		require.NotNil(t, best.MarketDemand)
		assert.InDelta(t, 6.0, best.MarketDemand.UnitsPerDay, 0.001)
		assert.InDelta(t, 6.0, best.MarketDemand.RecentUnits7d, 0.001)

		require.NotNil(t, product.ChannelScores[1].MarketDemand)
		assert.Equal(t, market.MarketplaceEbay, product.ChannelScores[1].Marketplace)
	})

	t.Run("WalmartConnectRecommendation", func(t *testing.T) {
		rec := findRecommendation(product.Recommendations, market.RecommendationConnect, market.MarketplaceWalmart)
		require.NotNil(t, rec, "expected a CONNECT recommendation for walmart")

		assert.Equal(t, market.UrgencyMedium, rec.Urgency)
		assert.InDelta(t, 80, rec.Confidence, 0.001)
		require.NotNil(t, rec.Impact)
		// 6 contributors x 900 revenue over 30 days, 10% capture over a month.
		assert.InDelta(t, 540.0, rec.Impact.Amount, 0.001)
	})

	t.Run("SubThresholdMarketplaceNeverSurfaces", func(t *testing.T) {
		for _, rec := range product.Recommendations {
			if rec.Type == market.RecommendationExpand || rec.Type == market.RecommendationConnect {
				assert.NotEqual(t, market.MarketplaceEtsy, rec.Marketplace,
					"etsy has only 3 contributors and must stay invisible")
			}
		}
	})

	t.Run("TopRecommendationsOrdered", func(t *testing.T) {
		top := report.TopRecommendations
		require.NotEmpty(t, top)
		assert.LessOrEqual(t, len(top), 5)
		for i := 1; i < len(top); i++ {
			assert.GreaterOrEqual(t, top[i-1].Urgency.Rank(), top[i].Urgency.Rank())
		}
	})

	t.Run("CacheHoldsNoRawTenantIDs", func(t *testing.T) {
		cached := cache.dump()
		require.NotEmpty(t, cached)
		assert.NotContains(t, cached, string(requester))
		assert.NotContains(t, cached, "contributor-amazon-0")
		assert.Contains(t, cached, pseudo.Token("contributor-amazon-0"))
	})

	t.Run("CompletionEventIsPseudonymized", func(t *testing.T) {
		event := events.last(t)
		assert.Equal(t, pseudo.Token(requester), event.TenantToken)
		assert.NotContains(t, event.TenantToken, string(requester))
		assert.Equal(t, common.PhaseDataRich, event.Phase)
		assert.Equal(t, 1, event.ProductsAnalyzed)
	})

	t.Run("SecondRequestServedFromCache", func(t *testing.T) {
		_, err := service.Analyze(context.Background(), analysis.Request{TenantID: "tenant-other"})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.loads, "contributor aggregation must run once per TTL")
	})
}

func TestPipeline_DataPoorPhaseSkipsScoring(t *testing.T) {
	now := time.Now().UTC()
	data := seedData(now)
	data.tenantCount = 3

	service, _, events, _ := buildService(t, data)

	report, err := service.Analyze(context.Background(), analysis.Request{TenantID: requester})
	require.NoError(t, err)

	assert.Equal(t, common.PhaseDataPoor, report.Phase)
	require.Equal(t, 1, report.ProductsAnalyzed)

	product := report.Products[0]
	assert.Empty(t, product.ChannelScores)
	assert.Equal(t, market.LabelInsufficientData, product.Health)

	assert.Equal(t, common.PhaseDataPoor, events.last(t).Phase)
}

func TestPipeline_BenchmarkFailureDowngradesPhase(t *testing.T) {
	now := time.Now().UTC()
	data := seedData(now)
	data.contributorErr = fmt.Errorf("aggregation shard offline")

	service, _, _, _ := buildService(t, data)

	report, err := service.Analyze(context.Background(), analysis.Request{TenantID: requester})
	require.NoError(t, err, "benchmark failure must degrade, not fail")

	assert.Equal(t, common.PhaseDataPoor, report.Phase)
	require.Equal(t, 1, report.ProductsAnalyzed)
	assert.Empty(t, report.Products[0].ChannelScores)
}

func findRecommendation(recs []market.Recommendation, typ market.RecommendationType, mp market.Marketplace) *market.Recommendation {
	for i := range recs {
		if recs[i].Type == typ && recs[i].Marketplace == mp {
			return &recs[i]
		}
	}
	return nil
}
