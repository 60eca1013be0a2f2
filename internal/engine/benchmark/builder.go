package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/channeliq/channeliq/internal/engine/cluster"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// cachedRow is the unit of benchmark caching: one pseudonymized contributor
// aggregate per (tenant token, cluster key, marketplace).  The cached value is
// requester-agnostic — exclusion of the requesting tenant happens on every
// read, after the cache — which is what lets one system-wide entry serve all
// tenants for a full TTL.
type cachedRow struct {
	Token       string             `json:"t"`
	ClusterKey  string             `json:"k"`
	Marketplace market.Marketplace `json:"m"`
	Units       int                `json:"u"`
	Revenue     float64            `json:"r"`
	Units7d     int                `json:"u7"`
}

// Builder produces the per-request BenchmarkSet from cached contributor rows.
type Builder struct {
	store  Store
	cache  Cache
	pseudo *Pseudonymizer
	logger logging.Logger

	minContributors int
	ttl             time.Duration
}

// NewBuilder constructs a Builder.  minContributors is the k-anonymity gate;
// ttl bounds how often the aggregation queries run system-wide.
func NewBuilder(store Store, cache Cache, pseudo *Pseudonymizer, log logging.Logger, minContributors int, ttl time.Duration) *Builder {
	return &Builder{
		store:           store,
		cache:           cache,
		pseudo:          pseudo,
		logger:          log.Named("benchmark"),
		minContributors: minContributors,
		ttl:             ttl,
	}
}

// BuildFor returns the benchmark set visible to one requesting tenant: cached
// contributor rows folded into per-(cluster, marketplace) aggregates with the
// requester's own rows excluded, sub-threshold and zero-demand groups dropped.
func (b *Builder) BuildFor(ctx context.Context, requester common.TenantID, period common.Period) (market.BenchmarkSet, error) {
	var rows []cachedRow
	key := fmt.Sprintf("benchmark:rows:%dd", period.Days())
	err := b.cache.GetOrSet(ctx, key, &rows, b.ttl, func(lctx context.Context) (interface{}, error) {
		return b.loadRows(lctx, period)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBenchmarkUnavailable, "benchmark rows unavailable")
	}
	return b.fold(rows, b.pseudo.Token(requester), period.Days()), nil
}

// loadRows runs the aggregation queries and pseudonymizes the result.  Raw
// tenant identifiers never leave this function.
func (b *Builder) loadRows(ctx context.Context, period common.Period) ([]cachedRow, error) {
	raw, err := b.store.ContributorAggregates(ctx, period)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBenchmarkBuildFailed, "contributor aggregation failed")
	}

	out := make([]cachedRow, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		ck := cluster.Key(r.Title)
		if ck == cluster.UncategorizedKey {
			skipped++
			continue // the catch-all bucket would benchmark unrelated products
		}
		out = append(out, cachedRow{
			Token:       b.pseudo.Token(r.Tenant),
			ClusterKey:  ck,
			Marketplace: r.Marketplace,
			Units:       r.Units,
			Revenue:     r.Revenue,
			Units7d:     r.Units7d,
		})
	}

	b.logger.Info("benchmark rows rebuilt",
		logging.Int("rows", len(out)),
		logging.Int("uncategorized_skipped", skipped),
		logging.Int("period_days", period.Days()),
	)
	return out, nil
}

// fold aggregates cached rows into a BenchmarkSet for one requester.  A
// tenant may contribute multiple titles to the same cluster, so rows are
// merged per (token, cluster, marketplace) implicitly by the distinct-token
// set while units and revenue accumulate.
func (b *Builder) fold(rows []cachedRow, requesterToken string, windowDays int) market.BenchmarkSet {
	type groupKey struct {
		ck string
		mp market.Marketplace
	}
	type group struct {
		units   int
		units7d int
		revenue float64
		tokens  map[string]struct{}
	}

	groups := make(map[groupKey]*group)
	for _, r := range rows {
		if r.Token == requesterToken {
			continue
		}
		gk := groupKey{ck: r.ClusterKey, mp: r.Marketplace}
		g := groups[gk]
		if g == nil {
			g = &group{tokens: make(map[string]struct{})}
			groups[gk] = g
		}
		g.units += r.Units
		g.units7d += r.Units7d
		g.revenue += r.Revenue
		g.tokens[r.Token] = struct{}{}
	}

	days := float64(windowDays)
	if days < 1 {
		days = 1
	}

	set := make(market.BenchmarkSet)
	for gk, g := range groups {
		if len(g.tokens) < b.minContributors {
			continue
		}
		unitsPerDay := float64(g.units) / days
		if unitsPerDay <= 0 {
			continue
		}
		var avgPrice float64
		if g.units > 0 {
			avgPrice = g.revenue / float64(g.units)
		}
		bench := market.NewClusterBenchmark(
			gk.ck, gk.mp,
			unitsPerDay,
			g.revenue/days,
			avgPrice,
			float64(g.units7d)/7,
			len(g.tokens),
		)
		if set[gk.ck] == nil {
			set[gk.ck] = make(map[market.Marketplace]*market.ClusterBenchmark)
		}
		set[gk.ck][gk.mp] = bench
	}
	return set
}
