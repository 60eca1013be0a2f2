package signals

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/channeliq/channeliq/internal/engine/cluster"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// minTrendBuckets is the minimum number of weekly buckets required before a
// sales-trend regression is attempted; fewer buckets yield a neutral result.
const minTrendBuckets = 3

// turnoverNormDays normalizes window unit sales to a 30-day rate before
// dividing by current stock.
const turnoverNormDays = 30.0

// Extractor turns raw source rows into per-(product, marketplace) RawSignals.
type Extractor struct {
	source       Source
	logger       logging.Logger
	queryTimeout time.Duration
}

// NewExtractor constructs an Extractor.  queryTimeout time-boxes each of the
// four source queries independently.
func NewExtractor(source Source, log logging.Logger, queryTimeout time.Duration) *Extractor {
	return &Extractor{
		source:       source,
		logger:       log.Named("signals"),
		queryTimeout: queryTimeout,
	}
}

// Extract runs the four source queries in parallel with best-effort
// partial-failure semantics: a failed or timed-out query contributes an empty
// result and marks the set Partial, it never aborts the extraction.  The
// returned error is always nil today; the signature leaves room for future
// hard failures.
func (e *Extractor) Extract(ctx context.Context, tenant common.TenantID, period common.Period) (*SignalSet, error) {
	var (
		sales     []SalesAggregate
		weekly    []WeeklyBucket
		inventory []InventoryRow
		connected []market.Marketplace
		partial   atomic.Bool
	)

	// Each query gets its own timeout so one slow source cannot consume the
	// entire budget of the others.
	g, gctx := errgroup.WithContext(ctx)

	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, e.queryTimeout)
			defer cancel()
			if err := fn(qctx); err != nil {
				partial.Store(true)
				e.logger.Warn("signal query degraded to empty result",
					logging.String("query", name),
					logging.String("tenant", tenant.Truncated()),
					logging.Err(err),
				)
			}
			return nil // partial tolerance: never fail the group
		})
	}

	run("sales_aggregates", func(qctx context.Context) error {
		rows, err := e.source.SalesAggregates(qctx, tenant, period)
		if err != nil {
			return err
		}
		sales = rows
		return nil
	})
	run("weekly_units", func(qctx context.Context) error {
		rows, err := e.source.WeeklyUnits(qctx, tenant, period)
		if err != nil {
			return err
		}
		weekly = rows
		return nil
	})
	run("inventory_levels", func(qctx context.Context) error {
		rows, err := e.source.InventoryLevels(qctx, tenant)
		if err != nil {
			return err
		}
		inventory = rows
		return nil
	})
	run("connected_marketplaces", func(qctx context.Context) error {
		rows, err := e.source.ConnectedMarketplaces(qctx, tenant)
		if err != nil {
			return err
		}
		connected = rows
		return nil
	})

	_ = g.Wait()

	set := e.build(sales, weekly, inventory, period)
	set.Connected = connected
	set.Partial = partial.Load()
	return set, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assembly
// ─────────────────────────────────────────────────────────────────────────────

// channelAccum accumulates one (product, marketplace) group before signal
// derivation.
type channelAccum struct {
	units     int
	revenue   float64
	orders    int
	fulfilled int
	returned  int
	firstSale time.Time
	lastSale  time.Time
	currency  string

	stock        int
	stockTracked bool
	listPrice    float64
}

func (a *channelAccum) addSale(row SalesAggregate) {
	a.units += row.UnitsSold
	a.revenue += row.Revenue
	a.orders += row.OrderCount
	a.fulfilled += row.FulfilledOrders
	a.returned += row.ReturnedOrders
	if a.firstSale.IsZero() || row.FirstSale.Before(a.firstSale) {
		a.firstSale = row.FirstSale
	}
	if row.LastSale.After(a.lastSale) {
		a.lastSale = row.LastSale
	}
	if a.currency == "" {
		a.currency = row.Currency
	}
}

// build groups rows into products via cluster keys with union-find alias
// resolution, then derives RawSignals per (product, marketplace).
func (e *Extractor) build(sales []SalesAggregate, weekly []WeeklyBucket, inventory []InventoryRow, period common.Period) *SignalSet {
	windowDays := period.Days()

	// Alias resolution: a SKU listed under variant titles on different
	// marketplaces must stay one product.  Union every sku node with its
	// title's cluster-key node; the set root identifies the product.
	ds := cluster.NewDisjointSet()
	keyUnits := make(map[string]int) // cluster key → units, for canonical pick
	for _, row := range sales {
		ck := cluster.Key(row.Title)
		ds.Union("sku:"+row.SKU, "ck:"+ck)
		keyUnits[ck] += row.UnitsSold
	}
	for _, row := range inventory {
		ck := cluster.Key(row.Title)
		ds.Union("sku:"+row.SKU, "ck:"+ck)
		if _, ok := keyUnits[ck]; !ok {
			keyUnits[ck] = 0
		}
	}

	// Canonical cluster key per set root: the member key with the most units,
	// ties broken alphabetically for determinism.
	rootKeys := make(map[string][]string)
	for ck := range keyUnits {
		root := ds.Find("ck:" + ck)
		rootKeys[root] = append(rootKeys[root], ck)
	}
	canonical := make(map[string]string) // member cluster key → canonical key
	for _, keys := range rootKeys {
		sort.Strings(keys)
		best := keys[0]
		for _, k := range keys[1:] {
			if keyUnits[k] > keyUnits[best] {
				best = k
			}
		}
		for _, k := range keys {
			canonical[k] = best
		}
	}
	resolve := func(title string) string {
		if c, ok := canonical[cluster.Key(title)]; ok {
			return c
		}
		return cluster.Key(title)
	}

	// Accumulate sales and inventory per (product, marketplace).
	type groupKey struct {
		ck string
		mp market.Marketplace
	}
	accums := make(map[groupKey]*channelAccum)
	titles := make(map[string]string)      // ck → representative title
	titleUnits := make(map[string]int)     // ck → units behind the current title
	skuProduct := make(map[string]string)  // sku → canonical ck, for weekly rows

	for _, row := range sales {
		ck := resolve(row.Title)
		skuProduct[row.SKU] = ck
		gk := groupKey{ck: ck, mp: row.Marketplace}
		a := accums[gk]
		if a == nil {
			a = &channelAccum{}
			accums[gk] = a
		}
		a.addSale(row)
		if row.Title != "" && (titles[ck] == "" || row.UnitsSold > titleUnits[ck]) {
			titles[ck] = row.Title
			titleUnits[ck] = row.UnitsSold
		}
	}

	for _, row := range inventory {
		ck := resolve(row.Title)
		if _, ok := skuProduct[row.SKU]; !ok {
			skuProduct[row.SKU] = ck
		}
		gk := groupKey{ck: ck, mp: row.Marketplace}
		a := accums[gk]
		if a == nil {
			a = &channelAccum{}
			accums[gk] = a
			if titles[ck] == "" && row.Title != "" {
				titles[ck] = row.Title
			}
		}
		a.stock += row.Quantity
		a.stockTracked = true
		if a.listPrice == 0 {
			a.listPrice = row.Price
		}
	}

	// Weekly trend buckets, re-grouped per (product, marketplace, week).
	type weekKey struct {
		ck   string
		mp   market.Marketplace
		week time.Time
	}
	weekUnits := make(map[weekKey]int)
	for _, b := range weekly {
		ck, ok := skuProduct[b.SKU]
		if !ok {
			continue // bucket for a SKU absent from the sales window
		}
		weekUnits[weekKey{ck: ck, mp: b.Marketplace, week: b.WeekStart}] += b.Units
	}
	weeksByGroup := make(map[groupKey]map[time.Time]int)
	for wk, units := range weekUnits {
		gk := groupKey{ck: wk.ck, mp: wk.mp}
		if weeksByGroup[gk] == nil {
			weeksByGroup[gk] = make(map[time.Time]int)
		}
		weeksByGroup[gk][wk.week] += units
	}

	// Derive signals.
	products := make(map[string]*ProductSignals)
	for gk, a := range accums {
		ps := products[gk.ck]
		if ps == nil {
			ps = &ProductSignals{
				ClusterKey: gk.ck,
				Title:      titles[gk.ck],
				Channels:   make(map[market.Marketplace]market.RawSignals),
			}
			products[gk.ck] = ps
		}

		sig := deriveSignals(a, weeksByGroup[gk], windowDays)
		ps.Channels[gk.mp] = sig
		ps.TotalRevenue += a.revenue
		ps.OrderCount += a.orders

		if span := observedSpanDays(a, windowDays); span > ps.DaysOfData {
			ps.DaysOfData = span
		}
	}

	return &SignalSet{Products: products}
}

// observedSpanDays returns the first→last sale span for a group, floored at 1
// and capped at the window length.  Groups with no sales contribute 0.
func observedSpanDays(a *channelAccum, windowDays int) int {
	if a.orders == 0 || a.firstSale.IsZero() {
		return 0
	}
	span := int(a.lastSale.Sub(a.firstSale).Hours()/24) + 1
	if span < 1 {
		span = 1
	}
	if span > windowDays {
		span = windowDays
	}
	return span
}

// deriveSignals computes the RawSignals for one (product, marketplace) group.
func deriveSignals(a *channelAccum, weeks map[time.Time]int, windowDays int) market.RawSignals {
	// Days active: span between first and last sale so velocity reflects
	// actual selling days.  A single-order product falls back to the full
	// lookback to avoid overstating velocity.
	daysActive := observedSpanDays(a, windowDays)
	if a.orders <= 1 {
		daysActive = windowDays
	}
	if daysActive < 1 {
		daysActive = 1
	}

	sig := market.RawSignals{
		OrderCount:   a.orders,
		UnitsSold:    a.units,
		DaysActive:   daysActive,
		CurrentStock: a.stock,
		StockTracked: a.stockTracked,
		Currency:     a.currency,
	}

	sig.RevenuePerDay = safeDiv(a.revenue, float64(daysActive))
	sig.UnitsPerDay = safeDiv(float64(a.units), float64(daysActive))
	if a.units > 0 {
		sig.AvgUnitPrice = safeDiv(a.revenue, float64(a.units))
	} else {
		sig.AvgUnitPrice = a.listPrice
	}

	sig.TrendSlope, sig.TrendFit = weeklyTrend(weeks)

	// Turnover is measured against the FULL observation window, not days
	// active: it describes stock depletion over the whole period.
	units30 := safeDiv(float64(a.units)*turnoverNormDays, float64(windowDays))
	switch {
	case !a.stockTracked:
		sig.Turnover = market.Untracked()
	case a.stock == 0 && a.units > 0:
		sig.Turnover = market.Stockout()
	case a.stock == 0:
		sig.Turnover = market.Measured(0)
	default:
		sig.Turnover = market.Measured(safeDiv(units30, float64(a.stock)))
	}

	// Return attribution is order-level: every item on a returned order counts
	// as returned.  Known coarsening for multi-item orders; preserved until
	// item-level return data exists.
	if denom := a.fulfilled + a.returned; denom > 0 {
		sig.ReturnRate = float64(a.returned) / float64(denom)
	}

	return sig
}

// weeklyTrend fits an ordinary least-squares line over weekly unit counts.
// The x axis is the week offset from the first observed week — not a
// sequential index — so gaps in the data depress the slope as they should.
// Fewer than minTrendBuckets buckets yields a neutral (0, 0) result.
func weeklyTrend(weeks map[time.Time]int) (slope, fit float64) {
	if len(weeks) < minTrendBuckets {
		return 0, 0
	}

	starts := make([]time.Time, 0, len(weeks))
	for w := range weeks {
		starts = append(starts, w)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	first := starts[0]

	n := float64(len(starts))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for _, w := range starts {
		x := w.Sub(first).Hours() / (24 * 7)
		y := float64(weeks[w])
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom

	// r² as fit quality, guarded against a flat series.
	varY := n*sumYY - sumY*sumY
	if varY == 0 {
		return slope, 0
	}
	r := (n*sumXY - sumX*sumY) / math.Sqrt(denom*varY)
	fit = r * r
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, 0
	}
	if math.IsNaN(fit) || math.IsInf(fit, 0) {
		fit = 0
	}
	return slope, fit
}

// safeDiv divides a by b, returning 0 for a zero or non-finite result base.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	v := a / b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
