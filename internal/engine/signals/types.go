// Package signals reduces a tenant's raw order, item, and inventory rows to
// per-(product, marketplace) performance signals over a lookback window.
// Everything produced here is derived per-request and never persisted.
package signals

import (
	"context"
	"time"

	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// SalesAggregate is one per-(SKU, marketplace) row from the full-window sales
// aggregation query.
type SalesAggregate struct {
	SKU             string
	Title           string
	Marketplace     market.Marketplace
	Currency        string
	UnitsSold       int
	Revenue         float64
	OrderCount      int
	FulfilledOrders int
	ReturnedOrders  int
	FirstSale       time.Time
	LastSale        time.Time
}

// WeeklyBucket is one per-(SKU, marketplace, week) unit count used for trend
// regression.  WeekStart is the Monday of the bucket's ISO week.
type WeeklyBucket struct {
	SKU         string
	Marketplace market.Marketplace
	WeekStart   time.Time
	Units       int
}

// InventoryRow is one current stock level row.  Listings without an inventory
// row are untracked.
type InventoryRow struct {
	SKU         string
	Title       string
	Marketplace market.Marketplace
	Quantity    int
	Price       float64
}

// Source is the read-side contract the extractor consumes.  Implemented by
// the postgres analytics repository; faked in tests.
type Source interface {
	SalesAggregates(ctx context.Context, tenant common.TenantID, period common.Period) ([]SalesAggregate, error)
	WeeklyUnits(ctx context.Context, tenant common.TenantID, period common.Period) ([]WeeklyBucket, error)
	InventoryLevels(ctx context.Context, tenant common.TenantID) ([]InventoryRow, error)
	ConnectedMarketplaces(ctx context.Context, tenant common.TenantID) ([]market.Marketplace, error)
}

// ProductSignals groups one product's signals across its channels.
type ProductSignals struct {
	ClusterKey string
	Title      string // representative display title
	Channels   map[market.Marketplace]market.RawSignals

	// TotalRevenue is the tenant-local revenue across all channels, used only
	// for ranking the tenant's own products.
	TotalRevenue float64

	// OrderCount is the total order count across channels.
	OrderCount int

	// DaysOfData is the observed sales span across all channels, capped at the
	// lookback length; it feeds the coverage factor of score confidence.
	DaysOfData int
}

// SignalSet is the extractor's output for one tenant and period.
type SignalSet struct {
	Products  map[string]*ProductSignals // keyed by cluster key
	Connected []market.Marketplace

	// Partial is true when at least one source query failed and its
	// contribution was treated as empty.
	Partial bool
}

// ConnectedSet returns the connected marketplaces as a lookup set.
func (s *SignalSet) ConnectedSet() map[market.Marketplace]bool {
	out := make(map[market.Marketplace]bool, len(s.Connected))
	for _, mp := range s.Connected {
		out[mp] = true
	}
	return out
}
