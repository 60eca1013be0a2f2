// Package repositories holds the read-side SQL behind the analysis engine:
// tenant-scoped sales, trend, and inventory queries plus the cross-tenant
// benchmark aggregation.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// AnalyticsRepository serves every read the engine performs.  All queries are
// read-only; order ingestion happens elsewhere.
type AnalyticsRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAnalyticsRepository builds the repository over the shared pool.
func NewAnalyticsRepository(pool *pgxpool.Pool, log logging.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool, logger: log.Named("analytics")}
}

// Cancelled orders never count; returned orders count as orders so the
// return rate stays order-level.
const salesAggregatesQuery = `
SELECT
    oi.sku,
    MAX(oi.title)                                                      AS title,
    o.marketplace,
    MAX(o.currency)                                                    AS currency,
    COALESCE(SUM(oi.quantity), 0)                                      AS units_sold,
    COALESCE(SUM(oi.quantity * oi.unit_price), 0)                      AS revenue,
    COUNT(DISTINCT o.id)                                               AS order_count,
    COUNT(DISTINCT o.id) FILTER (WHERE o.status IN ('shipped', 'delivered')) AS fulfilled_orders,
    COUNT(DISTINCT o.id) FILTER (WHERE o.status = 'returned')          AS returned_orders,
    MIN(o.ordered_at)                                                  AS first_sale,
    MAX(o.ordered_at)                                                  AS last_sale
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
WHERE o.tenant_id = $1
  AND o.ordered_at >= $2
  AND o.ordered_at < $3
  AND o.status <> 'cancelled'
GROUP BY oi.sku, o.marketplace`

// SalesAggregates returns one row per (SKU, marketplace) for the tenant over
// the period.
func (r *AnalyticsRepository) SalesAggregates(ctx context.Context, tenant common.TenantID, period common.Period) ([]signals.SalesAggregate, error) {
	rows, err := r.pool.Query(ctx, salesAggregatesQuery, string(tenant), period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "sales aggregation query failed")
	}
	defer rows.Close()

	var out []signals.SalesAggregate
	for rows.Next() {
		var agg signals.SalesAggregate
		var marketplace string
		if err := rows.Scan(&agg.SKU, &agg.Title, &marketplace, &agg.Currency,
			&agg.UnitsSold, &agg.Revenue, &agg.OrderCount,
			&agg.FulfilledOrders, &agg.ReturnedOrders,
			&agg.FirstSale, &agg.LastSale); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "sales aggregation scan failed")
		}
		agg.Marketplace = market.Marketplace(marketplace)
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "sales aggregation iteration failed")
	}
	return out, nil
}

const weeklyUnitsQuery = `
SELECT
    oi.sku,
    o.marketplace,
    DATE_TRUNC('week', o.ordered_at)::date AS week_start,
    COALESCE(SUM(oi.quantity), 0)          AS units
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
WHERE o.tenant_id = $1
  AND o.ordered_at >= $2
  AND o.ordered_at < $3
  AND o.status <> 'cancelled'
GROUP BY oi.sku, o.marketplace, DATE_TRUNC('week', o.ordered_at)
ORDER BY week_start`

// WeeklyUnits returns per-ISO-week unit counts for trend regression.
func (r *AnalyticsRepository) WeeklyUnits(ctx context.Context, tenant common.TenantID, period common.Period) ([]signals.WeeklyBucket, error) {
	rows, err := r.pool.Query(ctx, weeklyUnitsQuery, string(tenant), period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "weekly units query failed")
	}
	defer rows.Close()

	var out []signals.WeeklyBucket
	for rows.Next() {
		var b signals.WeeklyBucket
		var marketplace string
		if err := rows.Scan(&b.SKU, &marketplace, &b.WeekStart, &b.Units); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "weekly units scan failed")
		}
		b.Marketplace = market.Marketplace(marketplace)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "weekly units iteration failed")
	}
	return out, nil
}

const inventoryLevelsQuery = `
SELECT sku, title, marketplace, quantity, price
FROM inventory_levels
WHERE tenant_id = $1`

// InventoryLevels returns the tenant's current stock rows.  Listings without
// a row here are untracked.
func (r *AnalyticsRepository) InventoryLevels(ctx context.Context, tenant common.TenantID) ([]signals.InventoryRow, error) {
	rows, err := r.pool.Query(ctx, inventoryLevelsQuery, string(tenant))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "inventory query failed")
	}
	defer rows.Close()

	var out []signals.InventoryRow
	for rows.Next() {
		var inv signals.InventoryRow
		var marketplace string
		if err := rows.Scan(&inv.SKU, &inv.Title, &marketplace, &inv.Quantity, &inv.Price); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "inventory scan failed")
		}
		inv.Marketplace = market.Marketplace(marketplace)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "inventory iteration failed")
	}
	return out, nil
}

const connectedMarketplacesQuery = `
SELECT marketplace
FROM marketplace_connections
WHERE tenant_id = $1 AND status = 'active'
ORDER BY marketplace`

// ConnectedMarketplaces returns the channels the tenant has an active
// connection to.
func (r *AnalyticsRepository) ConnectedMarketplaces(ctx context.Context, tenant common.TenantID) ([]market.Marketplace, error) {
	rows, err := r.pool.Query(ctx, connectedMarketplacesQuery, string(tenant))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "marketplace connections query failed")
	}
	defer rows.Close()

	var out []market.Marketplace
	for rows.Next() {
		var marketplace string
		if err := rows.Scan(&marketplace); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "marketplace connections scan failed")
		}
		out = append(out, market.Marketplace(marketplace))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "marketplace connections iteration failed")
	}
	return out, nil
}

// The trailing-seven-day window is clamped to the period start so short
// windows never look beyond their own range.
const contributorAggregatesQuery = `
SELECT
    o.tenant_id,
    o.marketplace,
    oi.title,
    COALESCE(SUM(oi.quantity), 0)                                                        AS units,
    COALESCE(SUM(oi.quantity * oi.unit_price), 0)                                        AS revenue,
    COALESCE(SUM(oi.quantity) FILTER (WHERE o.ordered_at >= GREATEST($1::timestamptz, $2::timestamptz - INTERVAL '7 days')), 0) AS units_7d
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
WHERE o.ordered_at >= $1
  AND o.ordered_at < $2
  AND o.status <> 'cancelled'
GROUP BY o.tenant_id, o.marketplace, oi.title`

// ContributorAggregates runs the system-wide benchmark aggregation.  Rows
// still carry raw tenant IDs here; the benchmark builder pseudonymizes them
// before anything leaves this process boundary.
func (r *AnalyticsRepository) ContributorAggregates(ctx context.Context, period common.Period) ([]benchmark.ContributorRow, error) {
	rows, err := r.pool.Query(ctx, contributorAggregatesQuery, period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "contributor aggregation query failed")
	}
	defer rows.Close()

	var out []benchmark.ContributorRow
	for rows.Next() {
		var row benchmark.ContributorRow
		var tenant, marketplace string
		if err := rows.Scan(&tenant, &marketplace, &row.Title, &row.Units, &row.Revenue, &row.Units7d); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "contributor aggregation scan failed")
		}
		row.Tenant = common.TenantID(tenant)
		row.Marketplace = market.Marketplace(marketplace)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "contributor aggregation iteration failed")
	}
	return out, nil
}

const activeTenantCountQuery = `
SELECT COUNT(*) FROM tenants WHERE status = 'active'`

// ActiveTenantCount returns the size of the active tenant population, which
// drives the data-poor / data-rich phase decision.
func (r *AnalyticsRepository) ActiveTenantCount(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, activeTenantCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "tenant count query failed")
	}
	return count, nil
}
