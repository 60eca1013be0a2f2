package benchmark

import (
	"context"
	"time"

	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// ContributorRow is one per-(tenant, marketplace, title) aggregate row from
// the cross-tenant benchmark queries.  Rows still carry raw tenant IDs at this
// point; the builder pseudonymizes them before anything is cached.
type ContributorRow struct {
	Tenant      common.TenantID
	Marketplace market.Marketplace
	Title       string
	Units       int
	Revenue     float64
	// Units7d is the unit count over the trailing seven days of the period
	// (clamped to the period start for shorter windows).
	Units7d int
}

// Store is the read-side contract for the cross-tenant aggregation queries.
// Implemented by the postgres analytics repository.
type Store interface {
	ContributorAggregates(ctx context.Context, period common.Period) ([]ContributorRow, error)
}

// Cache is the subset of the redis cache the builder needs: a read-through
// get with single-flight loading, so the expensive aggregation queries run at
// most once per TTL system-wide regardless of concurrent analysis requests.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}
