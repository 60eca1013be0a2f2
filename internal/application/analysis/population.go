package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PopulationCounter reports the system-wide count of tenants with connected
// marketplaces.  Implemented by the postgres analytics repository.
type PopulationCounter interface {
	ActiveTenantCount(ctx context.Context) (int, error)
}

// populationCache memoizes the tenant-population count with a TTL and a
// single in-flight refresh, so phase determination costs at most one query
// per TTL regardless of request concurrency.
type populationCache struct {
	counter PopulationCounter
	ttl     time.Duration
	timeout time.Duration

	mu      sync.Mutex
	count   int
	expires time.Time

	sf singleflight.Group
}

func newPopulationCache(counter PopulationCounter, ttl, timeout time.Duration) *populationCache {
	return &populationCache{counter: counter, ttl: ttl, timeout: timeout}
}

// Count returns the cached population, refreshing it when the TTL lapsed.  A
// refresh failure is returned to the caller, which treats it as the
// conservative data-poor phase; the cache keeps no stale fallback.
func (p *populationCache) Count(ctx context.Context) (int, error) {
	p.mu.Lock()
	if time.Now().Before(p.expires) {
		n := p.count
		p.mu.Unlock()
		return n, nil
	}
	p.mu.Unlock()

	v, err, _ := p.sf.Do("population", func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		n, err := p.counter.ActiveTenantCount(cctx)
		if err != nil {
			return 0, err
		}

		p.mu.Lock()
		p.count = n
		p.expires = time.Now().Add(p.ttl)
		p.mu.Unlock()
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
