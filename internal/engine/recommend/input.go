// Package recommend holds the four independent, side-effect-free
// recommendation generators (expand/connect, restock, reprice, deprioritize).
//
// Cross-tenant figures in reasoning text are unit- or ratio-based only;
// tenant-local currency appears only on the tenant's own numbers.  No other
// tenant's identity or raw figures ever reach a recommendation.
package recommend

import (
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// Input is everything the generators may look at for one product.  Scores is
// empty in the data-poor phase; Benchmarks is nil whenever no qualified
// benchmark set is available.
type Input struct {
	Product    *signals.ProductSignals
	Scores     []market.ChannelScore
	Benchmarks market.BenchmarkSet
	Connected  map[market.Marketplace]bool
}

// All runs the four generators and concatenates their output.
func All(in Input) []market.Recommendation {
	var out []market.Recommendation
	out = append(out, Expand(in)...)
	out = append(out, Restock(in)...)
	out = append(out, Reprice(in)...)
	out = append(out, Deprioritize(in)...)
	return out
}

// channel returns the product's signals on one marketplace.
func (in Input) channel(mp market.Marketplace) (market.RawSignals, bool) {
	if in.Product == nil {
		return market.RawSignals{}, false
	}
	sig, ok := in.Product.Channels[mp]
	return sig, ok
}

// bench returns the qualified benchmark for this product on one marketplace,
// or nil.
func (in Input) bench(mp market.Marketplace) *market.ClusterBenchmark {
	if in.Product == nil {
		return nil
	}
	return in.Benchmarks.Lookup(in.Product.ClusterKey, mp)
}

// newRecommendation fills the product identity fields every generator repeats.
func (in Input) newRecommendation(typ market.RecommendationType, mp market.Marketplace) market.Recommendation {
	return market.Recommendation{
		Type:         typ,
		ProductTitle: in.Product.Title,
		ClusterKey:   in.Product.ClusterKey,
		Marketplace:  mp,
	}
}

// monthlyOwnRevenue projects the tenant's own cross-channel revenue to a
// 30-day rate, 0 when no data.
func (in Input) monthlyOwnRevenue() float64 {
	if in.Product == nil || in.Product.DaysOfData <= 0 {
		return 0
	}
	return in.Product.TotalRevenue / float64(in.Product.DaysOfData) * 30
}
