package scoring

import (
	"math"
	"sort"

	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// Confidence model constants.
const (
	// fullConfidenceOrders is the order count treated as full order-count
	// confidence on the log scale.
	fullConfidenceOrders = 50

	// benchmarkBonus is added when a qualified benchmark contributed to the
	// composite score.
	benchmarkBonus = 10

	// singleChannelPenalty applies when a product sells on one marketplace
	// only: cross-channel normalization degenerates to a constant midpoint
	// there and must not read as high-confidence discrimination.
	singleChannelPenalty = 15
)

// Label thresholds on (score, confidence).
const (
	labelMinConfidence = 40
	labelStrongScore   = 75
	labelGoodScore     = 60
	labelModerateScore = 40
)

// Scorer computes ranked per-channel fit scores for one product.
type Scorer struct {
	benchmarkWeight float64
}

// NewScorer constructs a Scorer.  benchmarkWeight is the composite share
// carried by the platform-benchmark signal when one exists, in [0, 1).
func NewScorer(benchmarkWeight float64) *Scorer {
	return &Scorer{benchmarkWeight: benchmarkWeight}
}

// ScoreProduct returns one ChannelScore per marketplace the product sells on,
// ranked best-first.  benchmarks may be nil (data-poor phase or benchmark
// failure); scores then rest entirely on the tenant's own signals.
func (s *Scorer) ScoreProduct(ps *signals.ProductSignals, benchmarks market.BenchmarkSet, lookbackDays int) []market.ChannelScore {
	if ps == nil || len(ps.Channels) == 0 {
		return nil
	}

	norms := computeNorms(ps.Channels)
	scores := make([]market.ChannelScore, 0, len(ps.Channels))

	for mp, sig := range ps.Channels {
		core := norms[mp].weighted()

		bench := benchmarks.Lookup(ps.ClusterKey, mp)
		benchSignal, hasBench := benchmark.Signal(sig.UnitsPerDay, bench)

		composite := core
		if hasBench {
			composite = (1-s.benchmarkWeight)*core + s.benchmarkWeight*benchSignal
		}

		fit := clamp(composite*100, 0, 100)
		conf := s.confidence(sig, ps.DaysOfData, lookbackDays, hasBench, len(ps.Channels))

		cs := market.ChannelScore{
			Marketplace: mp,
			FitScore:    round1(fit),
			Confidence:  round1(conf),
			Signals:     sig,
			Label:       scoreLabel(fit, conf),
		}
		if hasBench {
			cs.MarketDemand = &market.MarketDemand{
				UnitsPerDay:   bench.TotalUnitsPerDay,
				RecentUnits7d: bench.RecentUnits7d,
			}
		}
		scores = append(scores, cs)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].FitScore != scores[j].FitScore {
			return scores[i].FitScore > scores[j].FitScore
		}
		return scores[i].Marketplace < scores[j].Marketplace
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// confidence is the geometric mean of order-count, coverage, and completeness
// factors on a 0–100 scale, with the benchmark bonus and the single-channel
// penalty applied before clamping.
func (s *Scorer) confidence(sig market.RawSignals, daysOfData, lookbackDays int, hasBench bool, channelCount int) float64 {
	orderConf := math.Log(1+float64(sig.OrderCount)) / math.Log(1+fullConfidenceOrders)
	if orderConf > 1 {
		orderConf = 1
	}

	coverage := 0.0
	if lookbackDays > 0 {
		coverage = float64(daysOfData) / float64(lookbackDays)
	}
	if coverage > 1 {
		coverage = 1
	}

	conf := 100 * math.Cbrt(orderConf*coverage*completeness(sig))
	if hasBench {
		conf += benchmarkBonus
	}
	if channelCount == 1 {
		conf -= singleChannelPenalty
	}
	return clamp(conf, 0, 100)
}

// completeness is the fraction of the six core signals backed by real,
// non-zero data on this channel.
func completeness(sig market.RawSignals) float64 {
	present := 0
	if sig.RevenuePerDay > 0 {
		present++
	}
	if sig.UnitsPerDay > 0 {
		present++
	}
	if sig.AvgUnitPrice > 0 {
		present++
	}
	if sig.TrendFit > 0 {
		present++
	}
	if sig.Turnover.Kind() != market.TurnoverUntracked {
		present++
	}
	if sig.OrderCount > 0 {
		present++ // return rate has a real denominator
	}
	return float64(present) / 6
}

// scoreLabel classifies a (score, confidence) pair.  Low confidence always
// wins: a high score derived from thin data is not a finding.
func scoreLabel(score, conf float64) market.ScoreLabel {
	if conf < labelMinConfidence {
		return market.LabelInsufficientData
	}
	switch {
	case score >= labelStrongScore:
		return market.LabelStrong
	case score >= labelGoodScore:
		return market.LabelGood
	case score >= labelModerateScore:
		return market.LabelModerate
	default:
		return market.LabelWeak
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to one decimal so reports stay stable across float noise.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
