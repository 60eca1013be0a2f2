// Package analysis orchestrates a channel-fit analysis request: period
// resolution, phase determination, signal extraction, benchmark construction,
// scoring, recommendation generation, and report assembly.
package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/recommend"
	"github.com/channeliq/channeliq/internal/engine/scoring"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// topRecommendationCount is the size of the report's global recommendation
// list.
const topRecommendationCount = 5

// Request is one channel-fit analysis request.  Zero values fall back to the
// configured defaults.
type Request struct {
	TenantID      common.TenantID
	LookbackDays  int
	ProductFilter string
	MaxProducts   int
}

// Service is the orchestrator contract consumed by the HTTP and CLI layers.
type Service interface {
	Analyze(ctx context.Context, req Request) (*market.Report, error)
}

// SignalExtractor is satisfied by signals.Extractor.
type SignalExtractor interface {
	Extract(ctx context.Context, tenant common.TenantID, period common.Period) (*signals.SignalSet, error)
}

// BenchmarkBuilder is satisfied by benchmark.Builder.
type BenchmarkBuilder interface {
	BuildFor(ctx context.Context, requester common.TenantID, period common.Period) (market.BenchmarkSet, error)
}

type service struct {
	cfg        config.EngineConfig
	extractor  SignalExtractor
	benchmarks BenchmarkBuilder
	scorer     *scoring.Scorer
	population *populationCache
	pseudo     *benchmark.Pseudonymizer
	events     EventPublisher
	logger     logging.Logger
	now        func() time.Time
}

// NewService wires the orchestrator.  events may be nil to disable emission.
func NewService(
	cfg config.EngineConfig,
	extractor SignalExtractor,
	builder BenchmarkBuilder,
	scorer *scoring.Scorer,
	counter PopulationCounter,
	pseudo *benchmark.Pseudonymizer,
	events EventPublisher,
	log logging.Logger,
) Service {
	return &service{
		cfg:        cfg,
		extractor:  extractor,
		benchmarks: builder,
		scorer:     scorer,
		population: newPopulationCache(counter, cfg.PopulationTTL, cfg.PopulationTimeout),
		pseudo:     pseudo,
		events:     events,
		logger:     log.Named("analysis"),
		now:        time.Now,
	}
}

// Analyze runs the full request state machine.  Timeouts and partial data
// degrade the result; the only hard failure is an invalid request.
func (s *service) Analyze(ctx context.Context, req Request) (*market.Report, error) {
	lookback := req.LookbackDays
	if lookback == 0 {
		lookback = s.cfg.LookbackDays
	}
	switch lookback {
	case 30, 60, 90:
	default:
		return nil, errors.Newf(errors.ErrCodeReportPeriodInvalid,
			"lookback must be 30, 60 or 90 days, got %d", lookback)
	}

	maxProducts := req.MaxProducts
	if maxProducts <= 0 {
		maxProducts = s.cfg.MaxProducts
	}
	if maxProducts > config.MaxProductsHardCap {
		maxProducts = config.MaxProductsHardCap
	}

	period := common.LastDays(s.now().UTC(), lookback)
	phase := s.resolvePhase(ctx, req.TenantID)

	set, err := s.extractor.Extract(ctx, req.TenantID, period)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportBuildFailed, "signal extraction failed")
	}
	if len(set.Products) == 0 {
		return s.finish(ctx, req.TenantID, market.EmptyReport(period, phase))
	}

	var benchmarks market.BenchmarkSet
	if phase == common.PhaseDataRich {
		benchmarks, phase = s.buildBenchmarks(ctx, req.TenantID, period, phase)
	}

	selected := selectProducts(set, req.ProductFilter, maxProducts)
	if len(selected) == 0 {
		return s.finish(ctx, req.TenantID, market.EmptyReport(period, phase))
	}
	connected := set.ConnectedSet()

	fits := make([]market.FitReport, 0, len(selected))
	var all []market.Recommendation
	for _, ps := range selected {
		var scores []market.ChannelScore
		if phase == common.PhaseDataRich {
			scores = s.scorer.ScoreProduct(ps, benchmarks, lookback)
		}

		recs := recommend.All(recommend.Input{
			Product:    ps,
			Scores:     scores,
			Benchmarks: benchmarks,
			Connected:  connected,
		})

		fits = append(fits, market.FitReport{
			ProductTitle:    ps.Title,
			ClusterKey:      ps.ClusterKey,
			ChannelScores:   scores,
			Recommendations: recs,
			Health:          healthLabel(scores),
		})
		all = append(all, recs...)
	}

	report := &market.Report{
		PeriodLabel:        period.Label,
		PeriodDays:         period.Days(),
		Phase:              phase,
		ProductsAnalyzed:   len(fits),
		Products:           fits,
		TopRecommendations: topRecommendations(all),
		GeneratedAt:        s.now().UTC(),
	}
	return s.finish(ctx, req.TenantID, report)
}

// resolvePhase maps the tenant population onto the operating phase.  Any
// failure to count tenants is conservative: data-poor.
func (s *service) resolvePhase(ctx context.Context, tenant common.TenantID) common.RequestPhase {
	count, err := s.population.Count(ctx)
	if err != nil {
		s.logger.Warn("population count unavailable, operating data-poor",
			logging.String("tenant", tenant.Truncated()),
			logging.Err(err),
		)
		return common.PhaseDataPoor
	}
	if count >= s.cfg.DataRichMinTenants {
		return common.PhaseDataRich
	}
	return common.PhaseDataPoor
}

// buildBenchmarks attempts benchmark construction under its own timeout.  Any
// failure downgrades the phase instead of failing the request.
func (s *service) buildBenchmarks(ctx context.Context, tenant common.TenantID, period common.Period, phase common.RequestPhase) (market.BenchmarkSet, common.RequestPhase) {
	bctx, cancel := context.WithTimeout(ctx, s.cfg.BenchmarkTimeout)
	defer cancel()

	set, err := s.benchmarks.BuildFor(bctx, tenant, period)
	if err != nil {
		s.logger.Warn("benchmark build failed, downgrading to data-poor phase",
			logging.String("tenant", tenant.Truncated()),
			logging.Err(err),
		)
		return nil, common.PhaseDataPoor
	}
	return set, phase
}

// selectProducts filters by the text filter when present, otherwise ranks by
// tenant-local revenue, and caps the result.
func selectProducts(set *signals.SignalSet, filter string, maxProducts int) []*signals.ProductSignals {
	products := make([]*signals.ProductSignals, 0, len(set.Products))
	needle := strings.ToLower(strings.TrimSpace(filter))
	for _, ps := range set.Products {
		if needle != "" &&
			!strings.Contains(strings.ToLower(ps.Title), needle) &&
			!strings.Contains(ps.ClusterKey, needle) {
			continue
		}
		products = append(products, ps)
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].TotalRevenue != products[j].TotalRevenue {
			return products[i].TotalRevenue > products[j].TotalRevenue
		}
		return products[i].ClusterKey < products[j].ClusterKey
	})
	if len(products) > maxProducts {
		products = products[:maxProducts]
	}
	return products
}

// topRecommendations sorts by urgency then confidence and keeps the top five.
func topRecommendations(all []market.Recommendation) []market.Recommendation {
	sorted := make([]market.Recommendation, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Urgency.Rank() != sorted[j].Urgency.Rank() {
			return sorted[i].Urgency.Rank() > sorted[j].Urgency.Rank()
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > topRecommendationCount {
		sorted = sorted[:topRecommendationCount]
	}
	return sorted
}

// healthLabel summarizes a product from its best channel; without scores
// (data-poor phase) there is no basis for a verdict.
func healthLabel(scores []market.ChannelScore) market.ScoreLabel {
	if len(scores) == 0 {
		return market.LabelInsufficientData
	}
	return scores[0].Label
}

// finish emits the completion event and returns the report.  Emission
// failures are logged, never surfaced.
func (s *service) finish(ctx context.Context, tenant common.TenantID, report *market.Report) (*market.Report, error) {
	if s.events != nil {
		event := CompletionEvent{
			TenantToken:      s.pseudo.Token(tenant),
			PeriodLabel:      report.PeriodLabel,
			Phase:            report.Phase,
			ProductsAnalyzed: report.ProductsAnalyzed,
			Recommendations:  len(report.TopRecommendations),
			GeneratedAt:      report.GeneratedAt,
		}
		if err := s.events.PublishAnalysisCompleted(ctx, event); err != nil {
			s.logger.Warn("analysis event emission failed",
				logging.String("tenant", tenant.Truncated()),
				logging.Err(err),
			)
		}
	}
	return report, nil
}
