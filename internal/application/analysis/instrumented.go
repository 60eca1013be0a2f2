package analysis

import (
	"context"
	"time"

	"github.com/channeliq/channeliq/pkg/types/market"
)

// Metrics is the sink for analysis observability, implemented by the
// prometheus AppMetrics.
type Metrics interface {
	RecordAnalysis(phase, status string, seconds float64, products int)
	RecordRecommendations(byType map[string]int)
}

// WithMetrics wraps a Service so every Analyze call is observed.  A nil
// metrics sink returns the service unwrapped.
func WithMetrics(s Service, m Metrics) Service {
	if m == nil {
		return s
	}
	return &instrumentedService{next: s, metrics: m}
}

type instrumentedService struct {
	next    Service
	metrics Metrics
}

func (s *instrumentedService) Analyze(ctx context.Context, req Request) (*market.Report, error) {
	start := time.Now()
	report, err := s.next.Analyze(ctx, req)
	seconds := time.Since(start).Seconds()

	if err != nil {
		s.metrics.RecordAnalysis("unknown", "error", seconds, 0)
		return nil, err
	}

	s.metrics.RecordAnalysis(string(report.Phase), "ok", seconds, report.ProductsAnalyzed)

	byType := make(map[string]int)
	for _, fit := range report.Products {
		for _, rec := range fit.Recommendations {
			byType[string(rec.Type)]++
		}
	}
	if len(byType) > 0 {
		s.metrics.RecordRecommendations(byType)
	}
	return report, nil
}
