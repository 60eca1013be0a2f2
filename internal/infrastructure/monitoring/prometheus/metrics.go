package prometheus

import "fmt"

// AppMetrics holds every metric the platform emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Analysis engine
	AnalysesTotal            CounterVec
	AnalysisDuration         HistogramVec
	ProductsAnalyzed         HistogramVec
	RecommendationsGenerated CounterVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
}

var (
	defaultHTTPBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	defaultAnalysisBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	productCountBuckets    = []float64{1, 2, 5, 10, 20}
)

// NewAppMetrics registers every metric on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", defaultHTTPBuckets, "method", "path"),

		AnalysesTotal:            collector.RegisterCounter("analyses_total", "Channel-fit analyses run", "phase", "status"),
		AnalysisDuration:         collector.RegisterHistogram("analysis_duration_seconds", "Channel-fit analysis duration", defaultAnalysisBuckets, "phase"),
		ProductsAnalyzed:         collector.RegisterHistogram("analysis_products", "Products per analysis", productCountBuckets),
		RecommendationsGenerated: collector.RegisterCounter("recommendations_total", "Recommendations generated", "type"),

		CacheHitsTotal:   collector.RegisterCounter("cache_hits_total", "Cache hits", "cache"),
		CacheMissesTotal: collector.RegisterCounter("cache_misses_total", "Cache misses", "cache"),
	}
}

// RecordHTTPRequest observes one completed HTTP request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, seconds float64) {
	status := fmt.Sprintf("%d", statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordAnalysis observes one completed (or failed) analysis request.
func (m *AppMetrics) RecordAnalysis(phase, status string, seconds float64, products int) {
	m.AnalysesTotal.WithLabelValues(phase, status).Inc()
	m.AnalysisDuration.WithLabelValues(phase).Observe(seconds)
	if status == "ok" {
		m.ProductsAnalyzed.WithLabelValues().Observe(float64(products))
	}
}

// RecordRecommendations counts generated recommendations by type.
func (m *AppMetrics) RecordRecommendations(byType map[string]int) {
	for typ, n := range byType {
		m.RecommendationsGenerated.WithLabelValues(typ).Add(float64(n))
	}
}

// CacheHit and CacheMiss feed the redis cache stats hooks.
func (m *AppMetrics) CacheHit()  { m.CacheHitsTotal.WithLabelValues("redis").Inc() }
func (m *AppMetrics) CacheMiss() { m.CacheMissesTotal.WithLabelValues("redis").Inc() }
