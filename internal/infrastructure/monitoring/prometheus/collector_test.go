package prometheus

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
)

func newCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "channeliq"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestCollector_ExposesRegisteredMetrics(t *testing.T) {
	c := newCollector(t)
	metrics := NewAppMetrics(c)

	metrics.RecordHTTPRequest("POST", "/api/v1/analysis/channel-fit", 200, 0.12)
	metrics.RecordAnalysis("data_rich", "ok", 0.5, 7)
	metrics.RecommendationsGenerated.WithLabelValues("RESTOCK").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "channeliq_http_requests_total")
	assert.Contains(t, out, "channeliq_analyses_total")
	assert.Contains(t, out, `type="RESTOCK"`)
}

func TestCollector_DuplicateRegistrationReturnsExisting(t *testing.T) {
	c := newCollector(t)

	first := c.RegisterCounter("dup_total", "duplicate", "label")
	second := c.RegisterCounter("dup_total", "duplicate", "label")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	assert.Contains(t, string(body), `channeliq_dup_total{label="a"} 2`)
}

func TestCollector_ConflictingRegistrationDegradesToNoop(t *testing.T) {
	c := newCollector(t)

	c.RegisterCounter("shape_total", "counter", "a")
	g := c.RegisterGauge("shape_total", "same name, different type")

	// Must not panic; the conflicting gauge is a no-op.
	g.WithLabelValues().Set(1)
}
