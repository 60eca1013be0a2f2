package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

type recordedAnalysis struct {
	phase    string
	status   string
	products int
}

type fakeMetrics struct {
	analyses []recordedAnalysis
	byType   map[string]int
}

func (m *fakeMetrics) RecordAnalysis(phase, status string, _ float64, products int) {
	m.analyses = append(m.analyses, recordedAnalysis{phase: phase, status: status, products: products})
}

func (m *fakeMetrics) RecordRecommendations(byType map[string]int) {
	m.byType = byType
}

type stubService struct {
	report *market.Report
	err    error
}

func (s *stubService) Analyze(_ context.Context, _ Request) (*market.Report, error) {
	return s.report, s.err
}

func TestWithMetrics_NilSinkReturnsUnwrapped(t *testing.T) {
	inner := &stubService{}
	assert.Equal(t, Service(inner), WithMetrics(inner, nil))
}

func TestWithMetrics_RecordsSuccess(t *testing.T) {
	report := &market.Report{
		Phase:            common.PhaseDataRich,
		ProductsAnalyzed: 2,
		Products: []market.FitReport{
			{Recommendations: []market.Recommendation{
				{Type: market.RecommendationRestock},
				{Type: market.RecommendationConnect},
			}},
			{Recommendations: []market.Recommendation{
				{Type: market.RecommendationRestock},
			}},
		},
	}
	metrics := &fakeMetrics{}
	svc := WithMetrics(&stubService{report: report}, metrics)

	got, err := svc.Analyze(context.Background(), Request{TenantID: "tenant-a"})
	require.NoError(t, err)
	assert.Equal(t, report, got)

	require.Len(t, metrics.analyses, 1)
	assert.Equal(t, "data_rich", metrics.analyses[0].phase)
	assert.Equal(t, "ok", metrics.analyses[0].status)
	assert.Equal(t, 2, metrics.analyses[0].products)

	assert.Equal(t, map[string]int{"RESTOCK": 2, "CONNECT": 1}, metrics.byType)
}

func TestWithMetrics_RecordsFailure(t *testing.T) {
	metrics := &fakeMetrics{}
	svc := WithMetrics(&stubService{err: errors.Validation("bad lookback")}, metrics)

	_, err := svc.Analyze(context.Background(), Request{TenantID: "tenant-a"})
	require.Error(t, err)

	require.Len(t, metrics.analyses, 1)
	assert.Equal(t, "error", metrics.analyses[0].status)
	assert.Nil(t, metrics.byType)
}
