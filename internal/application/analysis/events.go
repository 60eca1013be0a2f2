package analysis

import (
	"context"
	"time"

	"github.com/channeliq/channeliq/pkg/types/common"
)

// CompletionEvent is emitted after every analysis, successful or empty.  The
// tenant appears only as its pseudonymous token; the event stream must stay
// as privacy-clean as the benchmark cache.
type CompletionEvent struct {
	TenantToken      string              `json:"tenant_token"`
	PeriodLabel      string              `json:"period_label"`
	Phase            common.RequestPhase `json:"phase"`
	ProductsAnalyzed int                 `json:"products_analyzed"`
	Recommendations  int                 `json:"recommendations"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// EventPublisher is the outbound event contract, implemented by the kafka
// producer.  A nil publisher disables event emission.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event CompletionEvent) error
}
