package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// TenantID is a string alias for a tenant (seller) identifier.  Raw TenantID
// values must never appear in cross-tenant caches or log messages; use the
// pseudonymized form produced by the benchmark package.
type TenantID string

// Truncated returns a log-safe 8-character prefix of the tenant identifier.
func (t TenantID) Truncated() string {
	s := string(t)
	if len(s) > 8 {
		return s[:8] + "…"
	}
	return s
}

// RequestPhase is the operating regime of an analysis request, determined by
// the total tenant population.  In the data-poor phase cross-tenant
// benchmarking and score-based deprioritization are unavailable.
type RequestPhase string

const (
	PhaseDataPoor RequestPhase = "data_poor"
	PhaseDataRich RequestPhase = "data_rich"
)

// Period is a resolved analysis window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Days returns the whole number of days covered by the period, minimum 1.
func (p Period) Days() int {
	d := int(p.End.Sub(p.Start).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}

// Validate rejects inverted or zero-length periods before any computation.
func (p Period) Validate() error {
	if !p.End.After(p.Start) {
		return fmt.Errorf("invalid period: end %s is not after start %s", p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	return nil
}

// LastDays builds a Period covering the n days ending at now.
func LastDays(now time.Time, n int) Period {
	return Period{
		Start: now.AddDate(0, 0, -n),
		End:   now,
		Label: fmt.Sprintf("last_%d_days", n),
	}
}

// ErrorDetail provides structured error information for API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the generic wrapper for all API responses.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSuccessResponse creates a successful APIResponse.
func NewSuccessResponse[T any](requestID string, data T) APIResponse[T] {
	return APIResponse[T]{
		Success:   true,
		Data:      data,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorResponse creates an error APIResponse.
func NewErrorResponse(requestID, code, message string) APIResponse[any] {
	return APIResponse[any]{
		Success:   false,
		Error:     &ErrorDetail{Code: code, Message: message},
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new UUID v4.
func NewID() ID {
	return ID(uuid.New().String())
}

// ContextKey is the type for request-scoped context keys.
type ContextKey string

const (
	// ContextKeyTenantID is the context key for the tenant ID.
	ContextKeyTenantID ContextKey = "tenant_id"
	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID ContextKey = "request_id"
)
