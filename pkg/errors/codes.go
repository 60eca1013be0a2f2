package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeConfiguration      ErrorCode = "COMMON_015"
)

// Signal Extraction Error Codes
const (
	ErrCodeSignalQueryFailed   ErrorCode = "SIG_001"
	ErrCodeSignalWindowInvalid ErrorCode = "SIG_002"
	ErrCodeSignalPartialData   ErrorCode = "SIG_003"
)

// Benchmark Error Codes
const (
	ErrCodeBenchmarkBuildFailed   ErrorCode = "BMK_001"
	ErrCodeBenchmarkUnavailable   ErrorCode = "BMK_002"
	ErrCodeAnonymityGateViolation ErrorCode = "BMK_003"
	ErrCodePseudonymSecretMissing ErrorCode = "BMK_004"
	ErrCodePseudonymSecretWeak    ErrorCode = "BMK_005"
)

// Scoring Error Codes
const (
	ErrCodeScoringFailed         ErrorCode = "SCORE_001"
	ErrCodeScoringInputInvalid   ErrorCode = "SCORE_002"
	ErrCodeScoringNonFiniteGuard ErrorCode = "SCORE_003"
)

// Recommendation Error Codes
const (
	ErrCodeRecommendationFailed ErrorCode = "REC_001"
)

// Report / Orchestration Error Codes
const (
	ErrCodeReportPeriodInvalid ErrorCode = "RPT_001"
	ErrCodeReportBuildFailed   ErrorCode = "RPT_002"
	ErrCodePhaseLookupFailed   ErrorCode = "RPT_003"
)

// CodeOK is the sentinel code for "no error".
const CodeOK ErrorCode = "OK"

// httpStatusByCode maps error codes to HTTP response status codes.  Codes that
// are purely internal (recoverable timeouts, partial data) intentionally map to
// 500 because they must never reach a caller in the first place.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,

	ErrCodeSignalWindowInvalid:    http.StatusBadRequest,
	ErrCodeAnonymityGateViolation: http.StatusUnprocessableEntity,
	ErrCodeReportPeriodInvalid:    http.StatusBadRequest,
}

// HTTPStatus returns the HTTP status code associated with c, defaulting to 500
// for unknown or internal-only codes.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := httpStatusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
