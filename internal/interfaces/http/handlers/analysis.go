// Package handlers holds the gin request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/internal/interfaces/http/middleware"
	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

// AnalysisHandler serves the channel-fit analysis endpoint.
type AnalysisHandler struct {
	service analysis.Service
	logger  logging.Logger
}

// NewAnalysisHandler builds the handler.
func NewAnalysisHandler(service analysis.Service, log logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, logger: log.Named("http")}
}

// analysisRequest is the request body.  Every field is optional; zero values
// fall back to the configured defaults.
type analysisRequest struct {
	LookbackDays  int    `json:"lookback_days"`
	ProductFilter string `json:"product_filter"`
	MaxProducts   int    `json:"max_products"`
}

// ChannelFit handles POST /api/v1/analysis/channel-fit.
func (h *AnalysisHandler) ChannelFit(c *gin.Context) {
	tenant, ok := middleware.TenantID(c)
	if !ok {
		writeError(c, errors.New(errors.ErrCodeValidation, "tenant ID is required"))
		return
	}

	var body analysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
			return
		}
	}

	report, err := h.service.Analyze(c.Request.Context(), analysis.Request{
		TenantID:      tenant,
		LookbackDays:  body.LookbackDays,
		ProductFilter: body.ProductFilter,
		MaxProducts:   body.MaxProducts,
	})
	if err != nil {
		h.logger.Warn("analysis request failed",
			logging.String("tenant", tenant.Truncated()),
			logging.String("request_id", middleware.RequestID(c)),
			logging.Err(err),
		)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse[*market.Report](middleware.RequestID(c), report))
}

// writeError maps an application error onto the response envelope.  Internal
// messages never leak: anything mapping to a 5xx is masked.
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, common.NewErrorResponse(middleware.RequestID(c), string(code), message))
}
