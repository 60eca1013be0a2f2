// Package middleware holds the gin middleware chain: tenant resolution,
// request identity, and request logging.
package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
)

// tenantIDPattern enforces alphanumeric, underscore, hyphen, length 1-64.
var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Tenant extracts the tenant identifier from the configured header and
// injects it into the request context.  Requests without a valid tenant are
// rejected before any handler runs.
func Tenant(headerName string, log logging.Logger) gin.HandlerFunc {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(headerName))
		if tenantID == "" {
			tenantID = strings.TrimSpace(c.Query("tenant_id"))
		}
		if tenantID == "" {
			abortWithError(c, http.StatusBadRequest, errors.ErrCodeValidation,
				fmt.Sprintf("tenant ID is required: provide the %s header", headerName))
			return
		}
		if !tenantIDPattern.MatchString(tenantID) {
			log.Warn("invalid tenant ID format",
				logging.String("tenant", common.TenantID(tenantID).Truncated()),
				logging.String("path", c.Request.URL.Path),
			)
			abortWithError(c, http.StatusBadRequest, errors.ErrCodeValidation,
				"invalid tenant ID format: must match [a-zA-Z0-9_-]{1,64}")
			return
		}

		c.Set(string(common.ContextKeyTenantID), tenantID)
		c.Header(headerName, tenantID)
		c.Next()
	}
}

// TenantID returns the tenant resolved by the Tenant middleware.
func TenantID(c *gin.Context) (common.TenantID, bool) {
	v, ok := c.Get(string(common.ContextKeyTenantID))
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return common.TenantID(id), ok && id != ""
}

func abortWithError(c *gin.Context, status int, code errors.ErrorCode, message string) {
	requestID := RequestID(c)
	c.AbortWithStatusJSON(status, common.NewErrorResponse(requestID, string(code), message))
}
