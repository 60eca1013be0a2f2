package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/prometheus"
)

// RequestLogging logs one line per request and feeds the HTTP metrics.
// metrics may be nil.  Tenant identifiers are logged truncated only.
func RequestLogging(log logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Int64("duration_ms", elapsed.Milliseconds()),
			logging.String("request_id", RequestID(c)),
		}
		if tenant, ok := TenantID(c); ok {
			fields = append(fields, logging.String("tenant", tenant.Truncated()))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}

		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed.Seconds())
		}
	}
}
