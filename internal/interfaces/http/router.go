// Package http assembles the gin router and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/prometheus"
	"github.com/channeliq/channeliq/internal/interfaces/http/handlers"
	"github.com/channeliq/channeliq/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router needs.  Metrics and Collector may
// be nil; Health may be nil when no probes are wired.
type RouterDeps struct {
	Service   analysis.Service
	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector
	Health    *handlers.HealthHandler
}

// NewRouter builds the gin engine with the full middleware chain.  Health and
// metrics endpoints sit outside the tenant requirement.
func NewRouter(cfg config.ServerConfig, deps RouterDeps) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogging(deps.Logger, deps.Metrics))

	if deps.Health != nil {
		router.GET("/healthz", deps.Health.Live)
		router.GET("/readyz", deps.Health.Ready)
	}
	if deps.Collector != nil {
		router.GET("/metrics", gin.WrapH(deps.Collector.Handler()))
	}

	analysisHandler := handlers.NewAnalysisHandler(deps.Service, deps.Logger)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Tenant(cfg.TenantHeader, deps.Logger))
	{
		v1.POST("/analysis/channel-fit", analysisHandler.ChannelFit)
	}

	return router
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}
