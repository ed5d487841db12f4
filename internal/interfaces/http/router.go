// Package http assembles the route tree and the server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CiteGuard/internal/interfaces/http/handlers"
	"github.com/turtacn/CiteGuard/internal/interfaces/http/middleware"
)

// RouterConfig aggregates handler and middleware dependencies.
type RouterConfig struct {
	CitationHandler *handlers.CitationHandler
	HealthHandler   *handlers.HealthHandler

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	Mode           string // gin mode: "debug" | "release" | "test"
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if h := cfg.CitationHandler; h != nil {
		api.POST("/citations/analyze", h.Analyze)
		api.POST("/citations/verify", h.Verify)
		api.POST("/documents", h.SubmitDocument)
		api.GET("/verifications/recent", h.RecentVerifications)
	}

	return r
}
