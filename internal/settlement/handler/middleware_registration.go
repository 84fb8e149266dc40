package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	EnableLogging bool
	EnableTracing bool
	EnableMetrics bool
	Metrics       *Metrics
}

// DefaultMiddlewareConfig returns default middleware configuration
func DefaultMiddlewareConfig(metrics *Metrics) MiddlewareConfig {
	return MiddlewareConfig{
		EnableLogging: true,
		EnableTracing: true,
		EnableMetrics: metrics != nil,
		Metrics:       metrics,
	}
}

// RegisterMiddlewares registers all middlewares to the router
func RegisterMiddlewares(router *mux.Router, config MiddlewareConfig) {
	// Logging middleware (first in chain)
	if config.EnableLogging {
		router.Use(LoggingMiddleware)
	}

	// Tracing middleware (second in chain)
	if config.EnableTracing {
		router.Use(func(next http.Handler) http.Handler {
			return TracingMiddleware("http-request", next)
		})
	}

	if config.EnableMetrics {
		router.Use(config.Metrics.Middleware)
	}
}
