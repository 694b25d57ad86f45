package main

import (
	"log/slog"

	"chanlytics/internal/httpapi"
	"chanlytics/internal/metrics"
	"chanlytics/pkg/logger"

	"github.com/gin-gonic/gin"
)

// newRouter builds the engine with the shared middleware stack.
// Keep this file free of business logic. Handlers delegate to internal modules.
func newRouter(log *slog.Logger, m *metrics.Metrics, h httpapi.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())

	httpapi.Register(r, h, m)
	return r
}
