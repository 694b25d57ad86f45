package httpapi

import (
	"chanlytics/internal/auth"
	"chanlytics/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Register wires every route onto r. Business logic stays in the services.
func Register(r gin.IRouter, h Handlers, m *metrics.Metrics) {
	// public
	r.GET("/healthz", h.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", auth.RequireSession(h.Auth), h.Logout)
	}

	// protected
	p := v1.Group("")
	p.Use(auth.RequireSession(h.Auth))
	{
		p.GET("/me", h.Me)
		p.PUT("/me/company", h.UpdateCompany)
		p.GET("/me/activity", h.Activity)

		p.GET("/dashboard", h.GetDashboard)
		p.GET("/billing", h.GetBilling)

		calls := p.Group("/calls")
		calls.GET("", h.ListCalls)
		calls.PATCH("/view", h.UpdateView)
		calls.GET("/export", h.Export)
		calls.GET("/:id", h.CallDetail)
		calls.GET("/:id/recording", h.Recording)
	}
}
