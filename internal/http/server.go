// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook/internal/http/handlers"
	"carebook/internal/http/middleware"
	"carebook/internal/infra"
	"carebook/internal/logger"
	"carebook/internal/modules/account"
)

type ServerDeps struct {
	Bookings  *handlers.BookingHandler
	Views     *handlers.ViewHandler
	Analytics *handlers.AnalyticsHandler
	Catalog   *handlers.CatalogHandler
	// Verifier nil disables authentication; every caller is treated as an admin.
	Verifier    infra.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Logger      logger.ILogger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Logger), middleware.Logging(s.deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	if s.deps.Verifier != nil {
		api.Use(middleware.Auth(s.deps.Verifier))
	} else {
		api.Use(middleware.Anonymous(string(account.RoleAdmin)))
	}
	if s.deps.RateLimiter != nil {
		api.Use(middleware.RateLimit(s.deps.RateLimiter))
	}

	admin := middleware.RequireRole(string(account.RoleAdmin))
	staff := middleware.RequireRole(string(account.RoleProvider), string(account.RoleDriver), string(account.RoleAdmin))
	family := middleware.RequireRole(string(account.RoleFamily), string(account.RoleAdmin))
	anyRole := middleware.RequireRole(
		string(account.RoleFamily), string(account.RoleProvider),
		string(account.RoleDriver), string(account.RoleAdmin),
	)

	b := s.deps.Bookings
	api.POST("/bookings", family, b.Create)
	api.GET("/bookings", anyRole, b.List)
	api.GET("/bookings/:id", anyRole, b.Get)
	api.PATCH("/bookings/:id", admin, b.Patch)
	api.POST("/bookings/:id/assign", admin, b.Assign)
	api.POST("/bookings/:id/decline", admin, b.Decline)
	api.POST("/bookings/:id/complete", staff, b.Complete)

	v := s.deps.Views
	api.GET("/views/unassigned-subscriptions", admin, v.UnassignedSubscriptions)
	api.GET("/views/unassigned-orders", admin, v.UnassignedOrders)
	api.GET("/views/transportation", admin, v.Transportation)
	api.GET("/views/renewals", family, v.Renewals)
	api.GET("/views/payments", family, v.Payments)

	api.GET("/analytics", admin, s.deps.Analytics.Report)
	api.GET("/services", anyRole, s.deps.Catalog.List)
	return r
}
