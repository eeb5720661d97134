// Package api provides the HTTP API for CurbCycle.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/api/handler"
	"github.com/curbcycle/curbcycle/internal/api/middleware"
	"github.com/curbcycle/curbcycle/internal/auth"
	"github.com/curbcycle/curbcycle/internal/pickup"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version       string
	BuildTime     string
	Logger        zerolog.Logger
	Metrics       *middleware.Metrics
	TokenVerifier *auth.TokenVerifier
	PickupService *pickup.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware, order matters.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.PickupService)
	pickupHandler := handler.NewPickupHandler(cfg.PickupService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.TokenVerifier)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	refreshRateLimit := middleware.RateLimitByIP(middleware.RefreshRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, unlimited).
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Read endpoints (public).
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/schedule", pickupHandler.GetSchedule)
			r.Get("/pickups/next", pickupHandler.GetNextPickup)
			r.Get("/pickups/calendar", pickupHandler.GetCalendar)
		})

		// Forced refresh hits the hauler's site: authenticated, tightly
		// limited.
		r.Group(func(r chi.Router) {
			r.Use(refreshRateLimit)
			r.Use(authMiddleware)
			r.Post("/refresh", pickupHandler.ForceRefresh)
		})
	})

	return r
}
