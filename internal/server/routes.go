// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/config"
	"github.com/fleveque/deck-image-service/internal/handler"
	"github.com/fleveque/deck-image-service/internal/middleware"
	"github.com/fleveque/deck-image-service/internal/storage"
)

// Deps bundles the dependencies the routes need. Each handler gets exactly
// what it uses — dependencies are passed explicitly.
type Deps struct {
	Searcher handler.DeckSearcher
	RunRepo  storage.RunRepository
	CallRepo storage.ProviderCallRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(deps.Searcher, logger)
	adminHandler := handler.NewAdminHandler(deps.RunRepo, deps.CallRepo, cfg.Providers.Order, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	// CORS middleware applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Authenticated API endpoints
	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/searches", searchHandler.Search)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/runs", adminHandler.Runs)
	}
}
