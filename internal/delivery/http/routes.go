package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmaprocure/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.POST("/import", handler.ImportCatalog)
			catalog.GET("/search", handler.SearchCatalog)
			catalog.GET("/:id/offers", handler.CompareOffers)
		}

		offers := v1.Group("/offers")
		{
			offers.POST("/import", handler.ImportOffers)
			offers.GET("/unmatched", handler.UnmatchedOffers)
		}

		v1.POST("/match", handler.MatchPreview)
		v1.POST("/aliases", handler.LinkAlias)
	}

	return router
}
