package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pasarela/internal/handler"
	"pasarela/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TransactionHandler *handler.TransactionHandler
	TilopayHandler     *handler.TilopayHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
	AllowedOrigins     []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Direct saves may be retried by the gateway; cache their responses.
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, "/api/transaccion"))

	// Health check and metrics.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"mensaje": "pong"})
		})

		// Gateway credential routes.
		tilopay := api.Group("/tilopay")
		{
			tilopay.POST("/sdk-token", deps.TilopayHandler.SDKToken)
			tilopay.GET("/config-check", deps.TilopayHandler.ConfigCheck)
		}

		// Transaction routes.
		transacciones := api.Group("/transaccion")
		{
			transacciones.POST("", deps.TransactionHandler.Save)
			transacciones.POST("/preparar-orden", deps.TransactionHandler.PrepareOrder)
			transacciones.GET("/resultado/:token", deps.TransactionHandler.Result)
			transacciones.GET("/callback/:token", deps.TransactionHandler.Result)
			transacciones.GET("/dashboard", deps.TransactionHandler.Dashboard)
		}
	}

	return router
}
