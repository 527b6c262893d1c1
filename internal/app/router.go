package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"freight/internal/handler"
	"freight/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler    *handler.TripHandler
	PayrollHandler *handler.PayrollHandler
	ExpenseHandler *handler.ExpenseHandler
	StageHandler   *handler.StageHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.POST("/:id/trips", deps.TripHandler.CreateTrip)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/history", deps.TripHandler.GetStatusHistory)
			trips.POST("/:id/status", deps.TripHandler.AdvanceStatus)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.PUT("/:id/bill-of-lading", deps.TripHandler.UpdateBillOfLading)
			trips.POST("/:id/reset-notification", deps.TripHandler.ResetNotificationSchedule)
		}

		// Expense routes.
		expenses := v1.Group("/expenses")
		{
			expenses.POST("/reset-route-defaults", deps.ExpenseHandler.ResetToRouteDefaults)
		}

		// Organization routes.
		orgs := v1.Group("/orgs")
		{
			orgs.GET("/:id/stages", deps.StageHandler.ListStages)
		}

		// Payroll routes.
		payroll := v1.Group("/payroll")
		{
			payroll.GET("/settlements", deps.PayrollHandler.GetDriverSettlements)
		}
	}

	return router
}
