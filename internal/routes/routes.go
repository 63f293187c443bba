package routes

import (
	"store-service/internal/handlers"
	"store-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Stock       *handlers.StockHandler
	Requests    *handlers.RequestHandler
	Orders      *handlers.OrderHandler
	Consumption *handlers.ConsumptionHandler
	Monitoring  *handlers.MonitoringHandler
	Events      *handlers.EventsHandler
}

// SetupRoutes mounts the API under /api/v1 plus the root health endpoints
func SetupRoutes(router *gin.Engine, h Handlers, healthChecker *middleware.HealthChecker) {
	v1 := router.Group("/api/v1")
	{
		stock := v1.Group("/stock")
		{
			stock.GET("", h.Stock.ListStock)
			stock.POST("", h.Stock.AddStockItem)
			stock.GET("/low", h.Stock.ListLowStock)
			stock.GET("/summary", h.Stock.GetSummary)
			stock.GET("/:id", h.Stock.GetStockItem)
			stock.DELETE("/:id", h.Stock.DeleteStockItem)
			stock.POST("/:id/adjust", h.Stock.AdjustStock)
			stock.POST("/:id/reorder", h.Stock.GenerateReorder)
		}

		v1.POST("/reorder/scan", h.Requests.ScanAndReorder)
		v1.POST("/requirements/derive", h.Orders.DeriveRequirements)

		requests := v1.Group("/requests")
		{
			requests.GET("", h.Requests.ListRequests)
			requests.GET("/:id", h.Requests.GetRequest)
			requests.POST("/:id/approve", h.Requests.Approve)
			requests.POST("/:id/reject", h.Requests.Reject)
		}

		v1.GET("/consumption", h.Consumption.ListConsumption)

		salesOrders := v1.Group("/sales-orders")
		{
			salesOrders.POST("", h.Orders.CreateSalesOrder)
			salesOrders.GET("", h.Orders.ListSalesOrders)
			salesOrders.GET("/:id", h.Orders.GetSalesOrder)
		}

		workOrders := v1.Group("/work-orders")
		{
			workOrders.POST("", h.Orders.CreateWorkOrder)
			workOrders.GET("", h.Orders.ListWorkOrders)
			workOrders.GET("/:id", h.Orders.GetWorkOrder)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", h.Monitoring.GetMetrics)
			monitoring.GET("/metrics/summary", h.Monitoring.GetMetricsSummary)
			monitoring.GET("/ws", h.Monitoring.WebSocketMetrics)
		}

		events := v1.Group("/events")
		{
			events.GET("/ws", h.Events.Stream)
			events.GET("/clients", h.Events.Clients)
		}
	}

	router.GET("/health", healthChecker.HealthCheck)
	router.GET("/health/monitoring", h.Monitoring.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Store Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/v1",
				"stock": gin.H{
					"list":    "GET /api/v1/stock",
					"create":  "POST /api/v1/stock",
					"low":     "GET /api/v1/stock/low",
					"adjust":  "POST /api/v1/stock/:id/adjust",
					"reorder": "POST /api/v1/stock/:id/reorder",
				},
				"requests": gin.H{
					"list":    "GET /api/v1/requests",
					"approve": "POST /api/v1/requests/:id/approve",
					"reject":  "POST /api/v1/requests/:id/reject",
				},
				"work_orders": "POST /api/v1/work-orders",
				"consumption": "GET /api/v1/consumption",
				"events":      "GET /api/v1/events/ws",
			},
		})
	})
}
