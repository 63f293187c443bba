package handlers

import (
	"context"
	"net/http"
	"time"

	"store-service/internal/models"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const metricsPushInterval = 10 * time.Second

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	h.logger.Debug("Metrics collected",
		zap.String("handler", "get_metrics"),
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Int("total_endpoints", metrics.Requests.Total),
		zap.String("avg_response_time", metrics.Performance.AvgResponseTimeMs))

	c.JSON(http.StatusOK, metrics)
}

// upgrader is shared by every websocket endpoint. Origins are not checked.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMetrics pushes a metrics snapshot every metricsPushInterval
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("WebSocket connection established")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := h.monitoringService.GetMetrics(context.Background())
			if err := conn.WriteJSON(metrics); err != nil {
				logger.Error("Error sending metrics over WebSocket", zap.Error(err))
				return
			}
			logger.Debug("Metrics pushed",
				zap.Int("total_requests", metrics.Requests.TotalRequests),
				zap.String("timestamp", metrics.Timestamp))

		case <-c.Request.Context().Done():
			logger.Info("WebSocket connection closed by context")
			return
		}
	}
}

// RecordRequestMiddleware feeds every handled request into the monitor
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if h.shouldSkipMonitoring(path) {
			return
		}

		var lastErr error
		if len(c.Errors) > 0 {
			lastErr = c.Errors.Last()
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
			Error:      lastErr,
		})
	}
}

var excludedFromMonitoring = map[string]bool{
	"/api/v1/monitoring/metrics":         true,
	"/api/v1/monitoring/metrics/summary": true,
	"/api/v1/monitoring/ws":              true,
	"/api/v1/events/ws":                  true,
	"/health/monitoring":                 true,
	"/health":                            true,
	"/":                                  true,
}

func (h *MonitoringHandler) shouldSkipMonitoring(path string) bool {
	return excludedFromMonitoring[path]
}

func (h *MonitoringHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	components := gin.H{
		"ledger":   "online",
		"database": "online",
		"redis":    "online",
		"cache":    "online",
	}
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0",
		"services":  components,
	}

	ledger := h.monitoringService.GetLedgerStats(ctx)
	if ledger.Status != "online" {
		components["ledger"] = ledger.Status
		health["status"] = "degraded"
	}

	redisMetrics := h.monitoringService.GetRedisStats(ctx)
	if redisMetrics.Status != "disabled" && !redisMetrics.Connected {
		components["redis"] = "offline"
		health["status"] = "degraded"
	} else if redisMetrics.Status == "disabled" {
		components["redis"] = "disabled"
	}

	dbMetrics := h.monitoringService.GetDatabaseStats(ctx)
	switch dbMetrics.Status {
	case "online":
	case "disabled":
		components["database"] = "disabled"
	default:
		components["database"] = "offline"
		health["status"] = "degraded"
	}

	components["cache"] = h.monitoringService.GetCacheStats().Status

	c.JSON(http.StatusOK, health)
}

func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	summary := gin.H{
		"requests": gin.H{
			"total":         metrics.Requests.TotalRequests,
			"endpoints":     metrics.Requests.Total,
			"errors":        metrics.Requests.ErrorsCount,
			"slow_requests": metrics.Requests.SlowRequestsCount,
		},
		"performance": gin.H{
			"avg_response_time": metrics.Performance.AvgResponseTimeMs,
			"max_response_time": metrics.Performance.MaxResponseTimeMs,
			"min_response_time": metrics.Performance.MinResponseTimeMs,
		},
		"ledger": gin.H{
			"backend":          metrics.Ledger.Backend,
			"stock_items":      metrics.Ledger.StockItems,
			"low_stock":        metrics.Ledger.LowStock,
			"critical_stock":   metrics.Ledger.CriticalStock,
			"stock_value":      metrics.Ledger.StockValue,
			"pending_requests": metrics.Ledger.PendingRequests,
			"consumption":      metrics.Ledger.ConsumptionRecords,
		},
		"cache": gin.H{
			"hit_rate":   metrics.Cache.HitRatePercentage,
			"total_keys": metrics.Cache.TotalKeys,
			"status":     metrics.Cache.Status,
		},
		"database": gin.H{
			"active_connections": metrics.Database.ActiveConnections,
			"in_use":             metrics.Database.InUse,
			"status":             metrics.Database.Status,
		},
		"system": gin.H{
			"memory_usage": metrics.System.MemoryUsage,
			"uptime":       metrics.System.UptimeHours,
			"goroutines":   metrics.System.Goroutines,
			"platform":     metrics.System.Platform,
		},
		"redis": gin.H{
			"connected": metrics.Redis.Connected,
			"keys":      metrics.Redis.Keys,
			"memory":    metrics.Redis.MemoryMB,
			"status":    metrics.Redis.Status,
		},
		"timestamp": metrics.Timestamp,
	}

	c.JSON(http.StatusOK, summary)
}
