package middleware

import (
	"context"
	"net/http"
	"time"

	"store-service/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker pings whichever backends the service was started with.
// A nil connection is reported as disabled.
type HealthChecker struct {
	backend    string
	postgresDB *database.PostgresDB
	redisDB    *database.RedisDB
	logger     *zap.Logger
}

func NewHealthChecker(backend string, postgresDB *database.PostgresDB, redisDB *database.RedisDB, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		backend:    backend,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		logger:     logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	components := gin.H{}

	if h.postgresDB == nil {
		components["postgresql"] = gin.H{"status": "disabled"}
	} else {
		postgresStatus := "healthy"
		if err := h.postgresDB.Ping(ctx); err != nil {
			postgresStatus = "unhealthy"
			healthy = false
			h.logger.Error("PostgreSQL health check failed", zap.Error(err))
		}
		stats := h.postgresDB.GetStats()
		components["postgresql"] = gin.H{
			"status": postgresStatus,
			"stats": gin.H{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
			},
		}
	}

	if h.redisDB == nil {
		components["redis"] = gin.H{"status": "disabled"}
	} else {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			healthy = false
			h.logger.Error("Redis health check failed", zap.Error(err))
		}
		components["redis"] = gin.H{"status": redisStatus}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"backend":   h.backend,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  components,
	})
}
