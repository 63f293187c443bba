package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"store-service/internal/cache"
	"store-service/internal/config"
	"store-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxTrackedRequests   = 100
)

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
	GetLedgerStats(ctx context.Context) models.LedgerMetrics
	GetCacheStats() models.CacheMetrics
	GetDatabaseStats(ctx context.Context) models.DatabaseMetrics
	GetSystemStats() models.SystemMetrics
	GetRedisStats(ctx context.Context) models.RedisMetrics
}

// MonitoringDeps are the optional backends the monitor reports on. Nil members
// are reported as disabled.
type MonitoringDeps struct {
	Services    *Services
	RedisClient *redis.Client
	DB          *sql.DB
	StockCache  *cache.StockCache
}

type monitoringService struct {
	logger *zap.Logger
	config *config.Config
	deps   MonitoringDeps

	requestsMutex sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int64

	startTime time.Time
}

func NewMonitoringService(logger *zap.Logger, config *config.Config, deps MonitoringDeps) MonitoringService {
	return &monitoringService{
		logger:    logger,
		config:    config,
		deps:      deps,
		requests:  make(map[string]*models.EndpointMetrics),
		startTime: time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.requestsMutex.Lock()
	defer s.requestsMutex.Unlock()

	endpointKey := fmt.Sprintf("%s %s", data.Method, data.Endpoint)

	metrics, exists := s.requests[endpointKey]
	if !exists {
		metrics = &models.EndpointMetrics{}
		s.requests[endpointKey] = metrics
	}

	metrics.Count++
	durationMs := data.Duration.Milliseconds()
	metrics.TotalTime += durationMs
	metrics.AvgTime = float64(metrics.TotalTime) / float64(metrics.Count)

	s.totalRequests++

	if data.Duration > slowRequestThreshold {
		s.slowRequests = append(s.slowRequests, models.SlowRequest{
			Endpoint:  endpointKey,
			Duration:  durationMs,
			Timestamp: data.Timestamp,
		})
		if len(s.slowRequests) > maxTrackedRequests {
			s.slowRequests = s.slowRequests[1:]
		}
	}

	if data.Error != nil || data.StatusCode >= 400 {
		s.errors = append(s.errors, models.RequestError{
			Endpoint:   endpointKey,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
		if len(s.errors) > maxTrackedRequests {
			s.errors = s.errors[1:]
		}
	}
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.requestsMutex.RLock()
	requestMetrics := s.calculateRequestMetrics()
	performanceMetrics := s.calculatePerformanceMetrics()
	s.requestsMutex.RUnlock()

	return &models.MonitoringResponse{
		Requests:    requestMetrics,
		Performance: performanceMetrics,
		Ledger:      s.GetLedgerStats(ctx),
		Cache:       s.GetCacheStats(),
		Database:    s.GetDatabaseStats(ctx),
		System:      s.GetSystemStats(),
		Redis:       s.GetRedisStats(ctx),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     "1.0",
		GeneratedBy: "store-service",
	}
}

func (s *monitoringService) calculateRequestMetrics() models.RequestMetrics {
	type endpoint struct {
		key     string
		metrics *models.EndpointMetrics
	}
	endpoints := make([]endpoint, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for key, metrics := range s.requests {
		endpoints = append(endpoints, endpoint{key, metrics})
		byEndpoint[key] = *metrics
	}

	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].metrics.Count != endpoints[j].metrics.Count {
			return endpoints[i].metrics.Count > endpoints[j].metrics.Count
		}
		return endpoints[i].key < endpoints[j].key
	})

	var topEndpoints []models.TopEndpoint
	for i, e := range endpoints {
		if i >= 10 {
			break
		}
		topEndpoints = append(topEndpoints, models.TopEndpoint{
			Endpoint:  e.key,
			Count:     e.metrics.Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", e.metrics.AvgTime),
		})
	}

	return models.RequestMetrics{
		Total:             len(s.requests),
		ByEndpoint:        byEndpoint,
		SlowRequests:      append([]models.SlowRequest(nil), s.slowRequests...),
		Errors:            append([]models.RequestError(nil), s.errors...),
		TotalRequests:     int(s.totalRequests),
		SlowRequestsCount: len(s.slowRequests),
		ErrorsCount:       len(s.errors),
		TopEndpoints:      topEndpoints,
	}
}

func (s *monitoringService) calculatePerformanceMetrics() models.PerformanceMetrics {
	var totalTime, maxTime int64
	var minTime int64 = math.MaxInt64
	var count int

	for _, metrics := range s.requests {
		totalTime += metrics.TotalTime
		if metrics.TotalTime > maxTime {
			maxTime = metrics.TotalTime
		}
		if metrics.TotalTime < minTime {
			minTime = metrics.TotalTime
		}
		count += metrics.Count
	}

	var avgTime float64
	if count > 0 {
		avgTime = float64(totalTime) / float64(count)
	}
	if minTime == math.MaxInt64 {
		minTime = 0
	}

	return models.PerformanceMetrics{
		AvgResponseTime:   avgTime,
		MaxResponseTime:   maxTime,
		MinResponseTime:   minTime,
		AvgResponseTimeMs: fmt.Sprintf("%.2fms", avgTime),
		MaxResponseTimeMs: fmt.Sprintf("%dms", maxTime),
		MinResponseTimeMs: fmt.Sprintf("%dms", minTime),
	}
}

// GetLedgerStats counts stock, requests by status and consumption records
func (s *monitoringService) GetLedgerStats(ctx context.Context) models.LedgerMetrics {
	metrics := models.LedgerMetrics{
		Backend: s.config.Store.Backend,
		Status:  "online",
	}
	if s.deps.Services == nil {
		metrics.Status = "disabled"
		return metrics
	}

	summary, err := s.deps.Services.Stock.Summary(ctx)
	if err != nil {
		s.logger.Warn("Ledger stats unavailable", zap.String("part", "stock"), zap.Error(err))
		metrics.Status = "degraded"
	} else {
		metrics.StockItems = summary.TotalItems
		metrics.LowStock = summary.LowStock
		metrics.CriticalStock = summary.CriticalStock
		metrics.StockValue = summary.TotalValue.StringFixed(2)
	}

	requests, err := s.deps.Services.Requests.List(ctx, models.RequestFilter{})
	if err != nil {
		s.logger.Warn("Ledger stats unavailable", zap.String("part", "requests"), zap.Error(err))
		metrics.Status = "degraded"
	}
	for _, req := range requests {
		switch req.Status {
		case models.StatusPending:
			metrics.PendingRequests++
		case models.StatusApproved:
			metrics.ApprovedRequests++
		case models.StatusRejected:
			metrics.RejectedRequests++
		}
	}

	records, err := s.deps.Services.Consumption.List(ctx, models.ConsumptionFilter{})
	if err != nil {
		s.logger.Warn("Ledger stats unavailable", zap.String("part", "consumption"), zap.Error(err))
		metrics.Status = "degraded"
	}
	metrics.ConsumptionRecords = len(records)

	return metrics
}

func (s *monitoringService) GetCacheStats() models.CacheMetrics {
	if s.deps.StockCache == nil {
		return models.CacheMetrics{Status: "disabled", HitRatePercentage: "0.00%"}
	}

	cacheStats := s.deps.StockCache.GetStats()

	var hitRate float64
	if cacheStats.TotalRequests > 0 {
		hitRate = float64(cacheStats.Hits) / float64(cacheStats.TotalRequests)
	}

	return models.CacheMetrics{
		Connected:         cacheStats.L2Enabled,
		TotalKeys:         cacheStats.TotalKeys,
		HitRate:           hitRate,
		Status:            "online",
		HitRatePercentage: fmt.Sprintf("%.2f%%", hitRate*100),
		TotalHits:         cacheStats.Hits,
		TotalMisses:       cacheStats.Misses,
		TotalRequests:     cacheStats.TotalRequests,
	}
}

func (s *monitoringService) GetDatabaseStats(ctx context.Context) models.DatabaseMetrics {
	if s.deps.DB == nil {
		return models.DatabaseMetrics{Status: "disabled"}
	}

	stats := s.deps.DB.Stats()
	status := "online"
	if err := s.deps.DB.PingContext(ctx); err != nil {
		status = "offline"
	}

	return models.DatabaseMetrics{
		ActiveConnections: stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		Status:            status,
	}
}

func (s *monitoringService) GetSystemStats() models.SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(s.startTime).Seconds()

	environment := "production"
	if s.config.Server.GinMode == "debug" {
		environment = "development"
	}

	return models.SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024),
		Uptime:      uptime,
		Memory: models.MemoryMetrics{
			HeapUsed:  fmt.Sprintf("%.2f MB", float64(m.HeapAlloc)/1024/1024),
			HeapTotal: fmt.Sprintf("%.2f MB", float64(m.HeapSys)/1024/1024),
			External:  fmt.Sprintf("%.2f MB", float64(m.OtherSys)/1024/1024),
			RSS:       fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Goroutines:  runtime.NumGoroutine(),
		UptimeHours: fmt.Sprintf("%.2fh", uptime/3600),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		Environment: environment,
	}
}

func (s *monitoringService) GetRedisStats(ctx context.Context) models.RedisMetrics {
	if s.deps.RedisClient == nil {
		return models.RedisMetrics{Status: "disabled"}
	}

	connected := s.deps.RedisClient.Ping(ctx).Err() == nil

	var keys int
	var memory, memoryMB string
	if connected {
		if n, err := s.deps.RedisClient.DBSize(ctx).Result(); err == nil {
			keys = int(n)
		}
		if info, err := s.deps.RedisClient.Info(ctx, "memory").Result(); err == nil {
			memory, memoryMB = usedMemory(info)
		}
	}

	status := "offline"
	if connected {
		status = "online"
	}

	return models.RedisMetrics{
		Connected: connected,
		Keys:      keys,
		Memory:    memory,
		Status:    status,
		MemoryMB:  memoryMB,
	}
}

// usedMemory extracts used_memory from an INFO memory reply
func usedMemory(info string) (string, string) {
	for _, line := range strings.Split(info, "\n") {
		if !strings.HasPrefix(line, "used_memory:") {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, "used_memory:"))
		bytes, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return raw, ""
		}
		return raw, fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
	}
	return "", ""
}
