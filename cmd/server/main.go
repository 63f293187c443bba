package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"store-service/internal/cache"
	"store-service/internal/config"
	"store-service/internal/database"
	"store-service/internal/events"
	"store-service/internal/handlers"
	"store-service/internal/middleware"
	"store-service/internal/repository"
	"store-service/internal/routes"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	eventBufferSize      = 64
	cacheCleanupInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store backend", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.close()

	var stockCache *cache.StockCache
	if !cfg.Cache.Disabled {
		var l2 *redis.Client
		if backend.redis != nil {
			l2 = backend.redis.Client
		}
		stockCache = cache.NewStockCache(l2, cfg.Redis.KeyPrefix, cfg.Cache.L1Size, cfg.Cache.TTL, logger)
		go stockCache.Run(ctx, cacheCleanupInterval)
	}

	hub := events.NewHub(eventBufferSize, logger)
	svc := services.New(backend.store, logger, services.Options{
		Cache:  stockCache,
		Events: hub,
	})

	if cfg.Store.SeedDefaults {
		seeded, err := svc.Stock.SeedDefaults(ctx)
		if err != nil {
			logger.Fatal("Failed to seed default stock", zap.Error(err))
		}
		if seeded > 0 {
			logger.Info("Stock ledger initialised", zap.Int("items", seeded))
		}
	}

	go svc.Reorder.RunScanner(ctx, cfg.Store.ReorderScanInterval, cfg.Store.DefaultOperator)

	deps := services.MonitoringDeps{Services: svc, StockCache: stockCache}
	if backend.postgres != nil {
		deps.DB = backend.postgres.DB
	}
	if backend.redis != nil {
		deps.RedisClient = backend.redis.Client
	}
	monitoringHandler := handlers.NewMonitoringHandler(services.NewMonitoringService(logger, cfg, deps), logger)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(monitoringHandler.RecordRequestMiddleware())

	operator := cfg.Store.DefaultOperator
	routes.SetupRoutes(router, routes.Handlers{
		Stock:       handlers.NewStockHandler(svc.Stock, svc.Reorder, operator, logger),
		Requests:    handlers.NewRequestHandler(svc.Requests, svc.Reorder, operator, logger),
		Orders:      handlers.NewOrderHandler(svc.WorkOrders, svc.SalesOrders, svc.Requirements, operator, logger),
		Consumption: handlers.NewConsumptionHandler(svc.Consumption, logger),
		Monitoring:  monitoringHandler,
		Events:      handlers.NewEventsHandler(hub, logger),
	}, middleware.NewHealthChecker(cfg.Store.Backend, backend.postgres, backend.redis, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		middleware.ServerInfo(cfg, logger)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Server.GinMode == gin.DebugMode {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// storeBackend is the opened persistence layer plus the connections behind it
type storeBackend struct {
	store    *repository.Store
	postgres *database.PostgresDB
	redis    *database.RedisDB
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storeBackend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgresDB(cfg.Database.URL, cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, logger)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, pg.DB, logger); err != nil {
			pg.Close()
			return nil, err
		}
		store, err := repository.NewPostgresStore(pg.DB, logger)
		if err != nil {
			pg.Close()
			return nil, err
		}
		return &storeBackend{store: store, postgres: pg}, nil

	case config.BackendRedis:
		rdb, err := database.NewRedisDB(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return &storeBackend{store: repository.NewRedisStore(rdb.Client, rdb.KeyPrefix), redis: rdb}, nil
	}

	logger.Warn("Using in-memory store; data is lost on restart")
	return &storeBackend{store: repository.NewMemoryStore()}, nil
}

func (b *storeBackend) close() {
	if b.postgres != nil {
		b.postgres.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}
