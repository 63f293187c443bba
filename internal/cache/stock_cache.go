package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"store-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheStats cache statistics
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
	L2Enabled     bool
}

type l1Entry struct {
	item      *models.StockItem
	expiresAt time.Time
}

// StockCache is a two-level read cache for stock items keyed by id.
// L1 is process memory; L2 is redis and is skipped when no client is given.
type StockCache struct {
	l1Cache map[string]l1Entry
	l1Mutex sync.RWMutex

	redisClient *redis.Client
	keyPrefix   string

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64
}

func NewStockCache(redisClient *redis.Client, keyPrefix string, maxL1Size int, ttl time.Duration, logger *zap.Logger) *StockCache {
	return &StockCache{
		l1Cache:     make(map[string]l1Entry),
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
	}
}

// Run drops expired L1 entries until ctx is cancelled
func (sc *StockCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := sc.cleanupL1(now)
			sc.logger.Debug("L1 cache cleanup", zap.Int("removed", removed))
		}
	}
}

func (sc *StockCache) GetStats() CacheStats {
	sc.statsMutex.RLock()
	defer sc.statsMutex.RUnlock()

	sc.l1Mutex.RLock()
	totalKeys := len(sc.l1Cache)
	sc.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          sc.hits,
		Misses:        sc.misses,
		TotalRequests: sc.hits + sc.misses,
		TotalKeys:     totalKeys,
		L2Enabled:     sc.redisClient != nil,
	}
}

// Get returns a cached copy of the item, or nil on a miss
func (sc *StockCache) Get(ctx context.Context, id string) *models.StockItem {
	start := time.Now()

	if item := sc.getFromL1(id, start); item != nil {
		sc.recordHit()
		sc.logger.Debug("L1 cache hit",
			zap.String("stock_id", id),
			zap.Duration("latency", time.Since(start)))
		return item
	}

	if item, err := sc.getFromL2(ctx, id); err == nil && item != nil {
		sc.setToL1(id, item)
		sc.recordHit()
		sc.logger.Debug("L2 cache hit",
			zap.String("stock_id", id),
			zap.Duration("latency", time.Since(start)))
		return item.Clone()
	}

	sc.recordMiss()
	return nil
}

// Set stores item in both levels
func (sc *StockCache) Set(ctx context.Context, item *models.StockItem) {
	sc.setToL1(item.ID, item)
	if err := sc.setToL2(ctx, item); err != nil {
		sc.logger.Warn("Failed to write L2 cache", zap.String("stock_id", item.ID), zap.Error(err))
	}
}

// Invalidate drops id from both levels
func (sc *StockCache) Invalidate(ctx context.Context, id string) {
	sc.l1Mutex.Lock()
	delete(sc.l1Cache, id)
	sc.l1Mutex.Unlock()

	if sc.redisClient == nil {
		return
	}
	if err := sc.redisClient.Del(ctx, sc.key(id)).Err(); err != nil {
		sc.logger.Warn("Failed to invalidate L2 cache", zap.String("stock_id", id), zap.Error(err))
	}
}

func (sc *StockCache) recordHit() {
	sc.statsMutex.Lock()
	sc.hits++
	sc.statsMutex.Unlock()
}

func (sc *StockCache) recordMiss() {
	sc.statsMutex.Lock()
	sc.misses++
	sc.statsMutex.Unlock()
}

func (sc *StockCache) key(id string) string {
	return fmt.Sprintf("%s:cache:stock:%s", sc.keyPrefix, id)
}

func (sc *StockCache) getFromL1(id string, now time.Time) *models.StockItem {
	sc.l1Mutex.RLock()
	defer sc.l1Mutex.RUnlock()

	entry, ok := sc.l1Cache[id]
	if !ok || now.After(entry.expiresAt) {
		return nil
	}
	return entry.item.Clone()
}

func (sc *StockCache) setToL1(id string, item *models.StockItem) {
	sc.l1Mutex.Lock()
	defer sc.l1Mutex.Unlock()

	if _, exists := sc.l1Cache[id]; !exists && len(sc.l1Cache) >= sc.maxL1Size {
		sc.evictOldest()
	}

	sc.l1Cache[id] = l1Entry{item: item.Clone(), expiresAt: time.Now().Add(sc.ttl)}
}

// evictOldest drops the entry closest to expiry. Caller holds l1Mutex.
func (sc *StockCache) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for id, entry := range sc.l1Cache {
		if oldest == "" || entry.expiresAt.Before(oldestAt) {
			oldest, oldestAt = id, entry.expiresAt
		}
	}
	delete(sc.l1Cache, oldest)
}

func (sc *StockCache) cleanupL1(now time.Time) int {
	sc.l1Mutex.Lock()
	defer sc.l1Mutex.Unlock()

	removed := 0
	for id, entry := range sc.l1Cache {
		if now.After(entry.expiresAt) {
			delete(sc.l1Cache, id)
			removed++
		}
	}
	return removed
}

func (sc *StockCache) getFromL2(ctx context.Context, id string) (*models.StockItem, error) {
	if sc.redisClient == nil {
		return nil, nil
	}

	data, err := sc.redisClient.Get(ctx, sc.key(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var item models.StockItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

func (sc *StockCache) setToL2(ctx context.Context, item *models.StockItem) error {
	if sc.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return sc.redisClient.Set(ctx, sc.key(item.ID), data, sc.ttl).Err()
}
