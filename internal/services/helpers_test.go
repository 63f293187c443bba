package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"store-service/internal/models"
	"store-service/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC)

type eventRecorder struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (r *eventRecorder) Publish(event models.LedgerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestServices(t *testing.T, opts Options) (*Services, *repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	return New(store, zap.NewNop(), opts), store
}

// newSeededServices returns services over the default stock seed
func newSeededServices(t *testing.T) (*Services, *repository.Store) {
	t.Helper()
	svc, store := newTestServices(t, Options{})
	n, err := svc.Stock.SeedDefaults(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(models.DefaultStockItems()), n)
	return svc, store
}

func stockByCode(t *testing.T, store *repository.Store, code string) *models.StockItem {
	t.Helper()
	item, err := store.Stock.GetByCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, item, "stock item %s", code)
	return item
}

func float(v float64) *float64 {
	return &v
}

func addItem(t *testing.T, svc *Services, code, material string, current, min, max float64) *models.StockItem {
	t.Helper()
	item, err := svc.Stock.AddStockItem(context.Background(), &models.CreateStockItemRequest{
		Code:         code,
		Material:     material,
		Unit:         "pcs",
		CurrentStock: float(current),
		MinStock:     float(min),
		MaxStock:     float(max),
	}, "tester")
	require.NoError(t, err)
	return item
}
