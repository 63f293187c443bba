package services

import (
	"context"
	"testing"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/cache"
	"store-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddStockItem_AppliesDefaults(t *testing.T) {
	svc, _ := newTestServices(t, Options{})

	item, err := svc.Stock.AddStockItem(context.Background(), &models.CreateStockItemRequest{
		Code:     " GSK-010 ",
		Material: "Gaskets",
	}, "tester")

	require.NoError(t, err)
	assert.Equal(t, "id-001", item.ID)
	assert.Equal(t, "GSK-010", item.Code)
	assert.Equal(t, models.DefaultCurrentStock, item.CurrentStock)
	assert.Equal(t, models.DefaultMinStock, item.MinStock)
	assert.Equal(t, models.DefaultMaxStock, item.MaxStock)
	assert.Equal(t, int64(1), item.Revision)
	assert.Equal(t, testNow, item.LastUpdated)
}

func TestAddStockItem_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.CreateStockItemRequest
		field string
	}{
		{"missing code", models.CreateStockItemRequest{Material: "Gaskets"}, "code"},
		{"blank material", models.CreateStockItemRequest{Code: "GSK-1", Material: "  "}, "material"},
		{"negative stock", models.CreateStockItemRequest{Code: "GSK-1", Material: "Gaskets", CurrentStock: float(-1)}, "current_stock"},
		{"min above max", models.CreateStockItemRequest{Code: "GSK-1", Material: "Gaskets", MinStock: float(80), MaxStock: float(40)}, "min_stock"},
		{"negative cost", models.CreateStockItemRequest{Code: "GSK-1", Material: "Gaskets", CostPerUnit: decimalPtr("-0.01")}, "cost_per_unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestServices(t, Options{})
			_, err := svc.Stock.AddStockItem(context.Background(), &tt.req, "tester")

			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
			var verr *apperror.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAddStockItem_DuplicateCode(t *testing.T) {
	svc, _ := newSeededServices(t)

	_, err := svc.Stock.AddStockItem(context.Background(), &models.CreateStockItemRequest{
		Code:     "STL-001",
		Material: "Steel Plate",
	}, "tester")

	assert.True(t, apperror.IsConflict(err))
}

func TestAdjustStock_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		qty     float64
		want    float64
		clamped bool
	}{
		{"within balance", 40, 15, 40, false},
		{"whole balance", 40, 40, 40, false},
		{"from empty", 0, 7.5, 0, false},
		{"reduce past zero clamps", 40, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestServices(t, Options{})
			ctx := context.Background()
			item := addItem(t, svc, "BRK-01", "Brackets", tt.start, 0, 500)

			if !tt.clamped {
				_, err := svc.Stock.AdjustStock(ctx, item.ID, tt.qty, models.TransactionAdd, "tester")
				require.NoError(t, err)
			}
			res, err := svc.Stock.AdjustStock(ctx, item.ID, tt.qty, models.TransactionReduce, "tester")
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.Item.CurrentStock)
			assert.Equal(t, tt.clamped, res.Warning != "")
			assert.Equal(t, models.TransactionReduce, res.Item.LastTransactionType)
			assert.Equal(t, tt.qty, res.Item.LastTransactionQty)
			require.NotNil(t, res.Item.LastTransactionDate)
			assert.Equal(t, testNow, *res.Item.LastTransactionDate)
		})
	}
}

func TestAdjustStock_RejectsBadInput(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	item := addItem(t, svc, "BRK-01", "Brackets", 10, 0, 100)

	_, err := svc.Stock.AdjustStock(ctx, item.ID, 0, models.TransactionAdd, "tester")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Stock.AdjustStock(ctx, item.ID, -3, models.TransactionReduce, "tester")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Stock.AdjustStock(ctx, item.ID, 3, models.TransactionType("transfer"), "tester")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Stock.AdjustStock(ctx, "missing", 3, models.TransactionAdd, "tester")
	assert.True(t, apperror.IsNotFound(err))

	got, err := svc.Stock.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.CurrentStock)
}

func TestListLowStock(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	addItem(t, svc, "A-BOUNDARY", "Washers", 10, 10, 100)
	addItem(t, svc, "B-ABOVE", "Rivets", 11, 10, 100)
	addItem(t, svc, "C-CRITICAL", "Springs", 4, 10, 100)

	low, err := svc.Stock.ListLowStock(ctx)
	require.NoError(t, err)

	require.Len(t, low, 2)
	assert.Equal(t, "C-CRITICAL", low[0].Code)
	assert.True(t, low[0].IsCritical)
	assert.Equal(t, 6.0, low[0].Deficit)
	assert.Equal(t, "A-BOUNDARY", low[1].Code)
	assert.False(t, low[1].IsCritical)
	assert.Equal(t, 0.0, low[1].Deficit)
}

func TestSeedDefaults_OnlyWhenEmpty(t *testing.T) {
	svc, _ := newSeededServices(t)

	n, err := svc.Stock.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := svc.Stock.ListStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, len(models.DefaultStockItems()))
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Code, items[i].Code)
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newSeededServices(t)

	summary, err := svc.Stock.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalItems)
	// only FST-M6 (25 of min 50) is low, and 25 <= 25 makes it critical too
	assert.Equal(t, 1, summary.LowStock)
	assert.Equal(t, 1, summary.CriticalStock)
	assert.Equal(t, 3, summary.ByCategory["Raw Material"])
	assert.Equal(t, 2, summary.ByCategory["Hardware"])
	// 150*65.50 + 80*420 + 200*110 + 25*2.75 + 40*185
	assert.Equal(t, "72893.75", summary.TotalValue.StringFixed(2))
}

func TestDeleteStockItem(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	item := addItem(t, svc, "BRK-01", "Brackets", 10, 0, 100)

	require.NoError(t, svc.Stock.DeleteStockItem(ctx, item.ID, "tester"))
	assert.True(t, apperror.IsNotFound(svc.Stock.DeleteStockItem(ctx, item.ID, "tester")))

	_, err := svc.Stock.GetStockItem(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetStockItem_CacheInvalidatedOnAdjust(t *testing.T) {
	stockCache := cache.NewStockCache(nil, "test", 16, time.Minute, zap.NewNop())
	svc, _ := newTestServices(t, Options{Cache: stockCache})
	ctx := context.Background()
	item := addItem(t, svc, "BRK-01", "Brackets", 10, 0, 100)

	_, err := svc.Stock.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	_, err = svc.Stock.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stockCache.GetStats().Hits)

	_, err = svc.Stock.AdjustStock(ctx, item.ID, 5, models.TransactionAdd, "tester")
	require.NoError(t, err)

	got, err := svc.Stock.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.CurrentStock)
}

func TestFindByMaterial(t *testing.T) {
	svc, _ := newSeededServices(t)

	item, err := svc.Stock.FindByMaterial(context.Background(), "Fasteners")
	require.NoError(t, err)
	assert.Equal(t, "FST-M6", item.Code)

	_, err = svc.Stock.FindByMaterial(context.Background(), "Unobtainium")
	assert.True(t, apperror.IsNotFound(err))
}
