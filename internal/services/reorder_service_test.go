package services

import (
	"context"
	"testing"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReorder_TopsUpToMax(t *testing.T) {
	svc, store := newSeededServices(t)
	ctx := context.Background()
	fasteners := stockByCode(t, store, "FST-M6")

	req, err := svc.Reorder.GenerateReorder(ctx, fasteners.ID, "scheduler")
	require.NoError(t, err)

	assert.Equal(t, models.RequestTypeReorder, req.Type)
	assert.Equal(t, models.ShapeSingle, req.Shape)
	assert.Equal(t, models.PriorityHigh, req.Priority)
	assert.Equal(t, fasteners.ID, req.StockItemID)
	require.NotNil(t, req.Single)
	assert.Equal(t, 475.0, req.Single.RequiredQty)
	assert.Equal(t, 25.0, req.Single.CurrentStock)
	assert.Equal(t, "Fasteners", req.Single.Material)

	// generating a reorder never moves stock
	assert.Equal(t, 25.0, stockByCode(t, store, "FST-M6").CurrentStock)
}

func TestGenerateReorder_Priority(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	atMin := addItem(t, svc, "WSH-01", "Washers", 10, 10, 100)

	req, err := svc.Reorder.GenerateReorder(ctx, atMin.ID, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, req.Priority)
	assert.Equal(t, 90.0, req.Single.RequiredQty)
}

func TestGenerateReorder_Errors(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	full := addItem(t, svc, "WSH-01", "Washers", 100, 10, 100)

	_, err := svc.Reorder.GenerateReorder(ctx, full.ID, "scheduler")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Reorder.GenerateReorder(ctx, "missing", "scheduler")
	assert.True(t, apperror.IsNotFound(err))
}

func TestApproveReorder_ReplenishesStock(t *testing.T) {
	svc, store := newSeededServices(t)
	ctx := context.Background()
	fasteners := stockByCode(t, store, "FST-M6")

	req, err := svc.Reorder.GenerateReorder(ctx, fasteners.ID, "scheduler")
	require.NoError(t, err)

	result, err := svc.Requests.Approve(ctx, req.ID, "purchasing")
	require.NoError(t, err)
	assert.Nil(t, result.Consumption)

	after := stockByCode(t, store, "FST-M6")
	assert.Equal(t, 500.0, after.CurrentStock)
	assert.Equal(t, models.TransactionAdd, after.LastTransactionType)
	assert.Equal(t, 475.0, after.LastTransactionQty)

	records, err := svc.Consumption.List(ctx, models.ConsumptionFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScanAndReorder(t *testing.T) {
	svc, _ := newSeededServices(t)
	ctx := context.Background()
	addItem(t, svc, "ZZZ-FULL", "Shims", 5, 5, 5)

	first, err := svc.Reorder.ScanAndReorder(ctx, "scheduler")
	require.NoError(t, err)
	require.Len(t, first.Created, 1)
	assert.Equal(t, 475.0, first.Created[0].Single.RequiredQty)
	require.Len(t, first.Skipped, 1)
	assert.Contains(t, first.Skipped[0], "ZZZ-FULL")

	second, err := svc.Reorder.ScanAndReorder(ctx, "scheduler")
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Skipped, 2)

	reorder := models.RequestTypeReorder
	listed, err := svc.Requests.List(ctx, models.RequestFilter{Type: &reorder})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRunScanner(t *testing.T) {
	svc, _ := newSeededServices(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Reorder.RunScanner(ctx, 5*time.Millisecond, "scheduler")
		close(done)
	}()

	reorder := models.RequestTypeReorder
	require.Eventually(t, func() bool {
		listed, err := svc.Requests.List(context.Background(), models.RequestFilter{Type: &reorder})
		return err == nil && len(listed) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}

func TestRunScanner_DisabledInterval(t *testing.T) {
	svc, _ := newSeededServices(t)

	// returns immediately instead of blocking on the context
	svc.Reorder.RunScanner(context.Background(), 0, "scheduler")
}
