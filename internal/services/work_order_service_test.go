package services

import (
	"context"
	"errors"
	"testing"

	"store-service/internal/apperror"
	"store-service/internal/models"
	"store-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkOrder_StockCovered(t *testing.T) {
	svc, _ := newSeededServices(t)

	result, err := svc.WorkOrders.Create(context.Background(), &models.CreateWorkOrderRequest{
		ClientName: "Acme",
		LineItems:  []models.LineItem{{Description: "M6 fastener set", Qty: 2}},
	}, "planner")
	require.NoError(t, err)

	assert.Nil(t, result.Request)
	wo := result.WorkOrder
	assert.Equal(t, models.WorkOrderReadyForProduction, wo.Status)
	assert.False(t, wo.HasMaterialRequest)
	assert.Empty(t, wo.MaterialRequestID)
	require.Len(t, wo.MaterialRequirements, 1)
	assert.True(t, wo.MaterialRequirements[0].StockAvailable)
	assert.Equal(t, DefaultOperations, wo.RequiredOperations)
}

func TestCreateWorkOrder_ShortfallLifecycle(t *testing.T) {
	svc, store := newSeededServices(t)
	ctx := context.Background()

	so, err := svc.SalesOrders.Create(ctx, &models.CreateSalesOrderRequest{
		OrderNumber: "SO-2024-117",
		ClientName:  "Acme",
		LineItems: []models.LineItem{
			{Description: "Steel bracket fabrication", Qty: 200},
			{Description: "Aluminum panel", Qty: 10},
		},
	})
	require.NoError(t, err)

	result, err := svc.WorkOrders.Create(ctx, &models.CreateWorkOrderRequest{SalesOrderID: so.ID}, "planner")
	require.NoError(t, err)

	wo := result.WorkOrder
	assert.Equal(t, "Acme", wo.ClientName)
	assert.Equal(t, so.ID, wo.SalesOrderID)
	assert.Equal(t, models.WorkOrderPendingMaterial, wo.Status)
	assert.True(t, wo.HasMaterialRequest)
	assert.Equal(t, []string{
		"Cutting", "Welding", "Grinding", "Painting", "Packaging", "Production", "Quality Check",
	}, wo.RequiredOperations)

	req := result.Request
	require.NotNil(t, req)
	assert.Equal(t, req.ID, wo.MaterialRequestID)
	assert.Equal(t, models.StatusPending, wo.MaterialRequestStatus)
	assert.Equal(t, models.ShapeMulti, req.Shape)
	assert.Equal(t, models.PriorityMedium, req.Priority)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "Steel Plate", req.Items[0].Material)
	assert.Equal(t, 200.0, req.Items[0].RequiredQty)
	assert.Equal(t, 150.0, req.Items[0].AvailableQty)

	_, err = svc.Requests.Approve(ctx, req.ID, "storekeeper")
	require.NoError(t, err)

	assert.Equal(t, 100.0, stockByCode(t, store, "STL-001").CurrentStock)
	updated, err := svc.WorkOrders.Get(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkOrderReadyForProduction, updated.Status)
	assert.Equal(t, models.StatusApproved, updated.MaterialRequestStatus)

	records, err := svc.Consumption.ListByWorkOrder(ctx, wo.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, so.ID, records[0].SalesOrderID)
	assert.Equal(t, 50.0, records[0].TotalIssued())
}

func TestCreateWorkOrder_RejectedRequest(t *testing.T) {
	svc, store := newSeededServices(t)
	ctx := context.Background()

	result, err := svc.WorkOrders.Create(ctx, &models.CreateWorkOrderRequest{
		ClientName: "Globex",
		LineItems:  []models.LineItem{{Description: "hex bolts", Qty: 100}},
	}, "planner")
	require.NoError(t, err)
	require.NotNil(t, result.Request)

	_, err = svc.Requests.Reject(ctx, result.Request.ID, "order on hold", "storekeeper")
	require.NoError(t, err)

	updated, err := svc.WorkOrders.Get(ctx, result.WorkOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkOrderMaterialRejected, updated.Status)
	assert.Equal(t, models.StatusRejected, updated.MaterialRequestStatus)
	assert.Equal(t, 25.0, stockByCode(t, store, "FST-M6").CurrentStock)
}

func TestCreateWorkOrder_Errors(t *testing.T) {
	svc, _ := newSeededServices(t)
	ctx := context.Background()

	_, err := svc.WorkOrders.Create(ctx, &models.CreateWorkOrderRequest{SalesOrderID: "missing"}, "planner")
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.WorkOrders.Create(ctx, &models.CreateWorkOrderRequest{ClientName: "Acme"}, "planner")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.WorkOrders.Get(ctx, "missing")
	assert.True(t, apperror.IsNotFound(err))

	orders, err := svc.WorkOrders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSalesOrders(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.SalesOrders.Create(ctx, &models.CreateSalesOrderRequest{OrderNumber: " ", ClientName: "Acme",
		LineItems: []models.LineItem{{Description: "bolts", Qty: 1}}})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.SalesOrders.Create(ctx, &models.CreateSalesOrderRequest{OrderNumber: "SO-1", ClientName: "Acme"})
	assert.True(t, apperror.IsValidation(err))

	so, err := svc.SalesOrders.Create(ctx, &models.CreateSalesOrderRequest{OrderNumber: "SO-1", ClientName: "Acme",
		LineItems: []models.LineItem{{Description: "bolts", Qty: 1}}})
	require.NoError(t, err)
	assert.Equal(t, testNow, so.CreatedAt)

	got, err := svc.SalesOrders.Get(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-1", got.OrderNumber)

	_, err = svc.SalesOrders.Get(ctx, "missing")
	assert.True(t, apperror.IsNotFound(err))

	all, err := svc.SalesOrders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

type failingRequests struct {
	repository.RequestRepository
}

func (failingRequests) Create(ctx context.Context, req *models.MaterialRequest) error {
	return errors.New("connection reset")
}

func TestCreateWorkOrder_RequestFailureStoresNoWorkOrder(t *testing.T) {
	svc, store := newSeededServices(t)
	ctx := context.Background()
	store.Requests = failingRequests{RequestRepository: store.Requests}

	_, err := svc.WorkOrders.Create(ctx, &models.CreateWorkOrderRequest{
		ClientName: "Acme",
		LineItems:  []models.LineItem{{Description: "Steel bracket fabrication", Qty: 200}},
	}, "planner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	orders, err := svc.WorkOrders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
