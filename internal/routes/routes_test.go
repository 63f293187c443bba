package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"store-service/internal/config"
	"store-service/internal/events"
	"store-service/internal/handlers"
	"store-service/internal/middleware"
	"store-service/internal/models"
	"store-service/internal/repository"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	svc    *services.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	cfg := &config.Config{
		Store: config.StoreConfig{Backend: config.BackendMemory, DefaultOperator: "store-operator"},
	}
	hub := events.NewHub(8, logger)
	svc := services.New(repository.NewMemoryStore(), logger, services.Options{Events: hub})
	_, err := svc.Stock.SeedDefaults(context.Background())
	require.NoError(t, err)

	monitoring := services.NewMonitoringService(logger, cfg, services.MonitoringDeps{Services: svc})
	monitoringHandler := handlers.NewMonitoringHandler(monitoring, logger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(monitoringHandler.RecordRequestMiddleware())
	SetupRoutes(router, Handlers{
		Stock:       handlers.NewStockHandler(svc.Stock, svc.Reorder, cfg.Store.DefaultOperator, logger),
		Requests:    handlers.NewRequestHandler(svc.Requests, svc.Reorder, cfg.Store.DefaultOperator, logger),
		Orders:      handlers.NewOrderHandler(svc.WorkOrders, svc.SalesOrders, svc.Requirements, cfg.Store.DefaultOperator, logger),
		Consumption: handlers.NewConsumptionHandler(svc.Consumption, logger),
		Monitoring:  monitoringHandler,
		Events:      handlers.NewEventsHandler(hub, logger),
	}, middleware.NewHealthChecker(cfg.Store.Backend, nil, nil, logger))

	return &testServer{router: router, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) stockID(t *testing.T, code string) string {
	t.Helper()
	items, err := s.svc.Stock.ListStock(context.Background())
	require.NoError(t, err)
	for _, item := range items {
		if item.Code == code {
			return item.ID
		}
	}
	t.Fatalf("stock code %s not seeded", code)
	return ""
}

func TestStockEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/stock", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Items []models.StockItem `json:"items"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 5, list.Total)

	code, env = s.do(t, http.MethodPost, "/api/v1/stock", map[string]interface{}{"material": "Gaskets"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, _ = s.do(t, http.MethodPost, "/api/v1/stock", map[string]interface{}{"code": "STL-001", "material": "Steel Plate"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/stock", map[string]interface{}{
		"code": "GSK-010", "material": "Gaskets", "current_stock": 12, "cost_per_unit": "4.20",
	})
	require.Equal(t, http.StatusCreated, code)
	var created models.StockItem
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 12.0, created.CurrentStock)
	assert.Equal(t, "4.2", created.CostPerUnit.String())

	code, env = s.do(t, http.MethodGet, "/api/v1/stock/low", nil)
	require.Equal(t, http.StatusOK, code)
	var low struct {
		Total    int `json:"total"`
		Critical int `json:"critical"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &low))
	assert.Equal(t, 1, low.Total)
	assert.Equal(t, 1, low.Critical)

	code, _ = s.do(t, http.MethodGet, "/api/v1/stock/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdjustEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := s.stockID(t, "FST-M6")

	code, env := s.do(t, http.MethodPost, "/api/v1/stock/"+id+"/adjust", map[string]interface{}{"quantity": 40, "type": "reduce"})
	require.Equal(t, http.StatusOK, code)
	var res models.AdjustStockResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 25.0, res.PreviousStock)
	assert.Equal(t, 0.0, res.Item.CurrentStock)
	assert.NotEmpty(t, res.Warning)

	code, _ = s.do(t, http.MethodPost, "/api/v1/stock/"+id+"/adjust", map[string]interface{}{"quantity": 0, "type": "add"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/stock/"+id+"/adjust", map[string]interface{}{"quantity": 5, "type": "transfer"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/stock/missing/adjust", map[string]interface{}{"quantity": 5, "type": "add"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWorkOrderApprovalFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/sales-orders", map[string]interface{}{
		"order_number": "SO-2024-117",
		"client_name":  "Acme",
		"line_items":   []map[string]interface{}{{"description": "Steel bracket fabrication", "qty": 200}},
	})
	require.Equal(t, http.StatusCreated, code)
	var so models.SalesOrder
	require.NoError(t, json.Unmarshal(env.Data, &so))

	code, env = s.do(t, http.MethodPost, "/api/v1/work-orders", map[string]interface{}{"sales_order_id": so.ID}, "X-Operator", "planner-7")
	require.Equal(t, http.StatusCreated, code)
	var created models.WorkOrderResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotNil(t, created.Request)
	assert.Equal(t, "planner-7", created.Request.RequestedBy)
	assert.Equal(t, models.WorkOrderPendingMaterial, created.WorkOrder.Status)

	code, _ = s.do(t, http.MethodGet, "/api/v1/requests?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/requests?status=pending&type=shortfall", nil)
	require.Equal(t, http.StatusOK, code)
	var pending struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Equal(t, 1, pending.Total)

	approvePath := "/api/v1/requests/" + created.Request.ID + "/approve"
	code, env = s.do(t, http.MethodPost, approvePath, nil, "X-Operator", "storekeeper-2")
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodPost, approvePath, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, env.Error)

	code, env = s.do(t, http.MethodGet, "/api/v1/consumption?work_order_id="+created.WorkOrder.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var consumption struct {
		Records     []models.ConsumptionRecord `json:"records"`
		TotalIssued float64                    `json:"total_issued"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &consumption))
	require.Len(t, consumption.Records, 1)
	assert.Equal(t, "storekeeper-2", consumption.Records[0].IssuedBy)
	assert.Equal(t, 50.0, consumption.TotalIssued)

	code, env = s.do(t, http.MethodGet, "/api/v1/work-orders/"+created.WorkOrder.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var wo models.WorkOrder
	require.NoError(t, json.Unmarshal(env.Data, &wo))
	assert.Equal(t, models.WorkOrderReadyForProduction, wo.Status)

	code, _ = s.do(t, http.MethodGet, "/api/v1/consumption?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRejectEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := s.stockID(t, "FST-M6")

	code, env := s.do(t, http.MethodPost, "/api/v1/stock/"+id+"/reorder", nil)
	require.Equal(t, http.StatusCreated, code)
	var req models.MaterialRequest
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, 475.0, req.Single.RequiredQty)
	assert.Equal(t, "store-operator", req.RequestedBy)

	code, _ = s.do(t, http.MethodPost, "/api/v1/requests/"+req.ID+"/reject", map[string]interface{}{"remarks": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/requests/"+req.ID+"/reject", map[string]interface{}{"remarks": "budget freeze"})
	require.Equal(t, http.StatusOK, code)
	var rejected models.MaterialRequest
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.Equal(t, models.StatusRejected, rejected.Status)

	code, env = s.do(t, http.MethodGet, "/api/v1/stock/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	var item models.StockItem
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, 25.0, item.CurrentStock)
}

func TestDeriveEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/requirements/derive", map[string]interface{}{
		"line_items": []map[string]interface{}{{"description": "Custom Assembly, Red finish", "qty": 3}},
	})
	require.Equal(t, http.StatusOK, code)
	var result struct {
		Requirements       []models.MaterialRequirement `json:"requirements"`
		RequiredOperations []string                     `json:"required_operations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Requirements, 1)
	assert.Equal(t, "Raw Material", result.Requirements[0].MaterialType)
	assert.Equal(t, []string{"Production", "Quality Check", "Packaging"}, result.RequiredOperations)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status   string                       `json:"status"`
		Backend  string                       `json:"backend"`
		Services map[string]map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, config.BackendMemory, health.Backend)
	assert.Equal(t, "disabled", health.Services["postgresql"]["status"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	s.do(t, http.MethodGet, "/api/v1/stock", nil)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics models.MonitoringResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.Requests.TotalRequests)
	assert.Equal(t, 5, metrics.Ledger.StockItems)
	assert.Equal(t, "memory", metrics.Ledger.Backend)
	assert.Equal(t, "disabled", metrics.Database.Status)
}
