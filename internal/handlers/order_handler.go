package handlers

import (
	"net/http"
	"time"

	"store-service/internal/models"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler serves sales orders, work orders and dry-run derivations
type OrderHandler struct {
	base
	workOrderService  services.WorkOrderService
	salesOrderService services.SalesOrderService
	deriver           services.RequirementDeriver
}

func NewOrderHandler(
	workOrderService services.WorkOrderService,
	salesOrderService services.SalesOrderService,
	deriver services.RequirementDeriver,
	defaultOperator string,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		base:              newBase(defaultOperator, logger),
		workOrderService:  workOrderService,
		salesOrderService: salesOrderService,
		deriver:           deriver,
	}
}

// DeriveRequirements computes requirements for line items without persisting anything
func (h *OrderHandler) DeriveRequirements(c *gin.Context) {
	start := time.Now()

	var req models.DeriveRequirementsRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.deriver.Derive(c.Request.Context(), req.LineItems)
	if err != nil {
		h.fail(c, "Error deriving requirements", err)
		return
	}

	h.logDebug("Requirements derived",
		zap.Int("line_items", len(req.LineItems)),
		zap.Duration("latency", time.Since(start)))
	h.ok(c, http.StatusOK, "Requirements derived", gin.H{
		"requirements":         result.Requirements,
		"required_operations":  result.RequiredOperations,
		"has_material_request": result.HasMaterialRequest,
		"shortfalls":           len(result.Shortfalls()),
		"latency_ms":           time.Since(start).Milliseconds(),
	})
}

func (h *OrderHandler) CreateSalesOrder(c *gin.Context) {
	var req models.CreateSalesOrderRequest
	if !h.bind(c, &req) {
		return
	}

	so, err := h.salesOrderService.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "Error creating sales order", err)
		return
	}
	h.ok(c, http.StatusCreated, "Sales order created", so)
}

func (h *OrderHandler) ListSalesOrders(c *gin.Context) {
	orders, err := h.salesOrderService.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Error listing sales orders", err)
		return
	}
	h.ok(c, http.StatusOK, "Sales orders retrieved", gin.H{
		"sales_orders": orders,
		"total":        len(orders),
	})
}

func (h *OrderHandler) GetSalesOrder(c *gin.Context) {
	so, err := h.salesOrderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error getting sales order", err)
		return
	}
	h.ok(c, http.StatusOK, "Sales order retrieved", so)
}

func (h *OrderHandler) CreateWorkOrder(c *gin.Context) {
	start := time.Now()

	var req models.CreateWorkOrderRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.workOrderService.Create(c.Request.Context(), &req, h.operator(c))
	if err != nil {
		h.fail(c, "Error creating work order", err)
		return
	}

	h.logSuccess("Work order created",
		zap.String("work_order_id", result.WorkOrder.ID),
		zap.String("status", result.WorkOrder.Status),
		zap.Bool("material_request", result.Request != nil),
		zap.Duration("latency", time.Since(start)))
	h.ok(c, http.StatusCreated, "Work order created", result)
}

func (h *OrderHandler) ListWorkOrders(c *gin.Context) {
	orders, err := h.workOrderService.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Error listing work orders", err)
		return
	}
	h.ok(c, http.StatusOK, "Work orders retrieved", gin.H{
		"work_orders": orders,
		"total":       len(orders),
	})
}

func (h *OrderHandler) GetWorkOrder(c *gin.Context) {
	wo, err := h.workOrderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error getting work order", err)
		return
	}
	h.ok(c, http.StatusOK, "Work order retrieved", wo)
}
