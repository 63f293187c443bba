package handlers

import (
	"net/http"
	"time"

	"store-service/internal/models"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockHandler serves the stock ledger and per-item reorders
type StockHandler struct {
	base
	stockService   services.StockService
	reorderService services.ReorderService
}

func NewStockHandler(stockService services.StockService, reorderService services.ReorderService, defaultOperator string, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		base:           newBase(defaultOperator, logger),
		stockService:   stockService,
		reorderService: reorderService,
	}
}

func (h *StockHandler) ListStock(c *gin.Context) {
	items, err := h.stockService.ListStock(c.Request.Context())
	if err != nil {
		h.fail(c, "Error listing stock", err)
		return
	}

	h.logDebug("Stock listed", zap.Int("items", len(items)))
	h.ok(c, http.StatusOK, "Stock retrieved", gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *StockHandler) AddStockItem(c *gin.Context) {
	start := time.Now()

	var req models.CreateStockItemRequest
	if !h.bind(c, &req) {
		return
	}

	item, err := h.stockService.AddStockItem(c.Request.Context(), &req, h.operator(c))
	if err != nil {
		h.fail(c, "Error creating stock item", err)
		return
	}

	h.logSuccess("Stock item created",
		zap.String("stock_id", item.ID),
		zap.String("code", item.Code),
		zap.Duration("latency", time.Since(start)))
	h.ok(c, http.StatusCreated, "Stock item created", item)
}

func (h *StockHandler) ListLowStock(c *gin.Context) {
	items, err := h.stockService.ListLowStock(c.Request.Context())
	if err != nil {
		h.fail(c, "Error listing low stock", err)
		return
	}

	critical := 0
	for _, item := range items {
		if item.IsCritical {
			critical++
		}
	}

	h.ok(c, http.StatusOK, "Low stock items retrieved", gin.H{
		"items":    items,
		"total":    len(items),
		"critical": critical,
	})
}

func (h *StockHandler) GetSummary(c *gin.Context) {
	summary, err := h.stockService.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "Error building stock summary", err)
		return
	}
	h.ok(c, http.StatusOK, "Stock summary", summary)
}

func (h *StockHandler) GetStockItem(c *gin.Context) {
	item, err := h.stockService.GetStockItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error getting stock item", err)
		return
	}
	h.ok(c, http.StatusOK, "Stock item retrieved", item)
}

func (h *StockHandler) DeleteStockItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.stockService.DeleteStockItem(c.Request.Context(), id, h.operator(c)); err != nil {
		h.fail(c, "Error deleting stock item", err)
		return
	}
	h.ok(c, http.StatusOK, "Stock item deleted", gin.H{"id": id})
}

func (h *StockHandler) AdjustStock(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")

	var req models.AdjustStockRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.stockService.AdjustStock(c.Request.Context(), id, req.Quantity, req.Type, h.operator(c))
	if err != nil {
		h.fail(c, "Error adjusting stock", err)
		return
	}

	h.logSuccess("Stock adjusted",
		zap.String("stock_id", id),
		zap.String("type", string(req.Type)),
		zap.Float64("previous_stock", res.PreviousStock),
		zap.Float64("current_stock", res.Item.CurrentStock),
		zap.Duration("latency", time.Since(start)))
	h.ok(c, http.StatusOK, "Stock adjusted", res)
}

func (h *StockHandler) GenerateReorder(c *gin.Context) {
	req, err := h.reorderService.GenerateReorder(c.Request.Context(), c.Param("id"), h.operator(c))
	if err != nil {
		h.fail(c, "Error generating reorder", err)
		return
	}
	h.ok(c, http.StatusCreated, "Reorder request created", req)
}
