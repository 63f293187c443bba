package handlers

import (
	"fmt"
	"net/http"

	"store-service/internal/apperror"
	"store-service/internal/models"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestHandler serves the material request workflow and the reorder scan
type RequestHandler struct {
	base
	requestService services.RequestService
	reorderService services.ReorderService
}

func NewRequestHandler(requestService services.RequestService, reorderService services.ReorderService, defaultOperator string, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		base:           newBase(defaultOperator, logger),
		requestService: requestService,
		reorderService: reorderService,
	}
}

// requestFilter reads status, type, work_order_id and stock_item_id from the query
func requestFilter(c *gin.Context) (models.RequestFilter, error) {
	var filter models.RequestFilter

	if v, ok := c.GetQuery("status"); ok {
		status := models.RequestStatus(v)
		switch status {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
		default:
			return filter, apperror.Validation("status", fmt.Sprintf("unknown status %q", v))
		}
		filter.Status = &status
	}
	if v, ok := c.GetQuery("type"); ok {
		t := models.RequestType(v)
		if t != models.RequestTypeShortfall && t != models.RequestTypeReorder {
			return filter, apperror.Validation("type", fmt.Sprintf("unknown type %q", v))
		}
		filter.Type = &t
	}
	if v, ok := c.GetQuery("work_order_id"); ok {
		filter.WorkOrderID = &v
	}
	if v, ok := c.GetQuery("stock_item_id"); ok {
		filter.StockItemID = &v
	}
	return filter, nil
}

func (h *RequestHandler) ListRequests(c *gin.Context) {
	filter, err := requestFilter(c)
	if err != nil {
		h.fail(c, "Invalid request filter", err)
		return
	}

	reqs, err := h.requestService.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "Error listing material requests", err)
		return
	}

	h.ok(c, http.StatusOK, "Material requests retrieved", gin.H{
		"requests": reqs,
		"total":    len(reqs),
	})
}

func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error getting material request", err)
		return
	}
	h.ok(c, http.StatusOK, "Material request retrieved", req)
}

func (h *RequestHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	operator := h.operator(c)

	result, err := h.requestService.Approve(c.Request.Context(), id, operator)
	if err != nil {
		h.fail(c, "Error approving material request", err)
		return
	}

	h.logSuccess("Material request approved",
		zap.String("request_id", id),
		zap.String("operator", operator),
		zap.Int("warnings", len(result.Warnings)))
	h.ok(c, http.StatusOK, "Material request approved", result)
}

func (h *RequestHandler) Reject(c *gin.Context) {
	id := c.Param("id")

	var body models.RejectRequestRequest
	if !h.bind(c, &body) {
		return
	}

	req, err := h.requestService.Reject(c.Request.Context(), id, body.Remarks, h.operator(c))
	if err != nil {
		h.fail(c, "Error rejecting material request", err)
		return
	}
	h.ok(c, http.StatusOK, "Material request rejected", req)
}

func (h *RequestHandler) ScanAndReorder(c *gin.Context) {
	result, err := h.reorderService.ScanAndReorder(c.Request.Context(), h.operator(c))
	if err != nil {
		h.fail(c, "Error scanning for reorders", err)
		return
	}

	h.logInfo("Reorder scan requested",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	h.ok(c, http.StatusOK, "Reorder scan completed", result)
}
