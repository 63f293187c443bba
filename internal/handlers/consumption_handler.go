package handlers

import (
	"net/http"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/models"
	"store-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConsumptionHandler struct {
	base
	consumptionService services.ConsumptionService
}

func NewConsumptionHandler(consumptionService services.ConsumptionService, logger *zap.Logger) *ConsumptionHandler {
	return &ConsumptionHandler{
		base:               newBase("", logger),
		consumptionService: consumptionService,
	}
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperror.Validation(key, "must be an RFC3339 timestamp")
	}
	return &t, nil
}

func (h *ConsumptionHandler) ListConsumption(c *gin.Context) {
	var filter models.ConsumptionFilter
	if v, ok := c.GetQuery("request_id"); ok {
		filter.RequestID = &v
	}
	if v, ok := c.GetQuery("work_order_id"); ok {
		filter.WorkOrderID = &v
	}
	if v, ok := c.GetQuery("material"); ok {
		filter.Material = &v
	}

	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		h.fail(c, "Invalid consumption filter", err)
		return
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		h.fail(c, "Invalid consumption filter", err)
		return
	}

	records, err := h.consumptionService.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "Error listing consumption records", err)
		return
	}

	var issued float64
	for _, r := range records {
		issued += r.TotalIssued()
	}

	h.ok(c, http.StatusOK, "Consumption records retrieved", gin.H{
		"records":      records,
		"total":        len(records),
		"total_issued": issued,
	})
}
