package services

import (
	"context"
	"fmt"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"go.uber.org/zap"
)

// ReorderService is the Reorder Generator
type ReorderService interface {
	// GenerateReorder requests maxStock - currentStock of the item
	GenerateReorder(ctx context.Context, itemID, operator string) (*models.MaterialRequest, error)
	// ScanAndReorder generates a reorder for every low item without a pending one
	ScanAndReorder(ctx context.Context, operator string) (*models.ReorderScanResult, error)
	// RunScanner calls ScanAndReorder every interval until ctx is cancelled
	RunScanner(ctx context.Context, interval time.Duration, operator string)
}

type reorderService struct {
	*ledger
}

func (s *reorderService) GenerateReorder(ctx context.Context, itemID, operator string) (*models.MaterialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.Stock.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}
	if item == nil {
		return nil, apperror.NotFound("stock item", itemID)
	}

	return s.generate(ctx, item, operator)
}

// generate builds and stores a reorder for item; the caller holds mu
func (s *reorderService) generate(ctx context.Context, item *models.StockItem, operator string) (*models.MaterialRequest, error) {
	reorderQty := item.MaxStock - item.CurrentStock
	if reorderQty <= 0 {
		return nil, apperror.Validation("reorder_qty",
			fmt.Sprintf("%s holds %g, already at or above max stock %g", item.Code, item.CurrentStock, item.MaxStock))
	}

	priority := models.PriorityMedium
	if item.CurrentStock < item.MinStock {
		priority = models.PriorityHigh
	}

	req := &models.MaterialRequest{
		ID:    s.newID(),
		Type:  models.RequestTypeReorder,
		Shape: models.ShapeSingle,
		Single: &models.SingleMaterial{
			Material:     item.Material,
			RequiredQty:  reorderQty,
			CurrentStock: item.CurrentStock,
			Unit:         item.Unit,
		},
		StockItemID: item.ID,
		Priority:    priority,
		Status:      models.StatusPending,
		RequestedAt: s.now(),
		RequestedBy: operator,
	}
	if err := s.createRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("🔁 Reorder generated",
		zap.String("operation", "generate_reorder"),
		zap.String("stock_id", item.ID),
		zap.String("code", item.Code),
		zap.Float64("reorder_qty", reorderQty),
		zap.String("priority", string(priority)))
	return req, nil
}

func (s *reorderService) ScanAndReorder(ctx context.Context, operator string) (*models.ReorderScanResult, error) {
	logger := s.logger.With(zap.String("operation", "scan_and_reorder"))

	s.mu.Lock()
	defer s.mu.Unlock()

	low, err := s.store.Stock.ListLow(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}

	pending := models.StatusPending
	reorder := models.RequestTypeReorder
	open, err := s.store.Requests.List(ctx, models.RequestFilter{Status: &pending, Type: &reorder})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reorders: %w", err)
	}
	covered := make(map[string]bool, len(open))
	for _, req := range open {
		covered[req.StockItemID] = true
	}

	result := &models.ReorderScanResult{
		Created:   []*models.MaterialRequest{},
		Timestamp: s.now(),
	}
	for _, item := range low {
		if covered[item.ID] {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: reorder already pending", item.Code))
			continue
		}
		req, err := s.generate(ctx, item, operator)
		if apperror.IsValidation(err) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", item.Code, err))
			continue
		}
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, req)
	}

	logger.Info("Reorder scan completed",
		zap.Int("low_items", len(low)),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *reorderService) RunScanner(ctx context.Context, interval time.Duration, operator string) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Reorder scanner started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reorder scanner stopped")
			return
		case <-ticker.C:
			if _, err := s.ScanAndReorder(ctx, operator); err != nil {
				s.logger.Error("❌ Reorder scan failed", zap.Error(err))
			}
		}
	}
}
