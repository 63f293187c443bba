package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService is the Stock Ledger: the only writer of quantity on hand
type StockService interface {
	AddStockItem(ctx context.Context, req *models.CreateStockItemRequest, operator string) (*models.StockItem, error)
	AdjustStock(ctx context.Context, id string, qty float64, kind models.TransactionType, operator string) (*models.AdjustStockResponse, error)
	DeleteStockItem(ctx context.Context, id, operator string) error

	ListStock(ctx context.Context) ([]*models.StockItem, error)
	ListLowStock(ctx context.Context) ([]*models.LowStockItem, error)
	GetStockItem(ctx context.Context, id string) (*models.StockItem, error)
	FindByMaterial(ctx context.Context, material string) (*models.StockItem, error)
	Summary(ctx context.Context) (*models.StockSummary, error)

	// SeedDefaults stores the default items when the collection is empty and reports how many were added
	SeedDefaults(ctx context.Context) (int, error)
}

type stockService struct {
	*ledger
}

func (s *stockService) AddStockItem(ctx context.Context, req *models.CreateStockItemRequest, operator string) (*models.StockItem, error) {
	logger := s.logger.With(
		zap.String("operation", "add_stock_item"),
		zap.String("code", req.Code),
		zap.String("operator", operator),
	)

	item, err := newStockItem(req)
	if err != nil {
		logger.Warn("Stock item rejected", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Stock.GetByCode(ctx, item.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check stock code: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("stock code %s already exists", item.Code)
	}

	item.ID = s.newID()
	item.LastUpdated = s.now()

	if err := s.store.Stock.Create(ctx, item); err != nil {
		logger.Error("❌ Error creating stock item", zap.Error(err))
		return nil, fmt.Errorf("failed to create stock item: %w", err)
	}

	logger.Info("✅ Stock item created",
		zap.String("stock_id", item.ID),
		zap.Float64("current_stock", item.CurrentStock))
	s.publish(models.EventStockCreated, item.ID, operator, item)

	return item, nil
}

// newStockItem validates req and applies the ledger defaults
func newStockItem(req *models.CreateStockItemRequest) (*models.StockItem, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apperror.Validation("code", "is required")
	}
	material := strings.TrimSpace(req.Material)
	if material == "" {
		return nil, apperror.Validation("material", "is required")
	}

	item := &models.StockItem{
		Code:         code,
		Material:     material,
		Description:  req.Description,
		Category:     req.Category,
		Unit:         req.Unit,
		CurrentStock: valueOr(req.CurrentStock, models.DefaultCurrentStock),
		MinStock:     valueOr(req.MinStock, models.DefaultMinStock),
		MaxStock:     valueOr(req.MaxStock, models.DefaultMaxStock),
		Location:     req.Location,
		Supplier:     req.Supplier,
	}
	if req.CostPerUnit != nil {
		item.CostPerUnit = *req.CostPerUnit
	}

	levels := []struct {
		field string
		value float64
	}{
		{"current_stock", item.CurrentStock},
		{"min_stock", item.MinStock},
		{"max_stock", item.MaxStock},
	}
	for _, level := range levels {
		if !isFinite(level.value) || level.value < 0 {
			return nil, apperror.Validation(level.field, "must be a non-negative number")
		}
	}
	if item.MinStock > item.MaxStock {
		return nil, apperror.Validation("min_stock", fmt.Sprintf("%.2f exceeds max_stock %.2f", item.MinStock, item.MaxStock))
	}
	if item.CostPerUnit.IsNegative() {
		return nil, apperror.Validation("cost_per_unit", "must not be negative")
	}

	return item, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// applyAdjustment mutates item and returns a warning when a reduce was clamped at zero
func applyAdjustment(item *models.StockItem, qty float64, kind models.TransactionType, now time.Time) string {
	var warning string
	switch kind {
	case models.TransactionAdd:
		item.CurrentStock += qty
	case models.TransactionReduce:
		if qty > item.CurrentStock {
			warning = fmt.Sprintf("requested reduction of %g %s exceeds available %g; %s clamped to 0",
				qty, item.Unit, item.CurrentStock, item.Code)
			item.CurrentStock = 0
		} else {
			item.CurrentStock -= qty
		}
	}

	item.LastTransactionType = kind
	item.LastTransactionQty = qty
	item.LastTransactionDate = &now
	item.LastUpdated = now
	return warning
}

func (s *stockService) AdjustStock(ctx context.Context, id string, qty float64, kind models.TransactionType, operator string) (*models.AdjustStockResponse, error) {
	logger := s.logger.With(
		zap.String("operation", "adjust_stock"),
		zap.String("stock_id", id),
		zap.Float64("quantity", qty),
		zap.String("type", string(kind)),
		zap.String("operator", operator),
	)

	if !isFinite(qty) || qty <= 0 {
		return nil, apperror.Validation("quantity", "must be greater than zero")
	}
	if kind != models.TransactionAdd && kind != models.TransactionReduce {
		return nil, apperror.Validation("type", fmt.Sprintf("must be add or reduce, got %q", kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.Stock.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}
	if item == nil {
		return nil, apperror.NotFound("stock item", id)
	}

	previous := item.CurrentStock
	warning := applyAdjustment(item, qty, kind, s.now())

	if err := s.store.Stock.Update(ctx, item); err != nil {
		logger.Error("❌ Error updating stock", zap.Error(err))
		return nil, writeErr(err, "failed to adjust stock item %s", id)
	}
	s.invalidate(ctx, id)

	if warning != "" {
		logger.Warn("Reduction clamped at zero", zap.Float64("previous_stock", previous))
	}
	logger.Info("✅ Stock adjusted",
		zap.Float64("previous_stock", previous),
		zap.Float64("current_stock", item.CurrentStock))
	s.publish(models.EventStockAdjusted, item.ID, operator, item)

	return &models.AdjustStockResponse{
		Item:          item,
		PreviousStock: previous,
		Warning:       warning,
	}, nil
}

func (s *stockService) DeleteStockItem(ctx context.Context, id, operator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.store.Stock.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock item: %w", err)
	}
	if !deleted {
		return apperror.NotFound("stock item", id)
	}
	s.invalidate(ctx, id)

	s.logger.Info("Stock item deleted",
		zap.String("operation", "delete_stock_item"),
		zap.String("stock_id", id),
		zap.String("operator", operator))
	s.publish(models.EventStockDeleted, id, operator, nil)
	return nil
}

func (s *stockService) ListStock(ctx context.Context) ([]*models.StockItem, error) {
	items, err := s.store.Stock.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return items, nil
}

func (s *stockService) ListLowStock(ctx context.Context) ([]*models.LowStockItem, error) {
	items, err := s.store.Stock.ListLow(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}

	result := make([]*models.LowStockItem, 0, len(items))
	for _, item := range items {
		// repositories filter already; the predicate stays authoritative
		if !item.IsLow() {
			continue
		}
		result = append(result, &models.LowStockItem{
			StockItem:  *item,
			IsCritical: item.IsCritical(),
			Deficit:    item.MinStock - item.CurrentStock,
		})
	}
	return result, nil
}

func (s *stockService) GetStockItem(ctx context.Context, id string) (*models.StockItem, error) {
	if s.cache != nil {
		if item := s.cache.Get(ctx, id); item != nil {
			return item, nil
		}
	}

	item, err := s.store.Stock.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}
	if item == nil {
		return nil, apperror.NotFound("stock item", id)
	}

	if s.cache != nil {
		s.cache.Set(ctx, item)
	}
	return item, nil
}

func (s *stockService) FindByMaterial(ctx context.Context, material string) (*models.StockItem, error) {
	item, err := s.store.Stock.GetByMaterial(ctx, material)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock by material: %w", err)
	}
	if item == nil {
		return nil, apperror.NotFound("stock item for material", material)
	}
	return item, nil
}

func (s *stockService) Summary(ctx context.Context) (*models.StockSummary, error) {
	items, err := s.store.Stock.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	summary := &models.StockSummary{
		TotalItems: len(items),
		TotalValue: decimal.Zero,
		ByCategory: make(map[string]int),
		Timestamp:  s.now().Format(time.RFC3339),
	}
	for _, item := range items {
		if item.IsLow() {
			summary.LowStock++
		}
		if item.IsCritical() {
			summary.CriticalStock++
		}
		summary.TotalValue = summary.TotalValue.Add(item.Value())
		category := item.Category
		if category == "" {
			category = "Uncategorized"
		}
		summary.ByCategory[category]++
	}
	return summary, nil
}

func (s *stockService) SeedDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.Stock.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count stock: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := s.now()
	defaults := models.DefaultStockItems()
	for i := range defaults {
		item := &defaults[i]
		item.ID = s.newID()
		item.LastUpdated = now
		if err := s.store.Stock.Create(ctx, item); err != nil {
			return i, fmt.Errorf("failed to seed %s: %w", item.Code, err)
		}
	}

	s.logger.Info("🌱 Default stock seeded", zap.Int("items", len(defaults)))
	return len(defaults), nil
}
