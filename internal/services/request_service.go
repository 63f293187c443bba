package services

import (
	"context"
	"fmt"
	"strings"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"go.uber.org/zap"
)

// RequestService is the Material Request Workflow: pending -> approved | rejected
type RequestService interface {
	// CreateShortfallRequest records the unmet requirements of a work order as one multi-item request
	CreateShortfallRequest(ctx context.Context, wo *models.WorkOrder, requirements []models.MaterialRequirement, operator string) (*models.MaterialRequest, error)
	Approve(ctx context.Context, id, operator string) (*models.ApprovalResult, error)
	Reject(ctx context.Context, id, remarks, operator string) (*models.MaterialRequest, error)
	Get(ctx context.Context, id string) (*models.MaterialRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error)
}

type requestService struct {
	*ledger
}

// ShortfallPriority grades the worst requirement: High when nothing is on hand or at
// least half is missing, Medium from a fifth, Low below that.
func ShortfallPriority(requirements []models.MaterialRequirement) models.Priority {
	priority := models.PriorityLow
	for _, r := range requirements {
		shortfall := r.Shortfall()
		if shortfall <= 0 || r.RequiredQty <= 0 {
			continue
		}
		ratio := shortfall / r.RequiredQty
		switch {
		case r.AvailableQty <= 0 || ratio >= 0.5:
			return models.PriorityHigh
		case ratio >= 0.2:
			priority = models.PriorityMedium
		}
	}
	return priority
}

func (s *requestService) CreateShortfallRequest(ctx context.Context, wo *models.WorkOrder, requirements []models.MaterialRequirement, operator string) (*models.MaterialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.buildShortfallRequest(wo, requirements, operator)
	if err != nil {
		return nil, err
	}
	if err := s.createRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// buildShortfallRequest keeps only the requirements stock cannot cover
func (s *ledger) buildShortfallRequest(wo *models.WorkOrder, requirements []models.MaterialRequirement, operator string) (*models.MaterialRequest, error) {
	var short []models.MaterialRequirement
	items := make([]models.RequestItem, 0, len(requirements))
	for _, r := range requirements {
		if r.Shortfall() <= 0 {
			continue
		}
		short = append(short, r)
		items = append(items, models.RequestItem{
			Material:     r.MaterialType,
			Description:  r.Description,
			RequiredQty:  r.RequiredQty,
			AvailableQty: r.AvailableQty,
			Unit:         r.Unit,
			StockCode:    r.StockCode,
		})
	}
	if len(items) == 0 {
		return nil, apperror.Validation("requirements", "no requirement exceeds available stock")
	}

	return &models.MaterialRequest{
		ID:           s.newID(),
		Type:         models.RequestTypeShortfall,
		Shape:        models.ShapeMulti,
		Items:        items,
		WorkOrderID:  wo.ID,
		SalesOrderID: wo.SalesOrderID,
		ClientName:   wo.ClientName,
		Priority:     ShortfallPriority(short),
		Status:       models.StatusPending,
		RequestedAt:  s.now(),
		RequestedBy:  operator,
	}, nil
}

// createRequest stores req; the caller holds mu
func (s *ledger) createRequest(ctx context.Context, req *models.MaterialRequest) error {
	if err := req.CheckShape(); err != nil {
		return apperror.Validation("shape", err.Error())
	}
	if err := s.store.Requests.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to create material request: %w", err)
	}

	s.logger.Info("📋 Material request created",
		zap.String("request_id", req.ID),
		zap.String("type", string(req.Type)),
		zap.String("priority", string(req.Priority)),
		zap.Int("lines", len(req.Lines())))
	s.publish(models.EventRequestCreated, req.ID, req.RequestedBy, req)
	return nil
}

// loadPending fetches a request that may still transition
func (s *requestService) loadPending(ctx context.Context, id string) (*models.MaterialRequest, error) {
	req, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get material request: %w", err)
	}
	if req == nil {
		return nil, apperror.NotFound("material request", id)
	}
	if !req.IsPending() {
		return nil, apperror.Conflict("material request %s is already %s", id, req.Status)
	}
	if err := req.CheckShape(); err != nil {
		return nil, apperror.Validation("shape", err.Error())
	}
	return req, nil
}

// stockMove is the planned effect of one approval on one stock item.
// materials lists every request line merged into the move.
type stockMove struct {
	item      *models.StockItem
	materials []string
	qty       float64
}

// revertClaim puts an approved request back to pending
func (s *requestService) revertClaim(ctx context.Context, logger *zap.Logger, original *models.MaterialRequest) {
	if err := s.store.Requests.Update(ctx, original, models.StatusApproved); err != nil {
		logger.Error("❌ Failed to revert approval", zap.Error(err))
	}
}

// restoreStock writes the pre-approval snapshots over the committed items.
// committed carries the revisions the batch produced.
func (s *requestService) restoreStock(ctx context.Context, logger *zap.Logger, snapshots, committed []*models.StockItem) {
	if len(snapshots) == 0 {
		return
	}
	for i, snapshot := range snapshots {
		snapshot.Revision = committed[i].Revision
	}
	if err := s.store.Stock.BatchUpdate(ctx, snapshots); err != nil {
		logger.Error("❌ Failed to restore stock", zap.Error(err))
	}
	for _, snapshot := range snapshots {
		s.invalidate(ctx, snapshot.ID)
	}
}

func (s *requestService) Approve(ctx context.Context, id, operator string) (*models.ApprovalResult, error) {
	logger := s.logger.With(
		zap.String("operation", "approve_request"),
		zap.String("request_id", id),
		zap.String("operator", operator),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	// Plan every stock move before writing anything
	moves, warnings, err := s.planMoves(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	original := req.Clone()
	req.Status = models.StatusApproved
	req.ProcessedAt = &now
	req.ProcessedBy = operator
	req.Remarks = models.ApprovalRemarks

	// Claiming the request first makes a second approval fail even across processes
	if err := s.store.Requests.Update(ctx, req, models.StatusPending); err != nil {
		return nil, writeErr(err, "failed to approve material request %s", id)
	}

	kind := models.TransactionReduce
	if req.Type == models.RequestTypeReorder {
		kind = models.TransactionAdd
	}

	var consumed []models.ConsumptionItem
	changed := make([]*models.StockItem, 0, len(moves))
	snapshots := make([]*models.StockItem, 0, len(moves))
	for _, move := range moves {
		snapshots = append(snapshots, move.item.Clone())
		before := move.item.CurrentStock
		if w := applyAdjustment(move.item, move.qty, kind, now); w != "" {
			warnings = append(warnings, w)
		}
		changed = append(changed, move.item)
		consumed = append(consumed, models.ConsumptionItem{
			Material:    strings.Join(move.materials, ", "),
			StockItemID: move.item.ID,
			StockCode:   move.item.Code,
			IssuedQty:   before - move.item.CurrentStock,
			Unit:        move.item.Unit,
			StockBefore: before,
			StockAfter:  move.item.CurrentStock,
		})
	}

	if len(changed) > 0 {
		if err := s.store.Stock.BatchUpdate(ctx, changed); err != nil {
			logger.Error("❌ Stock update failed, reverting approval", zap.Error(err))
			s.revertClaim(ctx, logger, original)
			return nil, writeErr(err, "failed to update stock for request %s", id)
		}
	}

	result := &models.ApprovalResult{Request: req, Warnings: warnings}

	// only shortfall approvals issue stock
	if req.Type == models.RequestTypeShortfall {
		record := &models.ConsumptionRecord{
			ID:           s.newID(),
			RequestID:    req.ID,
			WorkOrderID:  req.WorkOrderID,
			SalesOrderID: req.SalesOrderID,
			IssuedAt:     now,
			IssuedBy:     operator,
			Items:        consumed,
		}
		if record.Items == nil {
			record.Items = []models.ConsumptionItem{}
		}
		if err := s.store.Consumption.Append(ctx, record); err != nil {
			logger.Error("❌ Error appending consumption record, reverting approval", zap.Error(err))
			s.restoreStock(ctx, logger, snapshots, changed)
			s.revertClaim(ctx, logger, original)
			return nil, fmt.Errorf("failed to record consumption for request %s: %w", id, err)
		}
		result.Consumption = record
	}

	for _, item := range changed {
		s.invalidate(ctx, item.ID)
		s.publish(models.EventStockAdjusted, item.ID, operator, item)
	}
	if result.Consumption != nil {
		s.publish(models.EventConsumptionAdded, result.Consumption.ID, operator, result.Consumption)
	}

	if w := s.syncWorkOrder(ctx, req, models.WorkOrderReadyForProduction); w != "" {
		result.Warnings = append(result.Warnings, w)
	}

	for _, w := range result.Warnings {
		logger.Warn("Approval warning", zap.String("warning", w))
	}
	logger.Info("✅ Material request approved",
		zap.String("type", string(req.Type)),
		zap.Int("stock_moves", len(changed)),
		zap.Int("warnings", len(result.Warnings)))
	s.publish(models.EventRequestApproved, req.ID, operator, req)

	return result, nil
}

// planMoves resolves every request line to a stock item. A shortfall line moves
// requiredQty - availableQty; a reorder line receives requiredQty. Lines without
// a positive quantity or without a matching stock item become warnings.
func (s *requestService) planMoves(ctx context.Context, req *models.MaterialRequest) ([]*stockMove, []string, error) {
	var moves []*stockMove
	var warnings []string
	byItem := make(map[string]*stockMove)

	for _, line := range req.Lines() {
		qty := line.Shortfall()
		if req.Type == models.RequestTypeReorder {
			qty = line.RequiredQty
		}
		if qty <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: nothing to issue (required %g, available %g)",
				line.Material, line.RequiredQty, line.AvailableQty))
			continue
		}

		item, err := s.resolveStockItem(ctx, req, line.Material)
		if err != nil {
			return nil, nil, err
		}
		if item == nil {
			warnings = append(warnings, fmt.Sprintf("%s: no stock item matches this material, line skipped", line.Material))
			continue
		}

		if move, ok := byItem[item.ID]; ok {
			move.qty += qty
			if !containsString(move.materials, line.Material) {
				move.materials = append(move.materials, line.Material)
			}
			continue
		}
		move := &stockMove{item: item, materials: []string{line.Material}, qty: qty}
		byItem[item.ID] = move
		moves = append(moves, move)
	}

	return moves, warnings, nil
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func (s *requestService) resolveStockItem(ctx context.Context, req *models.MaterialRequest, material string) (*models.StockItem, error) {
	if req.StockItemID != "" {
		item, err := s.store.Stock.GetByID(ctx, req.StockItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get stock item: %w", err)
		}
		if item != nil {
			return item, nil
		}
	}
	item, err := s.store.Stock.GetByMaterial(ctx, material)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock by material: %w", err)
	}
	return item, nil
}

func (s *requestService) Reject(ctx context.Context, id, remarks, operator string) (*models.MaterialRequest, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, apperror.Validation("remarks", "a rejection reason is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.Status = models.StatusRejected
	req.ProcessedAt = &now
	req.ProcessedBy = operator
	req.Remarks = remarks

	if err := s.store.Requests.Update(ctx, req, models.StatusPending); err != nil {
		return nil, writeErr(err, "failed to reject material request %s", id)
	}

	if w := s.syncWorkOrder(ctx, req, models.WorkOrderMaterialRejected); w != "" {
		s.logger.Warn("Rejection warning", zap.String("request_id", id), zap.String("warning", w))
	}

	s.logger.Info("🚫 Material request rejected",
		zap.String("operation", "reject_request"),
		zap.String("request_id", id),
		zap.String("operator", operator),
		zap.String("remarks", remarks))
	s.publish(models.EventRequestRejected, req.ID, operator, req)

	return req, nil
}

// syncWorkOrder writes the transition back to the referencing work order and
// returns a warning when that is not possible.
func (s *ledger) syncWorkOrder(ctx context.Context, req *models.MaterialRequest, status string) string {
	if req.WorkOrderID == "" {
		return ""
	}

	wo, err := s.store.WorkOrders.GetByID(ctx, req.WorkOrderID)
	if err != nil {
		s.logger.Error("❌ Error loading work order", zap.String("work_order_id", req.WorkOrderID), zap.Error(err))
		return fmt.Sprintf("work order %s could not be loaded: %v", req.WorkOrderID, err)
	}
	if wo == nil {
		return fmt.Sprintf("work order %s not found, status not updated", req.WorkOrderID)
	}

	wo.Status = status
	wo.MaterialRequestID = req.ID
	wo.MaterialRequestStatus = req.Status
	wo.UpdatedAt = s.now()
	if err := s.store.WorkOrders.Update(ctx, wo); err != nil {
		s.logger.Error("❌ Error updating work order", zap.String("work_order_id", wo.ID), zap.Error(err))
		return fmt.Sprintf("work order %s could not be updated: %v", wo.ID, err)
	}

	s.publish(models.EventWorkOrderUpdated, wo.ID, req.ProcessedBy, wo)
	return ""
}

func (s *requestService) Get(ctx context.Context, id string) (*models.MaterialRequest, error) {
	req, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get material request: %w", err)
	}
	if req == nil {
		return nil, apperror.NotFound("material request", id)
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error) {
	reqs, err := s.store.Requests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list material requests: %w", err)
	}
	return reqs, nil
}
