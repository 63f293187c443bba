package services

import (
	"context"
	"fmt"
	"strings"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"go.uber.org/zap"
)

// WorkOrderService creates work orders with their material requirement snapshot
type WorkOrderService interface {
	Create(ctx context.Context, req *models.CreateWorkOrderRequest, operator string) (*models.WorkOrderResult, error)
	Get(ctx context.Context, id string) (*models.WorkOrder, error)
	List(ctx context.Context) ([]*models.WorkOrder, error)
}

type workOrderService struct {
	*ledger
	deriver RequirementDeriver
}

func (s *workOrderService) Create(ctx context.Context, in *models.CreateWorkOrderRequest, operator string) (*models.WorkOrderResult, error) {
	logger := s.logger.With(
		zap.String("operation", "create_work_order"),
		zap.String("sales_order_id", in.SalesOrderID),
		zap.String("operator", operator),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	wo := &models.WorkOrder{
		ID:           s.newID(),
		SalesOrderID: in.SalesOrderID,
		ClientName:   strings.TrimSpace(in.ClientName),
		LineItems:    in.LineItems,
	}

	if in.SalesOrderID != "" {
		so, err := s.store.SalesOrders.GetByID(ctx, in.SalesOrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get sales order: %w", err)
		}
		if so == nil {
			return nil, apperror.NotFound("sales order", in.SalesOrderID)
		}
		wo.ClientName = so.ClientName
		wo.LineItems = so.LineItems
	}
	if len(wo.LineItems) == 0 {
		return nil, apperror.Validation("line_items", "at least one line item is required")
	}

	derived, err := s.deriver.Derive(ctx, wo.LineItems)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wo.MaterialRequirements = derived.Requirements
	wo.RequiredOperations = derived.RequiredOperations
	wo.HasMaterialRequest = derived.HasMaterialRequest
	wo.Status = models.WorkOrderReadyForProduction
	wo.CreatedAt = now
	wo.UpdatedAt = now

	var request *models.MaterialRequest
	if derived.HasMaterialRequest {
		request, err = s.buildShortfallRequest(wo, derived.Requirements, operator)
		if err != nil {
			return nil, err
		}
		wo.Status = models.WorkOrderPendingMaterial
		wo.MaterialRequestID = request.ID
		wo.MaterialRequestStatus = models.StatusPending
	}

	// The request goes first so a stored work order never points at a missing request
	if request != nil {
		if err := s.createRequest(ctx, request); err != nil {
			logger.Error("❌ Error creating shortfall request", zap.Error(err))
			return nil, err
		}
	}

	if err := s.store.WorkOrders.Create(ctx, wo); err != nil {
		logger.Error("❌ Error creating work order", zap.Error(err))
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}
	s.publish(models.EventWorkOrderCreated, wo.ID, operator, wo)

	logger.Info("✅ Work order created",
		zap.String("work_order_id", wo.ID),
		zap.String("status", wo.Status),
		zap.Int("requirements", len(wo.MaterialRequirements)),
		zap.Bool("has_material_request", wo.HasMaterialRequest))

	return &models.WorkOrderResult{WorkOrder: wo, Request: request}, nil
}

func (s *workOrderService) Get(ctx context.Context, id string) (*models.WorkOrder, error) {
	wo, err := s.store.WorkOrders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	if wo == nil {
		return nil, apperror.NotFound("work order", id)
	}
	return wo, nil
}

func (s *workOrderService) List(ctx context.Context) ([]*models.WorkOrder, error) {
	orders, err := s.store.WorkOrders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	return orders, nil
}
