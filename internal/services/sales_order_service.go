package services

import (
	"context"
	"fmt"
	"strings"

	"store-service/internal/apperror"
	"store-service/internal/models"

	"go.uber.org/zap"
)

// SalesOrderService keeps the minimal sales order records work orders are created from
type SalesOrderService interface {
	Create(ctx context.Context, req *models.CreateSalesOrderRequest) (*models.SalesOrder, error)
	Get(ctx context.Context, id string) (*models.SalesOrder, error)
	List(ctx context.Context) ([]*models.SalesOrder, error)
}

type salesOrderService struct {
	*ledger
}

func (s *salesOrderService) Create(ctx context.Context, req *models.CreateSalesOrderRequest) (*models.SalesOrder, error) {
	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		return nil, apperror.Validation("order_number", "is required")
	}
	if len(req.LineItems) == 0 {
		return nil, apperror.Validation("line_items", "at least one line item is required")
	}

	so := &models.SalesOrder{
		ID:          s.newID(),
		OrderNumber: orderNumber,
		ClientName:  strings.TrimSpace(req.ClientName),
		LineItems:   req.LineItems,
		CreatedAt:   s.now(),
	}
	if err := s.store.SalesOrders.Create(ctx, so); err != nil {
		return nil, fmt.Errorf("failed to create sales order: %w", err)
	}

	s.logger.Info("Sales order registered",
		zap.String("operation", "create_sales_order"),
		zap.String("sales_order_id", so.ID),
		zap.String("order_number", so.OrderNumber))
	return so, nil
}

func (s *salesOrderService) Get(ctx context.Context, id string) (*models.SalesOrder, error) {
	so, err := s.store.SalesOrders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales order: %w", err)
	}
	if so == nil {
		return nil, apperror.NotFound("sales order", id)
	}
	return so, nil
}

func (s *salesOrderService) List(ctx context.Context) ([]*models.SalesOrder, error) {
	orders, err := s.store.SalesOrders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales orders: %w", err)
	}
	return orders, nil
}
