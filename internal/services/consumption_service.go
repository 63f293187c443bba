package services

import (
	"context"
	"fmt"

	"store-service/internal/models"
)

// ConsumptionService reads the consumption ledger. Records are only written by approvals.
type ConsumptionService interface {
	List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.ConsumptionRecord, error)
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]*models.ConsumptionRecord, error)
}

type consumptionService struct {
	*ledger
}

func (s *consumptionService) List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error) {
	records, err := s.store.Consumption.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption records: %w", err)
	}
	return records, nil
}

func (s *consumptionService) ListByRequest(ctx context.Context, requestID string) ([]*models.ConsumptionRecord, error) {
	return s.List(ctx, models.ConsumptionFilter{RequestID: &requestID})
}

func (s *consumptionService) ListByWorkOrder(ctx context.Context, workOrderID string) ([]*models.ConsumptionRecord, error) {
	return s.List(ctx, models.ConsumptionFilter{WorkOrderID: &workOrderID})
}
