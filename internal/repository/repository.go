package repository

import (
	"context"

	"store-service/internal/models"
)

// Lookups return (nil, nil) when the record does not exist. Writes that lose an
// optimistic check return apperror.ErrRevisionMismatch.

// StockRepository persists the storeStock collection
type StockRepository interface {
	List(ctx context.Context) ([]*models.StockItem, error)
	ListLow(ctx context.Context) ([]*models.StockItem, error)
	GetByID(ctx context.Context, id string) (*models.StockItem, error)
	GetByCode(ctx context.Context, code string) (*models.StockItem, error)
	GetByMaterial(ctx context.Context, material string) (*models.StockItem, error)
	Count(ctx context.Context) (int, error)

	// Create stores a new item with revision 1
	Create(ctx context.Context, item *models.StockItem) error
	// Update writes item when the stored revision equals item.Revision, then bumps item.Revision
	Update(ctx context.Context, item *models.StockItem) error
	// BatchUpdate applies Update to every item or to none of them
	BatchUpdate(ctx context.Context, items []*models.StockItem) error
	Delete(ctx context.Context, id string) (bool, error)
}

// RequestRepository persists the materialRequests collection. Requests are never deleted.
type RequestRepository interface {
	Create(ctx context.Context, req *models.MaterialRequest) error
	GetByID(ctx context.Context, id string) (*models.MaterialRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error)
	// Update replaces req when the stored status equals expected
	Update(ctx context.Context, req *models.MaterialRequest, expected models.RequestStatus) error
}

// ConsumptionRepository persists the consumptionRecords collection. Append-only.
type ConsumptionRepository interface {
	Append(ctx context.Context, record *models.ConsumptionRecord) error
	List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error)
}

// WorkOrderRepository persists the workOrders collection
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *models.WorkOrder) error
	GetByID(ctx context.Context, id string) (*models.WorkOrder, error)
	List(ctx context.Context) ([]*models.WorkOrder, error)
	Update(ctx context.Context, wo *models.WorkOrder) error
}

// SalesOrderRepository persists the salesOrders collection
type SalesOrderRepository interface {
	Create(ctx context.Context, so *models.SalesOrder) error
	GetByID(ctx context.Context, id string) (*models.SalesOrder, error)
	List(ctx context.Context) ([]*models.SalesOrder, error)
}

// Store groups the repositories of one backend
type Store struct {
	Backend     string
	Stock       StockRepository
	Requests    RequestRepository
	Consumption ConsumptionRepository
	WorkOrders  WorkOrderRepository
	SalesOrders SalesOrderRepository
}
