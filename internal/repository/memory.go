package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"store-service/internal/apperror"
	"store-service/internal/config"
	"store-service/internal/models"
)

// NewMemoryStore builds a Store kept entirely in process memory
func NewMemoryStore() *Store {
	return &Store{
		Backend:     config.BackendMemory,
		Stock:       NewMemoryStockRepository(),
		Requests:    NewMemoryRequestRepository(),
		Consumption: NewMemoryConsumptionRepository(),
		WorkOrders:  NewMemoryWorkOrderRepository(),
		SalesOrders: NewMemorySalesOrderRepository(),
	}
}

// ===== STOCK =====

type memoryStockRepository struct {
	mu    sync.RWMutex
	items map[string]*models.StockItem
}

var _ StockRepository = (*memoryStockRepository)(nil)

func NewMemoryStockRepository() StockRepository {
	return &memoryStockRepository{items: make(map[string]*models.StockItem)}
}

func (r *memoryStockRepository) List(ctx context.Context) ([]*models.StockItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.StockItem, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, item.Clone())
	}
	sortStockByCode(result)
	return result, nil
}

func (r *memoryStockRepository) ListLow(ctx context.Context) ([]*models.StockItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.StockItem
	for _, item := range r.items {
		if item.IsLow() {
			result = append(result, item.Clone())
		}
	}
	sortStockByLevel(result)
	return result, nil
}

func (r *memoryStockRepository) GetByID(ctx context.Context, id string) (*models.StockItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if item, ok := r.items[id]; ok {
		return item.Clone(), nil
	}
	return nil, nil
}

func (r *memoryStockRepository) GetByCode(ctx context.Context, code string) (*models.StockItem, error) {
	return r.find(func(item *models.StockItem) bool { return item.Code == code }), nil
}

func (r *memoryStockRepository) GetByMaterial(ctx context.Context, material string) (*models.StockItem, error) {
	return r.find(func(item *models.StockItem) bool { return item.Material == material }), nil
}

// find returns the first match in code order, so lookups are deterministic
func (r *memoryStockRepository) find(match func(*models.StockItem) bool) *models.StockItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.StockItem
	for _, item := range r.items {
		if match(item) && (found == nil || item.Code < found.Code) {
			found = item
		}
	}
	if found == nil {
		return nil
	}
	return found.Clone()
}

func (r *memoryStockRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *memoryStockRepository) Create(ctx context.Context, item *models.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("stock item %s already exists", item.ID)
	}
	item.Revision = 1
	r.items[item.ID] = item.Clone()
	return nil
}

func (r *memoryStockRepository) Update(ctx context.Context, item *models.StockItem) error {
	return r.BatchUpdate(ctx, []*models.StockItem{item})
}

func (r *memoryStockRepository) BatchUpdate(ctx context.Context, items []*models.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		stored, ok := r.items[item.ID]
		if !ok {
			return fmt.Errorf("no stock record found for id %s", item.ID)
		}
		if stored.Revision != item.Revision {
			return fmt.Errorf("stock item %s: %w", item.ID, apperror.ErrRevisionMismatch)
		}
	}

	for _, item := range items {
		item.Revision++
		r.items[item.ID] = item.Clone()
	}
	return nil
}

func (r *memoryStockRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// ===== MATERIAL REQUESTS =====

type memoryRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*models.MaterialRequest
}

var _ RequestRepository = (*memoryRequestRepository)(nil)

func NewMemoryRequestRepository() RequestRepository {
	return &memoryRequestRepository{requests: make(map[string]*models.MaterialRequest)}
}

func (r *memoryRequestRepository) Create(ctx context.Context, req *models.MaterialRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[req.ID]; exists {
		return fmt.Errorf("material request %s already exists", req.ID)
	}
	r.requests[req.ID] = req.Clone()
	return nil
}

func (r *memoryRequestRepository) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if req, ok := r.requests[id]; ok {
		return req.Clone(), nil
	}
	return nil, nil
}

func (r *memoryRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.MaterialRequest
	for _, req := range r.requests {
		if filter.Matches(req) {
			result = append(result, req.Clone())
		}
	}
	sortRequests(result)
	return result, nil
}

func (r *memoryRequestRepository) Update(ctx context.Context, req *models.MaterialRequest, expected models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID]
	if !ok {
		return fmt.Errorf("no material request found for id %s", req.ID)
	}
	if stored.Status != expected {
		return fmt.Errorf("material request %s is %s: %w", req.ID, stored.Status, apperror.ErrRevisionMismatch)
	}
	r.requests[req.ID] = req.Clone()
	return nil
}

// ===== CONSUMPTION RECORDS =====

type memoryConsumptionRepository struct {
	mu      sync.RWMutex
	records []*models.ConsumptionRecord
}

var _ ConsumptionRepository = (*memoryConsumptionRepository)(nil)

func NewMemoryConsumptionRepository() ConsumptionRepository {
	return &memoryConsumptionRepository{}
}

func (r *memoryConsumptionRepository) Append(ctx context.Context, record *models.ConsumptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.ID == record.ID {
			return fmt.Errorf("consumption record %s already exists", record.ID)
		}
	}
	r.records = append(r.records, cloneConsumption(record))
	return nil
}

func (r *memoryConsumptionRepository) List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ConsumptionRecord
	for _, record := range r.records {
		if filter.Matches(record) {
			result = append(result, cloneConsumption(record))
		}
	}
	return result, nil
}

func cloneConsumption(c *models.ConsumptionRecord) *models.ConsumptionRecord {
	out := *c
	out.Items = append([]models.ConsumptionItem(nil), c.Items...)
	return &out
}

// ===== WORK ORDERS =====

type memoryWorkOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.WorkOrder
}

var _ WorkOrderRepository = (*memoryWorkOrderRepository)(nil)

func NewMemoryWorkOrderRepository() WorkOrderRepository {
	return &memoryWorkOrderRepository{orders: make(map[string]*models.WorkOrder)}
}

func (r *memoryWorkOrderRepository) Create(ctx context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[wo.ID]; exists {
		return fmt.Errorf("work order %s already exists", wo.ID)
	}
	r.orders[wo.ID] = wo.Clone()
	return nil
}

func (r *memoryWorkOrderRepository) GetByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if wo, ok := r.orders[id]; ok {
		return wo.Clone(), nil
	}
	return nil, nil
}

func (r *memoryWorkOrderRepository) List(ctx context.Context) ([]*models.WorkOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.WorkOrder, 0, len(r.orders))
	for _, wo := range r.orders {
		result = append(result, wo.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryWorkOrderRepository) Update(ctx context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[wo.ID]; !ok {
		return fmt.Errorf("no work order found for id %s", wo.ID)
	}
	r.orders[wo.ID] = wo.Clone()
	return nil
}

// ===== SALES ORDERS =====

type memorySalesOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.SalesOrder
}

var _ SalesOrderRepository = (*memorySalesOrderRepository)(nil)

func NewMemorySalesOrderRepository() SalesOrderRepository {
	return &memorySalesOrderRepository{orders: make(map[string]*models.SalesOrder)}
}

func (r *memorySalesOrderRepository) Create(ctx context.Context, so *models.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[so.ID]; exists {
		return fmt.Errorf("sales order %s already exists", so.ID)
	}
	r.orders[so.ID] = cloneSalesOrder(so)
	return nil
}

func (r *memorySalesOrderRepository) GetByID(ctx context.Context, id string) (*models.SalesOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if so, ok := r.orders[id]; ok {
		return cloneSalesOrder(so), nil
	}
	return nil, nil
}

func (r *memorySalesOrderRepository) List(ctx context.Context) ([]*models.SalesOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.SalesOrder, 0, len(r.orders))
	for _, so := range r.orders {
		result = append(result, cloneSalesOrder(so))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func cloneSalesOrder(so *models.SalesOrder) *models.SalesOrder {
	out := *so
	out.LineItems = append([]models.LineItem(nil), so.LineItems...)
	return &out
}

// ===== ORDERING =====

func sortStockByCode(items []*models.StockItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
}

// sortStockByLevel orders low-stock items most depleted first
func sortStockByLevel(items []*models.StockItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CurrentStock != items[j].CurrentStock {
			return items[i].CurrentStock < items[j].CurrentStock
		}
		return items[i].Code < items[j].Code
	})
}

func sortRequests(reqs []*models.MaterialRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].RequestedAt.Equal(reqs[j].RequestedAt) {
			return reqs[i].RequestedAt.Before(reqs[j].RequestedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
}
