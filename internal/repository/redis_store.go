package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"store-service/internal/apperror"
	"store-service/internal/config"
	"store-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Collection names as stored by the dashboard; each lives under <prefix>:<name> as a JSON array
const (
	CollectionStock       = "storeStock"
	CollectionRequests    = "materialRequests"
	CollectionConsumption = "consumptionRecords"
	CollectionWorkOrders  = "workOrders"
	CollectionSalesOrders = "salesOrders"
)

// NewRedisStore builds a Store whose collections are redis keys
func NewRedisStore(client *redis.Client, prefix string) *Store {
	return &Store{
		Backend:     config.BackendRedis,
		Stock:       &redisStockRepository{coll: newRedisCollection(client, prefix, CollectionStock)},
		Requests:    &redisRequestRepository{coll: newRedisCollection(client, prefix, CollectionRequests)},
		Consumption: &redisConsumptionRepository{coll: newRedisCollection(client, prefix, CollectionConsumption)},
		WorkOrders:  &redisWorkOrderRepository{coll: newRedisCollection(client, prefix, CollectionWorkOrders)},
		SalesOrders: &redisSalesOrderRepository{coll: newRedisCollection(client, prefix, CollectionSalesOrders)},
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// redisCollection is one JSON array value. Writes are read-modify-write under WATCH,
// so a concurrent writer on the same key aborts the transaction.
type redisCollection struct {
	client *redis.Client
	key    string
}

func newRedisCollection(client *redis.Client, prefix, name string) *redisCollection {
	return &redisCollection{client: client, key: fmt.Sprintf("%s:%s", prefix, name)}
}

func (c *redisCollection) read(ctx context.Context, g getter, dst interface{}) error {
	data, err := g.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	return nil
}

func (c *redisCollection) load(ctx context.Context, dst interface{}) error {
	return c.read(ctx, c.client, dst)
}

// mutate loads the collection into dst, applies fn and writes dst back atomically
func (c *redisCollection) mutate(ctx context.Context, dst interface{}, fn func() error) error {
	txf := func(tx *redis.Tx) error {
		if err := c.read(ctx, tx, dst); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return err
		}

		data, err := json.Marshal(dst)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", c.key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, data, 0)
			return nil
		})
		return err
	}

	err := c.client.Watch(ctx, txf, c.key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%s changed during write: %w", c.key, apperror.ErrRevisionMismatch)
	}
	return err
}

// ===== STOCK =====

type redisStockRepository struct {
	coll *redisCollection
}

var _ StockRepository = (*redisStockRepository)(nil)

func (r *redisStockRepository) all(ctx context.Context) ([]*models.StockItem, error) {
	var items []*models.StockItem
	if err := r.coll.load(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *redisStockRepository) List(ctx context.Context) ([]*models.StockItem, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	sortStockByCode(items)
	return items, nil
}

func (r *redisStockRepository) ListLow(ctx context.Context) ([]*models.StockItem, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	var low []*models.StockItem
	for _, item := range items {
		if item.IsLow() {
			low = append(low, item)
		}
	}
	sortStockByLevel(low)
	return low, nil
}

func (r *redisStockRepository) findOne(ctx context.Context, match func(*models.StockItem) bool) (*models.StockItem, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	sortStockByCode(items)
	for _, item := range items {
		if match(item) {
			return item, nil
		}
	}
	return nil, nil
}

func (r *redisStockRepository) GetByID(ctx context.Context, id string) (*models.StockItem, error) {
	return r.findOne(ctx, func(item *models.StockItem) bool { return item.ID == id })
}

func (r *redisStockRepository) GetByCode(ctx context.Context, code string) (*models.StockItem, error) {
	return r.findOne(ctx, func(item *models.StockItem) bool { return item.Code == code })
}

func (r *redisStockRepository) GetByMaterial(ctx context.Context, material string) (*models.StockItem, error) {
	return r.findOne(ctx, func(item *models.StockItem) bool { return item.Material == material })
}

func (r *redisStockRepository) Count(ctx context.Context) (int, error) {
	items, err := r.all(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *redisStockRepository) Create(ctx context.Context, item *models.StockItem) error {
	var items []*models.StockItem
	err := r.coll.mutate(ctx, &items, func() error {
		for _, existing := range items {
			if existing.ID == item.ID {
				return fmt.Errorf("stock item %s already exists", item.ID)
			}
		}
		stored := item.Clone()
		stored.Revision = 1
		items = append(items, stored)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}
	item.Revision = 1
	return nil
}

func (r *redisStockRepository) Update(ctx context.Context, item *models.StockItem) error {
	return r.BatchUpdate(ctx, []*models.StockItem{item})
}

func (r *redisStockRepository) BatchUpdate(ctx context.Context, updates []*models.StockItem) error {
	var items []*models.StockItem
	err := r.coll.mutate(ctx, &items, func() error {
		index := make(map[string]int, len(items))
		for i, existing := range items {
			index[existing.ID] = i
		}
		for _, update := range updates {
			i, ok := index[update.ID]
			if !ok {
				return fmt.Errorf("no stock record found for id %s", update.ID)
			}
			if items[i].Revision != update.Revision {
				return fmt.Errorf("stock item %s: %w", update.ID, apperror.ErrRevisionMismatch)
			}
		}
		for _, update := range updates {
			stored := update.Clone()
			stored.Revision++
			items[index[update.ID]] = stored
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	for _, update := range updates {
		update.Revision++
	}
	return nil
}

func (r *redisStockRepository) Delete(ctx context.Context, id string) (bool, error) {
	var items []*models.StockItem
	deleted := false
	err := r.coll.mutate(ctx, &items, func() error {
		kept := items[:0]
		for _, item := range items {
			if item.ID == id {
				deleted = true
				continue
			}
			kept = append(kept, item)
		}
		items = kept
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete stock: %w", err)
	}
	return deleted, nil
}

// ===== MATERIAL REQUESTS =====

type redisRequestRepository struct {
	coll *redisCollection
}

var _ RequestRepository = (*redisRequestRepository)(nil)

func (r *redisRequestRepository) Create(ctx context.Context, req *models.MaterialRequest) error {
	var requests []*models.MaterialRequest
	err := r.coll.mutate(ctx, &requests, func() error {
		for _, existing := range requests {
			if existing.ID == req.ID {
				return fmt.Errorf("material request %s already exists", req.ID)
			}
		}
		requests = append(requests, req.Clone())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create material request: %w", err)
	}
	return nil
}

func (r *redisRequestRepository) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	var requests []*models.MaterialRequest
	if err := r.coll.load(ctx, &requests); err != nil {
		return nil, err
	}
	for _, req := range requests {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, nil
}

func (r *redisRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error) {
	var requests []*models.MaterialRequest
	if err := r.coll.load(ctx, &requests); err != nil {
		return nil, err
	}
	var result []*models.MaterialRequest
	for _, req := range requests {
		if filter.Matches(req) {
			result = append(result, req)
		}
	}
	sortRequests(result)
	return result, nil
}

func (r *redisRequestRepository) Update(ctx context.Context, req *models.MaterialRequest, expected models.RequestStatus) error {
	var requests []*models.MaterialRequest
	err := r.coll.mutate(ctx, &requests, func() error {
		for i, existing := range requests {
			if existing.ID != req.ID {
				continue
			}
			if existing.Status != expected {
				return fmt.Errorf("material request %s is %s: %w", req.ID, existing.Status, apperror.ErrRevisionMismatch)
			}
			requests[i] = req.Clone()
			return nil
		}
		return fmt.Errorf("no material request found for id %s", req.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to update material request: %w", err)
	}
	return nil
}

// ===== CONSUMPTION RECORDS =====

type redisConsumptionRepository struct {
	coll *redisCollection
}

var _ ConsumptionRepository = (*redisConsumptionRepository)(nil)

func (r *redisConsumptionRepository) Append(ctx context.Context, record *models.ConsumptionRecord) error {
	var records []*models.ConsumptionRecord
	err := r.coll.mutate(ctx, &records, func() error {
		for _, existing := range records {
			if existing.ID == record.ID {
				return fmt.Errorf("consumption record %s already exists", record.ID)
			}
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append consumption record: %w", err)
	}
	return nil
}

func (r *redisConsumptionRepository) List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error) {
	var records []*models.ConsumptionRecord
	if err := r.coll.load(ctx, &records); err != nil {
		return nil, err
	}
	var result []*models.ConsumptionRecord
	for _, record := range records {
		if filter.Matches(record) {
			result = append(result, record)
		}
	}
	return result, nil
}

// ===== WORK ORDERS =====

type redisWorkOrderRepository struct {
	coll *redisCollection
}

var _ WorkOrderRepository = (*redisWorkOrderRepository)(nil)

func (r *redisWorkOrderRepository) Create(ctx context.Context, wo *models.WorkOrder) error {
	var orders []*models.WorkOrder
	err := r.coll.mutate(ctx, &orders, func() error {
		for _, existing := range orders {
			if existing.ID == wo.ID {
				return fmt.Errorf("work order %s already exists", wo.ID)
			}
		}
		orders = append(orders, wo.Clone())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}
	return nil
}

func (r *redisWorkOrderRepository) GetByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	var orders []*models.WorkOrder
	if err := r.coll.load(ctx, &orders); err != nil {
		return nil, err
	}
	for _, wo := range orders {
		if wo.ID == id {
			return wo, nil
		}
	}
	return nil, nil
}

func (r *redisWorkOrderRepository) List(ctx context.Context) ([]*models.WorkOrder, error) {
	var orders []*models.WorkOrder
	if err := r.coll.load(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *redisWorkOrderRepository) Update(ctx context.Context, wo *models.WorkOrder) error {
	var orders []*models.WorkOrder
	err := r.coll.mutate(ctx, &orders, func() error {
		for i, existing := range orders {
			if existing.ID == wo.ID {
				orders[i] = wo.Clone()
				return nil
			}
		}
		return fmt.Errorf("no work order found for id %s", wo.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}
	return nil
}

// ===== SALES ORDERS =====

type redisSalesOrderRepository struct {
	coll *redisCollection
}

var _ SalesOrderRepository = (*redisSalesOrderRepository)(nil)

func (r *redisSalesOrderRepository) Create(ctx context.Context, so *models.SalesOrder) error {
	var orders []*models.SalesOrder
	err := r.coll.mutate(ctx, &orders, func() error {
		for _, existing := range orders {
			if existing.ID == so.ID {
				return fmt.Errorf("sales order %s already exists", so.ID)
			}
		}
		orders = append(orders, cloneSalesOrder(so))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create sales order: %w", err)
	}
	return nil
}

func (r *redisSalesOrderRepository) GetByID(ctx context.Context, id string) (*models.SalesOrder, error) {
	var orders []*models.SalesOrder
	if err := r.coll.load(ctx, &orders); err != nil {
		return nil, err
	}
	for _, so := range orders {
		if so.ID == id {
			return so, nil
		}
	}
	return nil, nil
}

func (r *redisSalesOrderRepository) List(ctx context.Context) ([]*models.SalesOrder, error) {
	var orders []*models.SalesOrder
	if err := r.coll.load(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
