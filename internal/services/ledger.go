package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"store-service/internal/apperror"
	"store-service/internal/cache"
	"store-service/internal/models"
	"store-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher receives ledger events after a mutation commits
type EventPublisher interface {
	Publish(event models.LedgerEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.LedgerEvent) {}

// Options tweak the ledger core. Zero values select the defaults.
type Options struct {
	Cache  *cache.StockCache
	Events EventPublisher
	Now    func() time.Time
	NewID  func() string
}

// ledger is the state shared by every service. mu serializes all mutations in
// the process; revisions in the repositories catch writers in other processes.
type ledger struct {
	mu     sync.Mutex
	store  *repository.Store
	cache  *cache.StockCache
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func newLedger(store *repository.Store, logger *zap.Logger, opts Options) *ledger {
	l := &ledger{
		store:  store,
		cache:  opts.Cache,
		events: opts.Events,
		logger: logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if l.events == nil {
		l.events = nopPublisher{}
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
	return l
}

func (l *ledger) publish(t models.EventType, resourceID, operator string, data interface{}) {
	l.events.Publish(models.NewLedgerEvent(t, resourceID, operator, data))
}

func (l *ledger) invalidate(ctx context.Context, ids ...string) {
	if l.cache == nil {
		return
	}
	for _, id := range ids {
		l.cache.Invalidate(ctx, id)
	}
}

// writeErr turns a lost optimistic write into a ConflictError
func writeErr(err error, format string, args ...interface{}) error {
	if apperror.IsConflict(err) {
		return apperror.Conflict(format+": modified concurrently, reload and retry", args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Services bundles every ledger service over one store
type Services struct {
	Stock        StockService
	Requirements RequirementDeriver
	Requests     RequestService
	Consumption  ConsumptionService
	Reorder      ReorderService
	WorkOrders   WorkOrderService
	SalesOrders  SalesOrderService
}

func New(store *repository.Store, logger *zap.Logger, opts Options) *Services {
	l := newLedger(store, logger, opts)
	deriver := NewRequirementDeriver(store.Stock, logger)
	return &Services{
		Stock:        &stockService{ledger: l},
		Requirements: deriver,
		Requests:     &requestService{ledger: l},
		Consumption:  &consumptionService{ledger: l},
		Reorder:      &reorderService{ledger: l},
		WorkOrders:   &workOrderService{ledger: l, deriver: deriver},
		SalesOrders:  &salesOrderService{ledger: l},
	}
}
