package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"store-service/internal/config"
	"store-service/internal/models"

	"go.uber.org/zap"
)

const workOrderColumns = `id, sales_order_id, client_name, line_items, status, material_request_id,
	material_request_status, has_material_request, material_requirements,
	required_operations, created_at, updated_at`

// workOrderRepository is the postgres implementation of WorkOrderRepository
type workOrderRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

var _ WorkOrderRepository = (*workOrderRepository)(nil)

func NewWorkOrderRepository(db *sql.DB, logger *zap.Logger) (WorkOrderRepository, error) {
	repo := &workOrderRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *workOrderRepository) prepareStatements() error {
	statements := map[string]string{
		"create_work_order": `
			INSERT INTO work_orders
			(` + workOrderColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
		"get_work_order": `
			SELECT ` + workOrderColumns + `
			FROM work_orders
			WHERE id = $1
		`,
		"list_work_orders": `
			SELECT ` + workOrderColumns + `
			FROM work_orders
			ORDER BY created_at, id
		`,
		"update_work_order": `
			UPDATE work_orders
			SET status = $2, material_request_id = $3, material_request_status = $4,
				has_material_request = $5, material_requirements = $6,
				required_operations = $7, updated_at = $8
			WHERE id = $1
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

// workOrderDocs holds the JSONB columns of a work order
type workOrderDocs struct {
	lineItems    string
	requirements string
	operations   string
}

func encodeWorkOrder(wo *models.WorkOrder) (*workOrderDocs, error) {
	lineItems, err := json.Marshal(nonNilLineItems(wo.LineItems))
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}
	requirements := wo.MaterialRequirements
	if requirements == nil {
		requirements = []models.MaterialRequirement{}
	}
	reqs, err := json.Marshal(requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode material requirements: %w", err)
	}
	operations := wo.RequiredOperations
	if operations == nil {
		operations = []string{}
	}
	ops, err := json.Marshal(operations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode required operations: %w", err)
	}
	return &workOrderDocs{lineItems: string(lineItems), requirements: string(reqs), operations: string(ops)}, nil
}

func nonNilLineItems(items []models.LineItem) []models.LineItem {
	if items == nil {
		return []models.LineItem{}
	}
	return items
}

func scanWorkOrder(row rowScanner) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	var lineItems, requirements, operations []byte
	var requestStatus string

	err := row.Scan(
		&wo.ID, &wo.SalesOrderID, &wo.ClientName, &lineItems, &wo.Status,
		&wo.MaterialRequestID, &requestStatus, &wo.HasMaterialRequest, &requirements,
		&operations, &wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	wo.MaterialRequestStatus = models.RequestStatus(requestStatus)
	if err := json.Unmarshal(lineItems, &wo.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if err := json.Unmarshal(requirements, &wo.MaterialRequirements); err != nil {
		return nil, fmt.Errorf("failed to decode material requirements: %w", err)
	}
	if err := json.Unmarshal(operations, &wo.RequiredOperations); err != nil {
		return nil, fmt.Errorf("failed to decode required operations: %w", err)
	}
	return &wo, nil
}

func (r *workOrderRepository) Create(ctx context.Context, wo *models.WorkOrder) error {
	docs, err := encodeWorkOrder(wo)
	if err != nil {
		return err
	}

	_, err = r.stmts["create_work_order"].ExecContext(ctx,
		wo.ID, wo.SalesOrderID, wo.ClientName, docs.lineItems, wo.Status,
		wo.MaterialRequestID, string(wo.MaterialRequestStatus), wo.HasMaterialRequest,
		docs.requirements, docs.operations, wo.CreatedAt, wo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}

	r.logger.Debug("Work order stored", zap.String("work_order_id", wo.ID))
	return nil
}

func (r *workOrderRepository) GetByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	wo, err := scanWorkOrder(r.stmts["get_work_order"].QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return wo, nil
}

func (r *workOrderRepository) List(ctx context.Context) ([]*models.WorkOrder, error) {
	rows, err := r.stmts["list_work_orders"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()

	var result []*models.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		result = append(result, wo)
	}

	return result, rows.Err()
}

// Update writes back the fields the ledger owns on a work order
func (r *workOrderRepository) Update(ctx context.Context, wo *models.WorkOrder) error {
	docs, err := encodeWorkOrder(wo)
	if err != nil {
		return err
	}

	result, err := r.stmts["update_work_order"].ExecContext(ctx,
		wo.ID, wo.Status, wo.MaterialRequestID, string(wo.MaterialRequestStatus),
		wo.HasMaterialRequest, docs.requirements, docs.operations, wo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no work order found for id %s", wo.ID)
	}

	r.logger.Debug("Work order updated",
		zap.String("work_order_id", wo.ID),
		zap.String("status", wo.Status))
	return nil
}

// salesOrderRepository is the postgres implementation of SalesOrderRepository
type salesOrderRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

var _ SalesOrderRepository = (*salesOrderRepository)(nil)

func NewSalesOrderRepository(db *sql.DB) (SalesOrderRepository, error) {
	repo := &salesOrderRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	statements := map[string]string{
		"create_sales_order": `
			INSERT INTO sales_orders (id, order_number, client_name, line_items, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`,
		"get_sales_order": `
			SELECT id, order_number, client_name, line_items, created_at
			FROM sales_orders
			WHERE id = $1
		`,
		"list_sales_orders": `
			SELECT id, order_number, client_name, line_items, created_at
			FROM sales_orders
			ORDER BY created_at, id
		`,
	}

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		repo.stmts[name] = stmt
	}

	return repo, nil
}

func scanSalesOrder(row rowScanner) (*models.SalesOrder, error) {
	var so models.SalesOrder
	var lineItems []byte

	if err := row.Scan(&so.ID, &so.OrderNumber, &so.ClientName, &lineItems, &so.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lineItems, &so.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return &so, nil
}

func (r *salesOrderRepository) Create(ctx context.Context, so *models.SalesOrder) error {
	lineItems, err := json.Marshal(nonNilLineItems(so.LineItems))
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	_, err = r.stmts["create_sales_order"].ExecContext(ctx,
		so.ID, so.OrderNumber, so.ClientName, string(lineItems), so.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sales order: %w", err)
	}

	return nil
}

func (r *salesOrderRepository) GetByID(ctx context.Context, id string) (*models.SalesOrder, error) {
	so, err := scanSalesOrder(r.stmts["get_sales_order"].QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sales order: %w", err)
	}
	return so, nil
}

func (r *salesOrderRepository) List(ctx context.Context) ([]*models.SalesOrder, error) {
	rows, err := r.stmts["list_sales_orders"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales orders: %w", err)
	}
	defer rows.Close()

	var result []*models.SalesOrder
	for rows.Next() {
		so, err := scanSalesOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales order: %w", err)
		}
		result = append(result, so)
	}

	return result, rows.Err()
}

// NewPostgresStore prepares every postgres repository on db
func NewPostgresStore(db *sql.DB, logger *zap.Logger) (*Store, error) {
	stock, err := NewStockRepository(db)
	if err != nil {
		return nil, fmt.Errorf("stock repository: %w", err)
	}
	requests, err := NewRequestRepository(db)
	if err != nil {
		return nil, fmt.Errorf("request repository: %w", err)
	}
	consumption, err := NewConsumptionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("consumption repository: %w", err)
	}
	workOrders, err := NewWorkOrderRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("work order repository: %w", err)
	}
	salesOrders, err := NewSalesOrderRepository(db)
	if err != nil {
		return nil, fmt.Errorf("sales order repository: %w", err)
	}

	return &Store{
		Backend:     config.BackendPostgres,
		Stock:       stock,
		Requests:    requests,
		Consumption: consumption,
		WorkOrders:  workOrders,
		SalesOrders: salesOrders,
	}, nil
}
