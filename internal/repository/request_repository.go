package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"store-service/internal/apperror"
	"store-service/internal/models"
)

const requestColumns = `id, type, shape, single, items, work_order_id, sales_order_id,
	stock_item_id, client_name, priority, status, requested_at, requested_by,
	processed_at, processed_by, remarks`

// requestRepository is the postgres implementation of RequestRepository
type requestRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

var _ RequestRepository = (*requestRepository)(nil)

func NewRequestRepository(db *sql.DB) (RequestRepository, error) {
	repo := &requestRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *requestRepository) prepareStatements() error {
	statements := map[string]string{
		"create_request": `
			INSERT INTO material_requests
			(` + requestColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`,
		"get_request": `
			SELECT ` + requestColumns + `
			FROM material_requests
			WHERE id = $1
		`,
		"update_request": `
			UPDATE material_requests
			SET status = $3, processed_at = $4, processed_by = $5, remarks = $6, priority = $7
			WHERE id = $1 AND status = $2
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

func scanRequest(row rowScanner) (*models.MaterialRequest, error) {
	var req models.MaterialRequest
	var single, items []byte
	var processedAt sql.NullTime
	var reqType, shape, priority, status string

	err := row.Scan(
		&req.ID, &reqType, &shape, &single, &items, &req.WorkOrderID, &req.SalesOrderID,
		&req.StockItemID, &req.ClientName, &priority, &status, &req.RequestedAt,
		&req.RequestedBy, &processedAt, &req.ProcessedBy, &req.Remarks,
	)
	if err != nil {
		return nil, err
	}

	req.Type = models.RequestType(reqType)
	req.Shape = models.RequestShape(shape)
	req.Priority = models.Priority(priority)
	req.Status = models.RequestStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		req.ProcessedAt = &t
	}
	if len(single) > 0 {
		if err := json.Unmarshal(single, &req.Single); err != nil {
			return nil, fmt.Errorf("failed to decode single material: %w", err)
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &req.Items); err != nil {
			return nil, fmt.Errorf("failed to decode request items: %w", err)
		}
	}
	return &req, nil
}

// nullJSON marshals v for a JSONB column, mapping empty values to SQL NULL.
// lib/pq sends []byte as bytea, so the document travels as a string.
func nullJSON(v interface{}, empty bool) (interface{}, error) {
	if empty {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *requestRepository) Create(ctx context.Context, req *models.MaterialRequest) error {
	single, err := nullJSON(req.Single, req.Single == nil)
	if err != nil {
		return fmt.Errorf("failed to encode single material: %w", err)
	}
	items, err := nullJSON(req.Items, len(req.Items) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode request items: %w", err)
	}

	_, err = r.stmts["create_request"].ExecContext(ctx,
		req.ID, string(req.Type), string(req.Shape), single, items, req.WorkOrderID,
		req.SalesOrderID, req.StockItemID, req.ClientName, string(req.Priority),
		string(req.Status), req.RequestedAt, req.RequestedBy, req.ProcessedAt,
		req.ProcessedBy, req.Remarks,
	)
	if err != nil {
		return fmt.Errorf("failed to create material request: %w", err)
	}

	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	req, err := scanRequest(r.stmts["get_request"].QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material request: %w", err)
	}
	return req, nil
}

// List builds the WHERE clause from the set filter fields
func (r *requestRepository) List(ctx context.Context, filter models.RequestFilter) ([]*models.MaterialRequest, error) {
	var conditions []string
	var args []interface{}

	add := func(column string, value string) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.Type != nil {
		add("type", string(*filter.Type))
	}
	if filter.WorkOrderID != nil {
		add("work_order_id", *filter.WorkOrderID)
	}
	if filter.StockItemID != nil {
		add("stock_item_id", *filter.StockItemID)
	}

	query := "SELECT " + requestColumns + " FROM material_requests"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY requested_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list material requests: %w", err)
	}
	defer rows.Close()

	var result []*models.MaterialRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material request: %w", err)
		}
		result = append(result, req)
	}

	return result, rows.Err()
}

// Update only touches the transition fields; the request body is immutable after creation
func (r *requestRepository) Update(ctx context.Context, req *models.MaterialRequest, expected models.RequestStatus) error {
	result, err := r.stmts["update_request"].ExecContext(ctx,
		req.ID, string(expected), string(req.Status), req.ProcessedAt, req.ProcessedBy,
		req.Remarks, string(req.Priority),
	)
	if err != nil {
		return fmt.Errorf("failed to update material request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("material request %s is no longer %s: %w", req.ID, expected, apperror.ErrRevisionMismatch)
	}

	return nil
}

// consumptionRepository is the postgres implementation of ConsumptionRepository.
// It exposes no update or delete statement.
type consumptionRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

var _ ConsumptionRepository = (*consumptionRepository)(nil)

func NewConsumptionRepository(db *sql.DB) (ConsumptionRepository, error) {
	repo := &consumptionRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	stmt, err := db.Prepare(`
		INSERT INTO consumption_records
		(id, request_id, work_order_id, sales_order_id, issued_at, issued_by, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	repo.stmts["append_consumption"] = stmt

	return repo, nil
}

func (r *consumptionRepository) Append(ctx context.Context, record *models.ConsumptionRecord) error {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to encode consumption items: %w", err)
	}

	_, err = r.stmts["append_consumption"].ExecContext(ctx,
		record.ID, record.RequestID, record.WorkOrderID, record.SalesOrderID,
		record.IssuedAt, record.IssuedBy, string(items),
	)
	if err != nil {
		return fmt.Errorf("failed to append consumption record: %w", err)
	}

	return nil
}

func (r *consumptionRepository) List(ctx context.Context, filter models.ConsumptionFilter) ([]*models.ConsumptionRecord, error) {
	var conditions []string
	var args []interface{}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}
	if filter.RequestID != nil {
		add("request_id = $%d", *filter.RequestID)
	}
	if filter.WorkOrderID != nil {
		add("work_order_id = $%d", *filter.WorkOrderID)
	}
	if filter.From != nil {
		add("issued_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("issued_at <= $%d", *filter.To)
	}

	query := `SELECT id, request_id, work_order_id, sales_order_id, issued_at, issued_by, items
		FROM consumption_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY issued_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption records: %w", err)
	}
	defer rows.Close()

	var result []*models.ConsumptionRecord
	for rows.Next() {
		var record models.ConsumptionRecord
		var items []byte
		err := rows.Scan(
			&record.ID, &record.RequestID, &record.WorkOrderID, &record.SalesOrderID,
			&record.IssuedAt, &record.IssuedBy, &items,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consumption record: %w", err)
		}
		if err := json.Unmarshal(items, &record.Items); err != nil {
			return nil, fmt.Errorf("failed to decode consumption items: %w", err)
		}
		// material is matched in Go; items live in a JSONB column
		if filter.Matches(&record) {
			result = append(result, &record)
		}
	}

	return result, rows.Err()
}
