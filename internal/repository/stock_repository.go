package repository

import (
	"context"
	"database/sql"
	"fmt"

	"store-service/internal/apperror"
	"store-service/internal/models"
)

const stockColumns = `id, code, material, description, category, unit, current_stock, min_stock,
	max_stock, location, supplier, cost_per_unit, last_transaction_type, last_transaction_qty,
	last_transaction_date, revision, last_updated`

// stockRepository is the postgres implementation of StockRepository
type stockRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

var _ StockRepository = (*stockRepository)(nil)

// NewStockRepository prepares the store_stock statements
func NewStockRepository(db *sql.DB) (StockRepository, error) {
	repo := &stockRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *stockRepository) prepareStatements() error {
	statements := map[string]string{
		"list_stock": `
			SELECT ` + stockColumns + `
			FROM store_stock
			ORDER BY code
		`,
		"list_low_stock": `
			SELECT ` + stockColumns + `
			FROM store_stock
			WHERE current_stock <= min_stock
			ORDER BY current_stock ASC, code
		`,
		"get_stock": `
			SELECT ` + stockColumns + `
			FROM store_stock
			WHERE id = $1
		`,
		"get_stock_by_code": `
			SELECT ` + stockColumns + `
			FROM store_stock
			WHERE code = $1
		`,
		"get_stock_by_material": `
			SELECT ` + stockColumns + `
			FROM store_stock
			WHERE material = $1
			ORDER BY code
			LIMIT 1
		`,
		"count_stock": `SELECT COUNT(*) FROM store_stock`,
		"create_stock": `
			INSERT INTO store_stock
			(id, code, material, description, category, unit, current_stock, min_stock,
			 max_stock, location, supplier, cost_per_unit, last_transaction_type,
			 last_transaction_qty, last_transaction_date, revision, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16)
		`,
		"update_stock": `
			UPDATE store_stock
			SET code = $3, material = $4, description = $5, category = $6, unit = $7,
				current_stock = $8, min_stock = $9, max_stock = $10, location = $11,
				supplier = $12, cost_per_unit = $13, last_transaction_type = $14,
				last_transaction_qty = $15, last_transaction_date = $16,
				last_updated = $17, revision = revision + 1
			WHERE id = $1 AND revision = $2
		`,
		"exists_stock": `SELECT EXISTS(SELECT 1 FROM store_stock WHERE id = $1)`,
		"delete_stock": `DELETE FROM store_stock WHERE id = $1`,
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStockItem(row rowScanner) (*models.StockItem, error) {
	var item models.StockItem
	var txType string
	var txDate sql.NullTime

	err := row.Scan(
		&item.ID, &item.Code, &item.Material, &item.Description, &item.Category, &item.Unit,
		&item.CurrentStock, &item.MinStock, &item.MaxStock, &item.Location, &item.Supplier,
		&item.CostPerUnit, &txType, &item.LastTransactionQty, &txDate, &item.Revision,
		&item.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	item.LastTransactionType = models.TransactionType(txType)
	if txDate.Valid {
		t := txDate.Time
		item.LastTransactionDate = &t
	}
	return &item, nil
}

func (r *stockRepository) queryOne(ctx context.Context, stmt string, arg interface{}) (*models.StockItem, error) {
	item, err := scanStockItem(r.stmts[stmt].QueryRowContext(ctx, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return item, nil
}

func (r *stockRepository) queryMany(ctx context.Context, stmt string) ([]*models.StockItem, error) {
	rows, err := r.stmts[stmt].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	defer rows.Close()

	var items []*models.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *stockRepository) List(ctx context.Context) ([]*models.StockItem, error) {
	return r.queryMany(ctx, "list_stock")
}

func (r *stockRepository) ListLow(ctx context.Context) ([]*models.StockItem, error) {
	return r.queryMany(ctx, "list_low_stock")
}

func (r *stockRepository) GetByID(ctx context.Context, id string) (*models.StockItem, error) {
	return r.queryOne(ctx, "get_stock", id)
}

func (r *stockRepository) GetByCode(ctx context.Context, code string) (*models.StockItem, error) {
	return r.queryOne(ctx, "get_stock_by_code", code)
}

func (r *stockRepository) GetByMaterial(ctx context.Context, material string) (*models.StockItem, error) {
	return r.queryOne(ctx, "get_stock_by_material", material)
}

func (r *stockRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.stmts["count_stock"].QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stock: %w", err)
	}
	return count, nil
}

func (r *stockRepository) Create(ctx context.Context, item *models.StockItem) error {
	_, err := r.stmts["create_stock"].ExecContext(ctx,
		item.ID, item.Code, item.Material, item.Description, item.Category, item.Unit,
		item.CurrentStock, item.MinStock, item.MaxStock, item.Location, item.Supplier,
		item.CostPerUnit, string(item.LastTransactionType), item.LastTransactionQty,
		item.LastTransactionDate, item.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}

	item.Revision = 1
	return nil
}

// Update writes item guarded by its revision
func (r *stockRepository) Update(ctx context.Context, item *models.StockItem) error {
	if err := r.update(ctx, r.stmts["update_stock"], r.stmts["exists_stock"], item); err != nil {
		return err
	}
	item.Revision++
	return nil
}

// BatchUpdate writes every item in one transaction; a single stale revision rolls back all of them
func (r *stockRepository) BatchUpdate(ctx context.Context, items []*models.StockItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := tx.StmtContext(ctx, r.stmts["update_stock"])
	exists := tx.StmtContext(ctx, r.stmts["exists_stock"])

	for _, item := range items {
		if err := r.update(ctx, update, exists, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock batch: %w", err)
	}

	for _, item := range items {
		item.Revision++
	}
	return nil
}

func (r *stockRepository) update(ctx context.Context, update, exists *sql.Stmt, item *models.StockItem) error {
	result, err := update.ExecContext(ctx,
		item.ID, item.Revision, item.Code, item.Material, item.Description, item.Category,
		item.Unit, item.CurrentStock, item.MinStock, item.MaxStock, item.Location,
		item.Supplier, item.CostPerUnit, string(item.LastTransactionType),
		item.LastTransactionQty, item.LastTransactionDate, item.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock %s: %w", item.Code, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var found bool
		if err := exists.QueryRowContext(ctx, item.ID).Scan(&found); err != nil {
			return fmt.Errorf("failed to check stock %s: %w", item.ID, err)
		}
		if !found {
			return fmt.Errorf("no stock record found for id %s", item.ID)
		}
		return fmt.Errorf("stock item %s: %w", item.ID, apperror.ErrRevisionMismatch)
	}

	return nil
}

func (r *stockRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.stmts["delete_stock"].ExecContext(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
