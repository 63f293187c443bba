package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// schema creates the store collections as tables. Nested documents (request lines,
// consumption items, work order snapshots) are JSONB columns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS store_stock (
		id                    TEXT PRIMARY KEY,
		code                  TEXT NOT NULL UNIQUE,
		material              TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		category              TEXT NOT NULL DEFAULT '',
		unit                  TEXT NOT NULL DEFAULT '',
		current_stock         DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
		min_stock             DOUBLE PRECISION NOT NULL DEFAULT 10,
		max_stock             DOUBLE PRECISION NOT NULL DEFAULT 100,
		location              TEXT NOT NULL DEFAULT '',
		supplier              TEXT NOT NULL DEFAULT '',
		cost_per_unit         NUMERIC(14,4) NOT NULL DEFAULT 0,
		last_transaction_type TEXT NOT NULL DEFAULT '',
		last_transaction_qty  DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_transaction_date TIMESTAMPTZ,
		revision              BIGINT NOT NULL DEFAULT 1,
		last_updated          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_store_stock_material ON store_stock (material)`,
	`CREATE TABLE IF NOT EXISTS material_requests (
		id             TEXT PRIMARY KEY,
		type           TEXT NOT NULL,
		shape          TEXT NOT NULL,
		single         JSONB,
		items          JSONB,
		work_order_id  TEXT NOT NULL DEFAULT '',
		sales_order_id TEXT NOT NULL DEFAULT '',
		stock_item_id  TEXT NOT NULL DEFAULT '',
		client_name    TEXT NOT NULL DEFAULT '',
		priority       TEXT NOT NULL,
		status         TEXT NOT NULL,
		requested_at   TIMESTAMPTZ NOT NULL,
		requested_by   TEXT NOT NULL DEFAULT '',
		processed_at   TIMESTAMPTZ,
		processed_by   TEXT NOT NULL DEFAULT '',
		remarks        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_material_requests_status ON material_requests (status)`,
	`CREATE TABLE IF NOT EXISTS consumption_records (
		id             TEXT PRIMARY KEY,
		request_id     TEXT NOT NULL,
		work_order_id  TEXT NOT NULL DEFAULT '',
		sales_order_id TEXT NOT NULL DEFAULT '',
		issued_at      TIMESTAMPTZ NOT NULL,
		issued_by      TEXT NOT NULL DEFAULT '',
		items          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_records_request ON consumption_records (request_id)`,
	`CREATE TABLE IF NOT EXISTS sales_orders (
		id           TEXT PRIMARY KEY,
		order_number TEXT NOT NULL,
		client_name  TEXT NOT NULL,
		line_items   JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id                      TEXT PRIMARY KEY,
		sales_order_id          TEXT NOT NULL DEFAULT '',
		client_name             TEXT NOT NULL DEFAULT '',
		line_items              JSONB NOT NULL,
		status                  TEXT NOT NULL,
		material_request_id     TEXT NOT NULL DEFAULT '',
		material_request_status TEXT NOT NULL DEFAULT '',
		has_material_request    BOOLEAN NOT NULL DEFAULT FALSE,
		material_requirements   JSONB NOT NULL,
		required_operations     JSONB NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL,
		updated_at              TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	logger.Info("Database schema ready", zap.Int("statements", len(schema)))
	return nil
}
