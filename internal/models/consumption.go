package models

import (
	"time"
)

// ConsumptionItem is one material issued out of stock. StockBefore and
// StockAfter record the ledger balance around the deduction.
type ConsumptionItem struct {
	Material    string  `json:"material" db:"material"`
	StockItemID string  `json:"stock_item_id" db:"stock_item_id"`
	StockCode   string  `json:"stock_code" db:"stock_code"`
	IssuedQty   float64 `json:"issued_qty" db:"issued_qty"`
	Unit        string  `json:"unit" db:"unit"`
	StockBefore float64 `json:"stock_before" db:"stock_before"`
	StockAfter  float64 `json:"stock_after" db:"stock_after"`
}

// ConsumptionRecord maps the consumption_records table (consumptionRecords collection).
// Written once when a request is approved, never updated.
type ConsumptionRecord struct {
	ID           string            `json:"id" db:"id"`
	RequestID    string            `json:"request_id" db:"request_id"`
	WorkOrderID  string            `json:"work_order_id,omitempty" db:"work_order_id"`
	SalesOrderID string            `json:"sales_order_id,omitempty" db:"sales_order_id"`
	IssuedAt     time.Time         `json:"issued_at" db:"issued_at"`
	IssuedBy     string            `json:"issued_by" db:"issued_by"`
	Items        []ConsumptionItem `json:"items" db:"items"`
}

// TotalIssued sums the issued quantity of every item
func (c *ConsumptionRecord) TotalIssued() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.IssuedQty
	}
	return total
}

// ConsumptionFilter filters for consumption listings
type ConsumptionFilter struct {
	RequestID   *string    `json:"request_id,omitempty"`
	WorkOrderID *string    `json:"work_order_id,omitempty"`
	Material    *string    `json:"material,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
}

// Matches reports whether c passes every set filter
func (f ConsumptionFilter) Matches(c *ConsumptionRecord) bool {
	if f.RequestID != nil && c.RequestID != *f.RequestID {
		return false
	}
	if f.WorkOrderID != nil && c.WorkOrderID != *f.WorkOrderID {
		return false
	}
	if f.From != nil && c.IssuedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && c.IssuedAt.After(*f.To) {
		return false
	}
	if f.Material != nil {
		for _, item := range c.Items {
			if item.Material == *f.Material {
				return true
			}
		}
		return false
	}
	return true
}
