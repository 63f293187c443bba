package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of the last manual adjustment applied to a stock item
type TransactionType string

const (
	TransactionAdd    TransactionType = "add"
	TransactionReduce TransactionType = "reduce"
)

// Defaults applied when a stock item is created without explicit levels
const (
	DefaultMinStock     = 10.0
	DefaultMaxStock     = 100.0
	DefaultCurrentStock = 0.0

	// criticalRatio marks an item critical once it falls to half its minimum
	criticalRatio = 0.5
)

// StockItem maps the store_stock table (storeStock collection)
type StockItem struct {
	ID                  string          `json:"id" db:"id"`
	Code                string          `json:"code" db:"code"`
	Material            string          `json:"material" db:"material"`
	Description         string          `json:"description" db:"description"`
	Category            string          `json:"category" db:"category"`
	Unit                string          `json:"unit" db:"unit"`
	CurrentStock        float64         `json:"current_stock" db:"current_stock"`
	MinStock            float64         `json:"min_stock" db:"min_stock"`
	MaxStock            float64         `json:"max_stock" db:"max_stock"`
	Location            string          `json:"location" db:"location"`
	Supplier            string          `json:"supplier" db:"supplier"`
	CostPerUnit         decimal.Decimal `json:"cost_per_unit" db:"cost_per_unit"`
	LastTransactionType TransactionType `json:"last_transaction_type,omitempty" db:"last_transaction_type"`
	LastTransactionQty  float64         `json:"last_transaction_qty,omitempty" db:"last_transaction_qty"`
	LastTransactionDate *time.Time      `json:"last_transaction_date,omitempty" db:"last_transaction_date"`
	Revision            int64           `json:"revision" db:"revision"`
	LastUpdated         time.Time       `json:"last_updated" db:"last_updated"`
}

// IsLow reports currentStock <= minStock
func (s *StockItem) IsLow() bool {
	return s.CurrentStock <= s.MinStock
}

// IsCritical reports currentStock <= minStock * 0.5
func (s *StockItem) IsCritical() bool {
	return s.CurrentStock <= s.MinStock*criticalRatio
}

// Value is the inventory valuation of the item at its unit cost
func (s *StockItem) Value() decimal.Decimal {
	return s.CostPerUnit.Mul(decimal.NewFromFloat(s.CurrentStock))
}

// Clone returns a copy safe to mutate without touching the stored record
func (s *StockItem) Clone() *StockItem {
	c := *s
	if s.LastTransactionDate != nil {
		d := *s.LastTransactionDate
		c.LastTransactionDate = &d
	}
	return &c
}

// LowStockItem is a StockItem flagged by the low-stock listing
type LowStockItem struct {
	StockItem
	IsCritical bool    `json:"is_critical"`
	Deficit    float64 `json:"deficit"`
}

// StockSummary aggregates the ledger for the dashboard header
type StockSummary struct {
	TotalItems    int             `json:"total_items"`
	LowStock      int             `json:"low_stock"`
	CriticalStock int             `json:"critical_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ByCategory    map[string]int  `json:"by_category"`
	Timestamp     string          `json:"timestamp"`
}

// DefaultStockItems is the bootstrap seed applied when storeStock is empty.
// Ids and timestamps are assigned at seed time.
func DefaultStockItems() []StockItem {
	return []StockItem{
		{
			Code:         "STL-001",
			Material:     "Steel Plate",
			Description:  "Mild steel plate 5mm",
			Category:     "Raw Material",
			Unit:         "kg",
			CurrentStock: 150,
			MinStock:     50,
			MaxStock:     500,
			Location:     "Rack A-1",
			Supplier:     "Tata Steel",
			CostPerUnit:  decimal.RequireFromString("65.50"),
		},
		{
			Code:         "ALU-001",
			Material:     "Aluminum Sheet",
			Description:  "Aluminium sheet 2mm",
			Category:     "Raw Material",
			Unit:         "sheets",
			CurrentStock: 80,
			MinStock:     30,
			MaxStock:     300,
			Location:     "Rack A-2",
			Supplier:     "Hindalco",
			CostPerUnit:  decimal.RequireFromString("420.00"),
		},
		{
			Code:         "PLS-001",
			Material:     "Plastic Raw Material",
			Description:  "ABS granules",
			Category:     "Raw Material",
			Unit:         "kg",
			CurrentStock: 200,
			MinStock:     100,
			MaxStock:     1000,
			Location:     "Bay B-1",
			Supplier:     "Reliance Polymers",
			CostPerUnit:  decimal.RequireFromString("110.00"),
		},
		{
			Code:         "FST-M6",
			Material:     "Fasteners",
			Description:  "M6 bolts and nuts",
			Category:     "Hardware",
			Unit:         "pcs",
			CurrentStock: 25,
			MinStock:     50,
			MaxStock:     500,
			Location:     "Bin C-4",
			Supplier:     "Sundram Fasteners",
			CostPerUnit:  decimal.RequireFromString("2.75"),
		},
		{
			Code:         "BRG-6204",
			Material:     "Bearings",
			Description:  "6204 deep groove ball bearing",
			Category:     "Hardware",
			Unit:         "pcs",
			CurrentStock: 40,
			MinStock:     20,
			MaxStock:     200,
			Location:     "Bin C-7",
			Supplier:     "SKF",
			CostPerUnit:  decimal.RequireFromString("185.00"),
		},
	}
}
