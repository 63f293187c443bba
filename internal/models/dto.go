package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// CreateStockItemRequest DTO for adding a stock item. Nil numeric fields take the ledger defaults.
type CreateStockItemRequest struct {
	Code         string           `json:"code" validate:"required"`
	Material     string           `json:"material" validate:"required"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Unit         string           `json:"unit"`
	CurrentStock *float64         `json:"current_stock" validate:"omitempty,gte=0"`
	MinStock     *float64         `json:"min_stock" validate:"omitempty,gte=0"`
	MaxStock     *float64         `json:"max_stock" validate:"omitempty,gte=0"`
	Location     string           `json:"location"`
	Supplier     string           `json:"supplier"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
}

// AdjustStockRequest DTO for a manual add/reduce transaction
type AdjustStockRequest struct {
	Quantity float64         `json:"quantity" validate:"required,gt=0"`
	Type     TransactionType `json:"type" validate:"required,oneof=add reduce"`
}

// RejectRequestRequest DTO for rejecting a material request
type RejectRequestRequest struct {
	Remarks string `json:"remarks" validate:"required"`
}

// DeriveRequirementsRequest DTO for a dry-run derivation
type DeriveRequirementsRequest struct {
	LineItems []LineItem `json:"line_items" validate:"required"`
}

// CreateSalesOrderRequest DTO for registering a sales order
type CreateSalesOrderRequest struct {
	OrderNumber string     `json:"order_number" validate:"required"`
	ClientName  string     `json:"client_name" validate:"required"`
	LineItems   []LineItem `json:"line_items" validate:"required,min=1"`
}

// CreateWorkOrderRequest DTO for creating a work order. When SalesOrderID is set the
// line items and client are taken from the sales order.
type CreateWorkOrderRequest struct {
	SalesOrderID string     `json:"sales_order_id"`
	ClientName   string     `json:"client_name" validate:"required_without=SalesOrderID"`
	LineItems    []LineItem `json:"line_items" validate:"required_without=SalesOrderID"`
}

// ===== RESPONSE DTOs =====

// AdjustStockResponse payload for an adjustment
type AdjustStockResponse struct {
	Item          *StockItem `json:"item"`
	PreviousStock float64    `json:"previous_stock"`
	Warning       string     `json:"warning,omitempty"`
}

// ApprovalResult payload returned by an approval
type ApprovalResult struct {
	Request     *MaterialRequest   `json:"request"`
	Consumption *ConsumptionRecord `json:"consumption"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// ReorderScanResult payload of a reorder scan
type ReorderScanResult struct {
	Created   []*MaterialRequest `json:"created"`
	Skipped   []string           `json:"skipped,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// WorkOrderResult payload of a work order creation
type WorkOrderResult struct {
	WorkOrder *WorkOrder       `json:"work_order"`
	Request   *MaterialRequest `json:"material_request,omitempty"`
}
