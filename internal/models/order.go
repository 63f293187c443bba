package models

import (
	"time"
)

// Work order status values written back by the ledger
const (
	WorkOrderPendingMaterial    = "Pending Material"
	WorkOrderReadyForProduction = "Ready for Production"
	WorkOrderMaterialRejected   = "Material Rejected"
)

// LineItem is an order line as entered on the sales order
type LineItem struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
}

// SalesOrder maps the sales_orders table. Only the fields the ledger reads are kept.
type SalesOrder struct {
	ID          string     `json:"id" db:"id"`
	OrderNumber string     `json:"order_number" db:"order_number"`
	ClientName  string     `json:"client_name" db:"client_name"`
	LineItems   []LineItem `json:"line_items" db:"line_items"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// WorkOrder maps the work_orders table
type WorkOrder struct {
	ID                    string                `json:"id" db:"id"`
	SalesOrderID          string                `json:"sales_order_id,omitempty" db:"sales_order_id"`
	ClientName            string                `json:"client_name" db:"client_name"`
	LineItems             []LineItem            `json:"line_items" db:"line_items"`
	Status                string                `json:"status" db:"status"`
	MaterialRequestID     string                `json:"material_request_id,omitempty" db:"material_request_id"`
	MaterialRequestStatus RequestStatus         `json:"material_request_status,omitempty" db:"material_request_status"`
	HasMaterialRequest    bool                  `json:"has_material_request" db:"has_material_request"`
	MaterialRequirements  []MaterialRequirement `json:"material_requirements" db:"material_requirements"`
	RequiredOperations    []string              `json:"required_operations" db:"required_operations"`
	CreatedAt             time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy
func (w *WorkOrder) Clone() *WorkOrder {
	c := *w
	c.LineItems = append([]LineItem(nil), w.LineItems...)
	c.MaterialRequirements = append([]MaterialRequirement(nil), w.MaterialRequirements...)
	c.RequiredOperations = append([]string(nil), w.RequiredOperations...)
	return &c
}
