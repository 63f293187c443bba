package models

import (
	"fmt"
	"time"
)

// RequestType distinguishes why a material request exists
type RequestType string

const (
	RequestTypeShortfall RequestType = "shortfall"
	RequestTypeReorder   RequestType = "reorder"
)

// RequestShape is the discriminator of the MaterialRequest variant
type RequestShape string

const (
	ShapeSingle RequestShape = "single"
	ShapeMulti  RequestShape = "multi"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ApprovalRemarks is written on every approved request
const ApprovalRemarks = "Stock available"

// SingleMaterial is the payload of a single-material request
type SingleMaterial struct {
	Material     string  `json:"material"`
	RequiredQty  float64 `json:"required_qty"`
	CurrentStock float64 `json:"current_stock"`
	Unit         string  `json:"unit"`
}

// RequestItem is one line of a multi-item request
type RequestItem struct {
	Material     string  `json:"material"`
	Description  string  `json:"description,omitempty"`
	RequiredQty  float64 `json:"required_qty"`
	AvailableQty float64 `json:"available_qty"`
	Unit         string  `json:"unit"`
	StockCode    string  `json:"stock_code,omitempty"`
}

// RequestLine is the shape-independent view of a request line
type RequestLine struct {
	Material     string
	RequiredQty  float64
	AvailableQty float64
	Unit         string
}

// Shortfall is requiredQty - availableQty, floored at zero
func (l RequestLine) Shortfall() float64 {
	if d := l.RequiredQty - l.AvailableQty; d > 0 {
		return d
	}
	return 0
}

// MaterialRequest maps the material_requests table (materialRequests collection).
// Exactly one of Single or Items is populated, as named by Shape.
type MaterialRequest struct {
	ID           string          `json:"id" db:"id"`
	Type         RequestType     `json:"type" db:"type"`
	Shape        RequestShape    `json:"shape" db:"shape"`
	Single       *SingleMaterial `json:"single,omitempty" db:"single"`
	Items        []RequestItem   `json:"items,omitempty" db:"items"`
	WorkOrderID  string          `json:"work_order_id,omitempty" db:"work_order_id"`
	SalesOrderID string          `json:"sales_order_id,omitempty" db:"sales_order_id"`
	StockItemID  string          `json:"stock_item_id,omitempty" db:"stock_item_id"`
	ClientName   string          `json:"client_name,omitempty" db:"client_name"`
	Priority     Priority        `json:"priority" db:"priority"`
	Status       RequestStatus   `json:"status" db:"status"`
	RequestedAt  time.Time       `json:"requested_at" db:"requested_at"`
	RequestedBy  string          `json:"requested_by" db:"requested_by"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	ProcessedBy  string          `json:"processed_by,omitempty" db:"processed_by"`
	Remarks      string          `json:"remarks,omitempty" db:"remarks"`
}

// Lines normalizes both request shapes into request lines
func (r *MaterialRequest) Lines() []RequestLine {
	switch r.Shape {
	case ShapeSingle:
		if r.Single == nil {
			return nil
		}
		return []RequestLine{{
			Material:     r.Single.Material,
			RequiredQty:  r.Single.RequiredQty,
			AvailableQty: r.Single.CurrentStock,
			Unit:         r.Single.Unit,
		}}
	case ShapeMulti:
		lines := make([]RequestLine, 0, len(r.Items))
		for _, item := range r.Items {
			lines = append(lines, RequestLine{
				Material:     item.Material,
				RequiredQty:  item.RequiredQty,
				AvailableQty: item.AvailableQty,
				Unit:         item.Unit,
			})
		}
		return lines
	}
	return nil
}

func (r *MaterialRequest) IsPending() bool {
	return r.Status == StatusPending
}

// CheckShape verifies the discriminator agrees with the populated variant
func (r *MaterialRequest) CheckShape() error {
	switch r.Shape {
	case ShapeSingle:
		if r.Single == nil || len(r.Items) > 0 {
			return fmt.Errorf("request %s: single shape requires exactly one material and no items", r.ID)
		}
	case ShapeMulti:
		if r.Single != nil || len(r.Items) == 0 {
			return fmt.Errorf("request %s: multi shape requires items and no single material", r.ID)
		}
	default:
		return fmt.Errorf("request %s: unknown shape %q", r.ID, r.Shape)
	}
	return nil
}

// Clone returns a deep copy
func (r *MaterialRequest) Clone() *MaterialRequest {
	c := *r
	if r.Single != nil {
		s := *r.Single
		c.Single = &s
	}
	if r.Items != nil {
		c.Items = append([]RequestItem(nil), r.Items...)
	}
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

// RequestFilter filters for request listings
type RequestFilter struct {
	Status      *RequestStatus `json:"status,omitempty"`
	Type        *RequestType   `json:"type,omitempty"`
	WorkOrderID *string        `json:"work_order_id,omitempty"`
	StockItemID *string        `json:"stock_item_id,omitempty"`
}

// Matches reports whether r passes every set filter
func (f RequestFilter) Matches(r *MaterialRequest) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Type != nil && r.Type != *f.Type {
		return false
	}
	if f.WorkOrderID != nil && r.WorkOrderID != *f.WorkOrderID {
		return false
	}
	if f.StockItemID != nil && r.StockItemID != *f.StockItemID {
		return false
	}
	return true
}
