package models

import "time"

// EventType names a ledger event pushed to live subscribers
type EventType string

const (
	EventStockCreated     EventType = "stock.created"
	EventStockAdjusted    EventType = "stock.adjusted"
	EventStockDeleted     EventType = "stock.deleted"
	EventRequestCreated   EventType = "request.created"
	EventRequestApproved  EventType = "request.approved"
	EventRequestRejected  EventType = "request.rejected"
	EventConsumptionAdded EventType = "consumption.recorded"
	EventWorkOrderCreated EventType = "work_order.created"
	EventWorkOrderUpdated EventType = "work_order.updated"
)

// LedgerEvent is broadcast after a ledger mutation commits
type LedgerEvent struct {
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resource_id"`
	Operator   string      `json:"operator,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewLedgerEvent stamps an event with the current time
func NewLedgerEvent(t EventType, resourceID, operator string, data interface{}) LedgerEvent {
	return LedgerEvent{
		Type:       t,
		ResourceID: resourceID,
		Operator:   operator,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}
}
