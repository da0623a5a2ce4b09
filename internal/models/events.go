package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPaid   = "ORDER_PAID"
	EventTypeOrderFailed = "ORDER_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPaidEvent published when a gateway callback reconciles an order as paid
type OrderPaidEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	CorrelationID string          `json:"correlation_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Items         LineSnapshots   `json:"items"`
}

// OrderFailedEvent published when a gateway callback reports a failed payment
type OrderFailedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id,omitempty"`
	UserID        int64  `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
	GatewayStatus string `json:"gateway_status"`
}
