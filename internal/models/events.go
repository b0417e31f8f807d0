package models

import "time"

// Event types
const (
	EventTypeOrderCreated  = "ORDER_CREATED"
	EventTypeOrderPaid     = "ORDER_PAID"
	EventTypeOrderAnalyzed = "ORDER_ANALYZED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a checkout order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderNo   string `json:"order_no"`
	ClientID  string `json:"client_id"`
	Amount    string `json:"amount"`
	PayMethod string `json:"pay_method"`
}

// OrderPaidEvent published when the provider webhook confirms payment
type OrderPaidEvent struct {
	BaseEvent
	OrderNo         string `json:"order_no"`
	ProviderTradeNo string `json:"provider_trade_no"`
	Amount          string `json:"amount"`
	PayMethod       string `json:"pay_method"`
}

// OrderAnalyzedEvent published when a paid order is consumed by the analysis gate
type OrderAnalyzedEvent struct {
	BaseEvent
	OrderNo  string `json:"order_no"`
	ClientID string `json:"client_id"`
}
