package models

import (
	"database/sql"
	"time"
)

// Order represents one checkout attempt against the payment provider.
type Order struct {
	ID              int64          `db:"id" json:"id"`
	OrderNo         string         `db:"order_no" json:"order_no"`
	ProviderTradeNo sql.NullString `db:"provider_trade_no" json:"provider_trade_no,omitempty"`
	ClientID        string         `db:"client_id" json:"client_id"`
	Amount          string         `db:"amount" json:"amount"`
	PayMethod       string         `db:"pay_method" json:"pay_method"`
	ProviderStatus  sql.NullString `db:"provider_status" json:"provider_status,omitempty"`
	Status          string         `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Order statuses. Transitions are forward-only: pending -> paid -> analyzed.
const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusAnalyzed = "analyzed"
)

// Payment methods accepted at checkout
const (
	PayMethodAlipay = "alipay"
	PayMethodWxpay  = "wxpay"
)

// ValidPayMethod reports whether m is a recognized payment method.
func ValidPayMethod(m string) bool {
	return m == PayMethodAlipay || m == PayMethodWxpay
}
