package store

import (
	"context"
	"database/sql"
	"fmt"

	"paygate/internal/models"
)

// TransitionExtra carries the optional columns written alongside a status
// transition. Zero-valued fields leave the stored column untouched.
type TransitionExtra struct {
	ProviderTradeNo string
	ProviderStatus  string
	PayMethod       string
}

// CreateOrder inserts a new pending order. A duplicate order_no maps to
// ErrDuplicateOrderNo so callers can regenerate and retry.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_no, client_id, amount, pay_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, order, query,
		order.OrderNo, order.ClientID, order.Amount, order.PayMethod, order.Status)
	if isUniqueViolation(err) {
		return fmt.Errorf("create order %s: %w", order.OrderNo, ErrDuplicateOrderNo)
	}
	return err
}

// GetOrderByOrderNo retrieves an order by its merchant order number
func (s *Store) GetOrderByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_no = $1", orderNo)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", orderNo, ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionStatus atomically moves the order from expected to next status,
// writing the extra columns in the same statement. It reports whether the
// transition applied; false means the stored status no longer matched, i.e.
// a concurrent caller won the race. This single conditional UPDATE is the
// only mutation path for order status.
func (s *Store) TransitionStatus(ctx context.Context, orderNo, expected, next string, extra TransitionExtra) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1,
		    provider_trade_no = COALESCE(NULLIF($2, ''), provider_trade_no),
		    provider_status   = COALESCE(NULLIF($3, ''), provider_status),
		    pay_method        = COALESCE(NULLIF($4, ''), pay_method),
		    updated_at = NOW()
		WHERE order_no = $5 AND status = $6`

	res, err := s.db.ExecContext(ctx, query,
		next, extra.ProviderTradeNo, extra.ProviderStatus, extra.PayMethod, orderNo, expected)
	if err != nil {
		return false, fmt.Errorf("transition %s %s->%s: %w", orderNo, expected, next, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetOrdersByClientID retrieves recent orders for a client
func (s *Store) GetOrdersByClientID(ctx context.Context, clientID string, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2",
		clientID, limit)
	return orders, err
}
