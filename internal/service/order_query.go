package service

import (
	"context"

	"paygate/internal/models"
	"paygate/internal/util"

	"go.uber.org/zap"
)

// OrderQuery serves the status poll endpoint, preferring the write-through
// cache and falling back to the store on a miss.
type OrderQuery struct {
	store  OrderStore
	cache  StatusCache
	logger *zap.Logger
}

// NewOrderQuery creates a new order query service
func NewOrderQuery(store OrderStore, cache StatusCache) *OrderQuery {
	return &OrderQuery{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// GetStatus returns the current status and owning client for an order.
func (q *OrderQuery) GetStatus(ctx context.Context, orderNo string) (status, clientID string, err error) {
	if q.cache != nil {
		status, clientID, cacheErr := q.cache.GetOrderStatus(ctx, orderNo)
		if cacheErr != nil {
			q.logger.Warn("Status cache read failed", zap.Error(cacheErr))
		} else if status != "" {
			return status, clientID, nil
		}
	}

	order, err := q.store.GetOrderByOrderNo(ctx, orderNo)
	if err != nil {
		return "", "", err
	}

	if q.cache != nil {
		if err := q.cache.SetOrderStatus(ctx, order.OrderNo, order.Status, order.ClientID); err != nil {
			q.logger.Warn("Status cache backfill failed", zap.Error(err))
		}
	}

	return order.Status, order.ClientID, nil
}

// ListByClient returns the most recent orders owned by a client.
func (q *OrderQuery) ListByClient(ctx context.Context, clientID string, limit int) ([]models.Order, error) {
	return q.store.GetOrdersByClientID(ctx, clientID, limit)
}
