package service

import (
	"context"

	"paygate/internal/models"
	"paygate/internal/store"
)

// OrderStore is the slice of the storage layer the services depend on.
// *store.Store implements it; tests substitute an in-memory fake.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderNo(ctx context.Context, orderNo string) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderNo, expected, next string, extra store.TransitionExtra) (bool, error)
	GetOrdersByClientID(ctx context.Context, clientID string, limit int) ([]models.Order, error)
}

// EventPublisher publishes order lifecycle events. Implemented by
// broker.EventPublisher; services treat a nil publisher as disabled.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderAnalyzed(ctx context.Context, event *models.OrderAnalyzedEvent) error
}

// StatusCache is the write-through cache backing the status poll endpoint.
// Implemented by redisclient.Client; nil disables caching.
type StatusCache interface {
	SetOrderStatus(ctx context.Context, orderNo, status, clientID string) error
	GetOrderStatus(ctx context.Context, orderNo string) (status, clientID string, err error)
}
