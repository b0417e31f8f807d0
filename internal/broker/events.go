package broker

import (
	"context"
	"fmt"

	"paygate/internal/models"
)

// EventPublisher handles publishing order lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.OrderNo), event)
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.OrderNo), event)
}

// PublishOrderAnalyzed publishes OrderAnalyzed event
func (ep *EventPublisher) PublishOrderAnalyzed(ctx context.Context, event *models.OrderAnalyzedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.OrderNo), event)
}

func eventKey(orderNo string) string {
	return fmt.Sprintf("order-%s", orderNo)
}
