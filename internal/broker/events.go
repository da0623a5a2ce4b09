package broker

import (
	"context"

	"storebot/internal/models"
)

// EventPublisher publishes reconciliation events for downstream consumers
// (fulfillment, analytics). The bot itself does not consume them.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPaid publishes an OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.producer.PublishEvent(ctx, event.CorrelationID, event)
}

// PublishOrderFailed publishes an OrderFailed event
func (ep *EventPublisher) PublishOrderFailed(ctx context.Context, event *models.OrderFailedEvent) error {
	return ep.producer.PublishEvent(ctx, event.CorrelationID, event)
}
