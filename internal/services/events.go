package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Routing keys of order events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher delivers an encoded event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderCreatedEvent is published once an order has committed.
type OrderCreatedEvent struct {
	OrderID     string             `json:"order_id"`
	SessionID   string             `json:"session_id"`
	UserID      *string            `json:"user_id,omitempty"`
	Status      string             `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []OrderCreatedLine `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// OrderCreatedLine is one line of an OrderCreatedEvent.
type OrderCreatedLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderStatusChangedEvent is published after a status update.
type OrderStatusChangedEvent struct {
	OrderID        string    `json:"order_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	ChangedAt      time.Time `json:"changed_at"`
}

// publish encodes and sends an event. Failures are logged and counted only:
// the state change the event describes has already been committed.
func (s *OrderService) publish(ctx context.Context, routingKey string, event any) {
	if s.publisher == nil {
		return
	}
	log := logging.FromContext(ctx)
	body, err := json.Marshal(event)
	if err == nil {
		err = s.publisher.Publish(routingKey, body)
	}
	if err != nil {
		s.metrics.PublishFailed(routingKey)
		log.Warn("failed to publish order event", zap.String("event", routingKey), zap.Error(err))
		return
	}
	log.Debug("order event published", zap.String("event", routingKey))
}
