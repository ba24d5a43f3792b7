package rabbitmq

import (
	"encoding/json"
	"fmt"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// orderEvent holds the fields shared by every order event.
type orderEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// LogOrderEvents returns a handler that logs each order event it receives.
// Messages that are not valid order events are reported as errors.
func LogOrderEvents(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event orderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode %s event: %w", msg.RoutingKey, err)
		}
		if event.OrderID == "" {
			return fmt.Errorf("%s event without order_id", msg.RoutingKey)
		}
		logger.Info("order event received",
			zap.String("event", msg.RoutingKey),
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
		)
		return nil
	}
}
