package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/pkg/logging"
	"storefront/internal/repositories"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderService turns carts into orders and manages existing orders.
type OrderService struct {
	tx        repositories.Transactor
	orders    repositories.OrderRepository
	carts     *CartService
	ledger    *StockLedger
	locker    *SessionLocker
	publisher EventPublisher
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(
	tx repositories.Transactor,
	orders repositories.OrderRepository,
	carts *CartService,
	ledger *StockLedger,
	locker *SessionLocker,
	publisher EventPublisher,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		carts:     carts,
		ledger:    ledger,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
	}
}

// CreateOrder converts the session's cart into a pending order. The order
// rows, the stock decrements and the cart clear commit together or not at
// all.
func (s *OrderService) CreateOrder(ctx context.Context, sessionID string, userID *string) (*models.Order, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()
	log := logging.FromContext(ctx).With(zap.String("session_id", sessionID))

	order, err := s.createOrder(ctx, sessionID, userID)
	outcome := checkoutOutcome(err)
	s.metrics.ObserveCheckout(outcome, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == metrics.OutcomeError {
			log.Error("order creation failed", zap.Error(err))
		} else {
			log.Info("order rejected", zap.String("outcome", outcome), zap.Error(err))
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)
	s.publish(ctx, EventOrderCreated, newOrderCreatedEvent(order))
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, sessionID string, userID *string) (*models.Order, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart for session %s: %w", sessionID, err)
	}
	defer unlock()

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, models.ErrEmptyCart
	}

	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			logging.FromContext(ctx).Error("failed to roll back order transaction", zap.Error(rbErr))
		}
	}()

	order := &models.Order{
		SessionID:   sessionID,
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: cart.TotalPrice,
	}
	if err := uow.Orders().Create(ctx, order); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Product == nil {
			return nil, &models.NotFoundError{Entity: "product", ID: line.ProductID}
		}
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}
	if err := uow.Orders().CreateItems(ctx, items); err != nil {
		return nil, err
	}

	ledger := s.ledger.Within(uow.Products())
	for _, line := range cart.Items {
		if _, err := ledger.CheckAvailable(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
		affected, err := ledger.ConditionalDecrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &models.StockConflictError{ProductID: line.ProductID, Requested: line.Quantity}
		}
	}

	if err := uow.Carts().DeleteBySession(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order %s: %w", order.ID, err)
	}

	return s.orders.GetByID(ctx, order.ID)
}

func checkoutOutcome(err error) string {
	var insufficient *models.InsufficientStockError
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case errors.Is(err, models.ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.As(err, &insufficient):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, models.ErrStockConflict):
		return metrics.OutcomeStockConflict
	case models.IsNotFound(err):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func newOrderCreatedEvent(order *models.Order) OrderCreatedEvent {
	lines := make([]OrderCreatedLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderCreatedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return OrderCreatedEvent{
		OrderID:     order.ID,
		SessionID:   order.SessionID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Items:       lines,
		CreatedAt:   order.CreatedAt,
	}
}

// ListOrders returns orders newest first. A non-empty userID selects that
// user's orders, otherwise a non-empty sessionID selects the session's
// orders, otherwise every order is returned.
func (s *OrderService) ListOrders(ctx context.Context, sessionID, userID string) ([]models.Order, error) {
	return s.orders.List(ctx, models.OrderFilter{SessionID: sessionID, UserID: userID})
}

// GetOrder retrieves a single order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UpdateOrderStatus sets the status of an order. Any known status may follow
// any other.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = next
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}

	logging.FromContext(ctx).Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	s.publish(ctx, EventOrderStatusChanged, OrderStatusChangedEvent{
		OrderID:        id,
		PreviousStatus: string(previous),
		Status:         string(next),
		ChangedAt:      order.UpdatedAt,
	})
	return order, nil
}
