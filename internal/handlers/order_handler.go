package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. optionalAuth identifies the
// user when a token is sent; authRequired guards status changes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, optionalAuth, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", optionalAuth, h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", optionalAuth, h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", authRequired, h.HandleUpdateOrderStatus)
}

// CreateOrderRequest is the optional body of an order creation.
type CreateOrderRequest struct {
	UserID string `json:"user_id"`
}

// UpdateOrderStatusRequest represents the request body for a status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleGetOrders lists the caller's orders: the authenticated user's when a
// token is sent, the session's otherwise.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), middleware.SessionID(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder converts the session's cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}

	var userID *string
	if id := middleware.UserID(c); id != "" {
		userID = &id
	} else if req.UserID != "" {
		userID = &req.UserID
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.SessionID(c), userID)
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateOrderStatusRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", order.ID, order.Status),
		"order":   order,
	})
}
