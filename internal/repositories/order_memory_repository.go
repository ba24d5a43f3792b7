package repositories

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	scope memoryScope
}

// assemble copies an order together with its items and their products,
// including products deleted since the order was placed.
func assemble(d *memoryData, order models.Order) models.Order {
	stored := d.orderItems[order.ID]
	order.Items = make([]models.OrderItem, 0, len(stored))
	for _, item := range stored {
		if p, ok := d.products[item.ProductID]; ok {
			item.Product = &p
		}
		order.Items = append(order.Items, item)
	}
	if order.UserID != nil {
		uid := *order.UserID
		order.UserID = &uid
	}
	return order
}

// List returns orders matching the filter, newest first.
func (r *MemoryOrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := r.scope.run(ctx, func(d *memoryData) error {
		var ids []string
		for id, o := range d.orders {
			switch {
			case filter.UserID != "":
				if o.UserID == nil || *o.UserID != filter.UserID {
					continue
				}
			case filter.SessionID != "":
				if o.SessionID != filter.SessionID {
					continue
				}
			}
			ids = append(ids, id)
		}
		d.newerFirst(ids, func(id string) int64 { return d.orders[id].CreatedAt.UnixNano() })
		orders = make([]models.Order, 0, len(ids))
		for _, id := range ids {
			orders = append(orders, assemble(d, d.orders[id]))
		}
		return nil
	})
	return orders, err
}

// GetByID returns an order and its items.
func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.scope.run(ctx, func(d *memoryData) error {
		o, ok := d.orders[id]
		if !ok {
			return &models.NotFoundError{Entity: "order", ID: id}
		}
		order = assemble(d, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create adds the order row without its items.
func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		now := time.Now()
		order.CreatedAt = now
		order.UpdatedAt = now
		stored := *order
		stored.Items = nil
		d.orders[order.ID] = stored
		d.stamp(order.ID)
		return nil
	})
}

// CreateItems adds item snapshots to existing orders.
func (r *MemoryOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		for i := range items {
			if _, ok := d.orders[items[i].OrderID]; !ok {
				return &models.NotFoundError{Entity: "order", ID: items[i].OrderID}
			}
		}
		now := time.Now()
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
			items[i].CreatedAt = now
			stored := items[i]
			stored.Product = nil
			d.orderItems[stored.OrderID] = append(d.orderItems[stored.OrderID], stored)
		}
		return nil
	})
}

// Update persists the status of an order.
func (r *MemoryOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		existing, ok := d.orders[order.ID]
		if !ok {
			return &models.NotFoundError{Entity: "order", ID: order.ID}
		}
		existing.Status = order.Status
		existing.UpdatedAt = time.Now()
		order.UpdatedAt = existing.UpdatedAt
		d.orders[order.ID] = existing
		return nil
	})
}
