package repositories

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryCartRepository is an in-memory implementation of CartRepository.
type MemoryCartRepository struct {
	scope memoryScope
}

// withProduct attaches a copy of the product, deleted or not, mirroring an
// unscoped eager load.
func withProduct(d *memoryData, item models.CartItem) models.CartItem {
	item.Product = nil
	if p, ok := d.products[item.ProductID]; ok {
		item.Product = &p
	}
	return item
}

// FindBySession returns the session's lines, newest first.
func (r *MemoryCartRepository) FindBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.scope.run(ctx, func(d *memoryData) error {
		var ids []string
		for id, item := range d.cartItems {
			if item.SessionID == sessionID {
				ids = append(ids, id)
			}
		}
		d.newerFirst(ids, func(id string) int64 { return d.cartItems[id].CreatedAt.UnixNano() })
		items = make([]models.CartItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, withProduct(d, d.cartItems[id]))
		}
		return nil
	})
	return items, err
}

// FindBySessionAndProduct returns the session's line for a product.
func (r *MemoryCartRepository) FindBySessionAndProduct(ctx context.Context, sessionID, productID string) (*models.CartItem, error) {
	return r.find(ctx, productID, func(item models.CartItem) bool {
		return item.SessionID == sessionID && item.ProductID == productID
	})
}

// FindByIDAndSession returns a line by ID, scoped to its session.
func (r *MemoryCartRepository) FindByIDAndSession(ctx context.Context, id, sessionID string) (*models.CartItem, error) {
	return r.find(ctx, id, func(item models.CartItem) bool {
		return item.ID == id && item.SessionID == sessionID
	})
}

func (r *MemoryCartRepository) find(ctx context.Context, key string, match func(models.CartItem) bool) (*models.CartItem, error) {
	var found *models.CartItem
	err := r.scope.run(ctx, func(d *memoryData) error {
		for _, item := range d.cartItems {
			if match(item) {
				item = withProduct(d, item)
				found = &item
				return nil
			}
		}
		return &models.NotFoundError{Entity: "cart item", ID: key}
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Save inserts a new line or replaces an existing one.
func (r *MemoryCartRepository) Save(ctx context.Context, item *models.CartItem) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		now := time.Now()
		stored := *item
		stored.Product = nil
		if item.ID == "" {
			item.ID = uuid.New().String()
			item.CreatedAt = now
			item.UpdatedAt = now
			stored.ID, stored.CreatedAt, stored.UpdatedAt = item.ID, now, now
			d.cartItems[item.ID] = stored
			d.stamp(item.ID)
			return nil
		}
		existing, ok := d.cartItems[item.ID]
		if !ok {
			return &models.NotFoundError{Entity: "cart item", ID: item.ID}
		}
		existing.Quantity = item.Quantity
		existing.UpdatedAt = now
		item.UpdatedAt = now
		d.cartItems[item.ID] = existing
		return nil
	})
}

// Delete removes a single line.
func (r *MemoryCartRepository) Delete(ctx context.Context, item *models.CartItem) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		existing, ok := d.cartItems[item.ID]
		if !ok || existing.SessionID != item.SessionID {
			return &models.NotFoundError{Entity: "cart item", ID: item.ID}
		}
		delete(d.cartItems, item.ID)
		delete(d.seq, item.ID)
		return nil
	})
}

// DeleteBySession removes every line of the session.
func (r *MemoryCartRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		for id, item := range d.cartItems {
			if item.SessionID == sessionID {
				delete(d.cartItems, id)
				delete(d.seq, id)
			}
		}
		return nil
	})
}
