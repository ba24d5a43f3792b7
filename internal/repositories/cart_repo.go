package repositories

import (
	"context"

	"storefront/internal/models"
)

// CartRepository defines the interface for cart line data access. Lines are
// always returned with their Product loaded when the product still exists.
type CartRepository interface {
	// FindBySession returns the session's lines, newest first.
	FindBySession(ctx context.Context, sessionID string) ([]models.CartItem, error)
	FindBySessionAndProduct(ctx context.Context, sessionID, productID string) (*models.CartItem, error)
	FindByIDAndSession(ctx context.Context, id, sessionID string) (*models.CartItem, error)
	// Save inserts the line when it is new and updates it otherwise.
	Save(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, item *models.CartItem) error
	DeleteBySession(ctx context.Context, sessionID string) error
}
