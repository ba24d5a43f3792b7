package repositories

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// unscoped lets a preload see soft-deleted products.
func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }

// FindBySession retrieves all lines of a session, newest first.
func (r *GORMCartRepository) FindBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product", unscoped).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for session %s: %w", sessionID, err)
	}
	return items, nil
}

// FindBySessionAndProduct retrieves the session's line for a product.
func (r *GORMCartRepository) FindBySessionAndProduct(ctx context.Context, sessionID, productID string) (*models.CartItem, error) {
	return r.first(ctx, productID, "session_id = ? AND product_id = ?", sessionID, productID)
}

// FindByIDAndSession retrieves a line by its ID, scoped to the session that owns it.
func (r *GORMCartRepository) FindByIDAndSession(ctx context.Context, id, sessionID string) (*models.CartItem, error) {
	return r.first(ctx, id, "id = ? AND session_id = ?", id, sessionID)
}

func (r *GORMCartRepository) first(ctx context.Context, key string, query string, args ...interface{}) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Preload("Product", unscoped).Where(query, args...).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "cart item", ID: key}
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", key, err)
	}
	return &item, nil
}

// Save inserts a new line or updates the quantity of an existing one.
func (r *GORMCartRepository) Save(ctx context.Context, item *models.CartItem) error {
	db := r.db.WithContext(ctx).Omit(clause.Associations)
	if item.ID == "" {
		item.ID = uuid.New().String()
		if err := db.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create cart item: %w", err)
		}
		return nil
	}
	res := db.Model(item).Select("quantity", "updated_at").Updates(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "cart item", ID: item.ID}
	}
	return nil
}

// Delete removes a single line.
func (r *GORMCartRepository) Delete(ctx context.Context, item *models.CartItem) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ? AND session_id = ?", item.ID, item.SessionID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "cart item", ID: item.ID}
	}
	return nil
}

// DeleteBySession removes every line of the session. Deleting nothing is not an error.
func (r *GORMCartRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for session %s: %w", sessionID, err)
	}
	return nil
}
