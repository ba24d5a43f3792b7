package repositories

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	scope memoryScope
}

// List returns one page of live products, newest first, and the total count.
func (r *MemoryProductRepository) List(ctx context.Context, page Page) ([]models.Product, int64, error) {
	var (
		out   []models.Product
		total int64
	)
	err := r.scope.run(ctx, func(d *memoryData) error {
		ids := make([]string, 0, len(d.products))
		for id, p := range d.products {
			if !p.DeletedAt.Valid {
				ids = append(ids, id)
			}
		}
		d.newerFirst(ids, func(id string) int64 { return d.products[id].CreatedAt.UnixNano() })
		total = int64(len(ids))

		start := min(page.Offset, len(ids))
		end := len(ids)
		if page.Limit > 0 {
			end = min(start+page.Limit, len(ids))
		}
		out = make([]models.Product, 0, end-start)
		for _, id := range ids[start:end] {
			out = append(out, d.products[id])
		}
		return nil
	})
	return out, total, err
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.scope.run(ctx, func(d *memoryData) error {
		p, ok := d.products[id]
		if !ok || p.DeletedAt.Valid {
			return &models.NotFoundError{Entity: "product", ID: id}
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		if product.ID == "" {
			product.ID = uuid.New().String()
		}
		now := time.Now()
		product.CreatedAt = now
		product.UpdatedAt = now
		d.products[product.ID] = *product
		d.stamp(product.ID)
		return nil
	})
}

// Update copies the named fields onto the stored product.
func (r *MemoryProductRepository) Update(ctx context.Context, product *models.Product, fields ...string) error {
	if err := checkProductFields(fields); err != nil {
		return err
	}
	return r.scope.run(ctx, func(d *memoryData) error {
		existing, ok := d.products[product.ID]
		if !ok || existing.DeletedAt.Valid {
			return &models.NotFoundError{Entity: "product", ID: product.ID}
		}
		for _, f := range fields {
			switch f {
			case ProductName:
				existing.Name = product.Name
			case ProductDescription:
				existing.Description = product.Description
			case ProductPrice:
				existing.Price = product.Price
			case ProductImageURL:
				existing.ImageURL = product.ImageURL
			case ProductStock:
				existing.Stock = product.Stock
			}
		}
		existing.UpdatedAt = time.Now()
		d.products[product.ID] = existing
		return nil
	})
}

// Delete marks a product as deleted. Order items keep referencing it.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		p, ok := d.products[id]
		if !ok || p.DeletedAt.Valid {
			return &models.NotFoundError{Entity: "product", ID: id}
		}
		p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		d.products[id] = p
		return nil
	})
}

// DecrementStock applies the stock guard and the decrement under the store lock.
func (r *MemoryProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (int64, error) {
	var affected int64
	err := r.scope.run(ctx, func(d *memoryData) error {
		p, ok := d.products[id]
		if !ok || p.DeletedAt.Valid || p.Stock < quantity {
			return nil
		}
		p.Stock -= quantity
		d.products[id] = p
		affected = 1
		return nil
	})
	return affected, err
}
