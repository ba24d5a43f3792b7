package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// Page selects a window of a listing.
type Page struct {
	Offset int
	Limit  int
}

// Product fields that ProductRepository.Update may write.
const (
	ProductName        = "name"
	ProductDescription = "description"
	ProductPrice       = "price"
	ProductImageURL    = "image_url"
	ProductStock       = "stock"
)

func checkProductFields(fields []string) error {
	for _, f := range fields {
		switch f {
		case ProductName, ProductDescription, ProductPrice, ProductImageURL, ProductStock:
		default:
			return fmt.Errorf("unknown product field %q", f)
		}
	}
	return nil
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, page Page) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the named fields of product. Columns left out,
	// stock in particular, keep their stored value.
	Update(ctx context.Context, product *models.Product, fields ...string) error
	Delete(ctx context.Context, id string) error
	// DecrementStock subtracts quantity from the product's stock only if the
	// stock covers it, as one atomic step. It returns the number of rows changed:
	// 1 on success, 0 when the guard did not hold.
	DecrementStock(ctx context.Context, id string, quantity int) (int64, error)
}
