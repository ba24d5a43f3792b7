package services

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// Listing bounds for products.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ProductPage is one page of the catalogue.
type ProductPage struct {
	Data  []models.Product `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ProductUpdate carries the fields to change; nil fields are left as they are.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Stock       *int
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts retrieves one page of products, newest first. Out of range
// page and limit values fall back to the defaults; limit is capped at MaxLimit.
func (s *ProductService) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	products, total, err := s.repo.List(ctx, repositories.Page{Offset: (page - 1) * limit, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &ProductPage{Data: products, Total: total, Page: page, Limit: limit}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	product.Price = product.Price.Round(2)
	return s.repo.Create(ctx, product)
}

// UpdateProduct applies the non-nil fields of update to a product. Only
// those fields are written, so stock sold meanwhile is not overwritten.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var fields []string
	if update.Name != nil {
		product.Name = *update.Name
		fields = append(fields, repositories.ProductName)
	}
	if update.Description != nil {
		product.Description = *update.Description
		fields = append(fields, repositories.ProductDescription)
	}
	if update.Price != nil {
		product.Price = update.Price.Round(2)
		fields = append(fields, repositories.ProductPrice)
	}
	if update.ImageURL != nil {
		product.ImageURL = *update.ImageURL
		fields = append(fields, repositories.ProductImageURL)
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
		fields = append(fields, repositories.ProductStock)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return product, nil
	}
	if err := s.repo.Update(ctx, product, fields...); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// DeleteProduct soft-deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return &models.ValidationError{Field: "name", Message: "is required"}
	case p.Price.IsNegative():
		return &models.ValidationError{Field: "price", Message: "must not be negative"}
	case p.Stock < 0:
		return &models.ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return nil
}
