package services

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartService manages session carts. Mutations of one session are
// serialized by the shared SessionLocker.
type CartService struct {
	carts  repositories.CartRepository
	ledger *StockLedger
	locker *SessionLocker
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, ledger *StockLedger, locker *SessionLocker) *CartService {
	return &CartService{
		carts:  carts,
		ledger: ledger,
		locker: locker,
	}
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return &models.ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	return nil
}

// AddItem adds quantity units of a product to the session's cart, merging
// into the existing line for that product.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*models.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart for session %s: %w", sessionID, err)
	}
	defer unlock()

	product, err := s.ledger.CheckAvailable(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.FindBySessionAndProduct(ctx, sessionID, productID)
	switch {
	case models.IsNotFound(err):
		item = &models.CartItem{SessionID: sessionID, ProductID: productID, Quantity: quantity}
	case err != nil:
		return nil, err
	default:
		merged := item.Quantity + quantity
		if product, err = s.ledger.CheckAvailable(ctx, productID, merged); err != nil {
			return nil, err
		}
		item.Quantity = merged
	}

	if err := s.carts.Save(ctx, item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// GetCart returns the session's lines, newest first, with their totals.
// Lines keep their product after it is deleted, priced at its last price;
// checking out such a cart fails.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	lines, err := s.carts.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: make([]models.CartItem, 0, len(lines)), TotalPrice: decimal.Zero}
	for _, line := range lines {
		cart.Items = append(cart.Items, line)
		cart.TotalItems += line.Quantity
		if line.Product != nil {
			cart.TotalPrice = cart.TotalPrice.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	cart.TotalPrice = cart.TotalPrice.Round(2)
	return cart, nil
}

// UpdateItem sets the quantity of one line of the session's cart.
func (s *CartService) UpdateItem(ctx context.Context, sessionID, itemID string, quantity int) (*models.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart for session %s: %w", sessionID, err)
	}
	defer unlock()

	item, err := s.carts.FindByIDAndSession(ctx, itemID, sessionID)
	if err != nil {
		return nil, err
	}
	product, err := s.ledger.CheckAvailable(ctx, item.ProductID, quantity)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.carts.Save(ctx, item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// RemoveItem deletes one line of the session's cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to lock cart for session %s: %w", sessionID, err)
	}
	defer unlock()

	item, err := s.carts.FindByIDAndSession(ctx, itemID, sessionID)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, item)
}

// ClearCart deletes every line of the session's cart. Clearing an empty
// cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to lock cart for session %s: %w", sessionID, err)
	}
	defer unlock()

	return s.carts.DeleteBySession(ctx, sessionID)
}
