package models

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when an order is requested for a session without cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrStockConflict matches any *StockConflictError via errors.Is.
var ErrStockConflict = errors.New("stock changed concurrently")

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// InsufficientStockError is a logical shortage: the product does not hold the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)", e.ProductID, e.Requested, e.Available)
}

// StockConflictError means the guarded decrement matched no row: the stock was
// consumed by a concurrent order between the check and the decrement.
type StockConflictError struct {
	ProductID string
	Requested int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock for product %s could not be decremented by %d: %v", e.ProductID, e.Requested, ErrStockConflict)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrStockConflict
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
