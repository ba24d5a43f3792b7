package repositories

import (
	"context"
	"errors"
)

// ErrTxDone is returned by repositories bound to a unit of work that already
// committed or rolled back.
var ErrTxDone = errors.New("unit of work already finished")

// UnitOfWork groups the stores whose writes commit or roll back together.
// Rollback after Commit (or a second Rollback) is a no-op, so callers can
// always defer Rollback right after Begin.
type UnitOfWork interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Commit() error
	Rollback() error
}

// Transactor opens units of work.
type Transactor interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
