package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GORMTransactor opens database transactions as units of work.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// Begin starts a transaction. The returned unit of work must be finished with
// Commit or Rollback to release its connection.
func (t *GORMTransactor) Begin(ctx context.Context) (UnitOfWork, error) {
	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormUnitOfWork{
		tx:       tx,
		products: NewGORMProductRepository(tx),
		carts:    NewGORMCartRepository(tx),
		orders:   NewGORMOrderRepository(tx),
	}, nil
}

type gormUnitOfWork struct {
	tx       *gorm.DB
	products *GORMProductRepository
	carts    *GORMCartRepository
	orders   *GORMOrderRepository
	done     bool
}

func (u *gormUnitOfWork) Products() ProductRepository { return u.products }
func (u *gormUnitOfWork) Carts() CartRepository       { return u.carts }
func (u *gormUnitOfWork) Orders() OrderRepository     { return u.orders }

func (u *gormUnitOfWork) Commit() error {
	if u.done {
		return ErrTxDone
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *gormUnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}
