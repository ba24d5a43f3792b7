package repositories

import (
	"context"
	"fmt"
	"sort"
	"storefront/internal/models"

	"golang.org/x/sync/semaphore"
)

// MemoryStore is an in-process backend for every repository. One lock
// serializes all access. A unit of work holds that lock from Begin until
// Commit or Rollback and mutates a private copy of the data that Commit
// publishes, so units of work are serializable and rollback discards
// everything they wrote.
type MemoryStore struct {
	lock *semaphore.Weighted
	data *memoryData
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lock: semaphore.NewWeighted(1),
		data: newMemoryData(),
	}
}

type memoryData struct {
	products   map[string]models.Product
	cartItems  map[string]models.CartItem
	orders     map[string]models.Order
	orderItems map[string][]models.OrderItem
	users      map[string]models.User
	// seq records insertion order and breaks ties between equal timestamps.
	seq  map[string]int64
	next int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		products:   make(map[string]models.Product),
		cartItems:  make(map[string]models.CartItem),
		orders:     make(map[string]models.Order),
		orderItems: make(map[string][]models.OrderItem),
		users:      make(map[string]models.User),
		seq:        make(map[string]int64),
	}
}

func (d *memoryData) stamp(id string) {
	d.next++
	d.seq[id] = d.next
}

// newerFirst orders by creation time descending, then by insertion order descending.
func (d *memoryData) newerFirst(ids []string, createdAt func(string) int64) {
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := createdAt(ids[i]), createdAt(ids[j])
		if ci != cj {
			return ci > cj
		}
		return d.seq[ids[i]] > d.seq[ids[j]]
	})
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		products:   make(map[string]models.Product, len(d.products)),
		cartItems:  make(map[string]models.CartItem, len(d.cartItems)),
		orders:     make(map[string]models.Order, len(d.orders)),
		orderItems: make(map[string][]models.OrderItem, len(d.orderItems)),
		users:      make(map[string]models.User, len(d.users)),
		seq:        make(map[string]int64, len(d.seq)),
		next:       d.next,
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.orderItems {
		c.orderItems[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

// memoryScope runs fn against the data visible to a repository.
type memoryScope interface {
	run(ctx context.Context, fn func(d *memoryData) error) error
}

func (s *MemoryStore) run(ctx context.Context, fn func(d *memoryData) error) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire memory store: %w", err)
	}
	defer s.lock.Release(1)
	return fn(s.data)
}

// Products returns a ProductRepository outside any unit of work.
func (s *MemoryStore) Products() ProductRepository { return &MemoryProductRepository{scope: s} }

// Carts returns a CartRepository outside any unit of work.
func (s *MemoryStore) Carts() CartRepository { return &MemoryCartRepository{scope: s} }

// Orders returns an OrderRepository outside any unit of work.
func (s *MemoryStore) Orders() OrderRepository { return &MemoryOrderRepository{scope: s} }

// Users returns a UserRepository.
func (s *MemoryStore) Users() UserRepository { return &MemoryUserRepository{scope: s} }

// Begin waits for exclusive access to the store and starts a unit of work.
func (s *MemoryStore) Begin(ctx context.Context) (UnitOfWork, error) {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &memoryUnitOfWork{store: s, data: s.data.clone()}, nil
}

type memoryUnitOfWork struct {
	store *MemoryStore
	data  *memoryData
	done  bool
}

func (u *memoryUnitOfWork) run(ctx context.Context, fn func(d *memoryData) error) error {
	if u.done {
		return ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(u.data)
}

func (u *memoryUnitOfWork) Products() ProductRepository { return &MemoryProductRepository{scope: u} }
func (u *memoryUnitOfWork) Carts() CartRepository       { return &MemoryCartRepository{scope: u} }
func (u *memoryUnitOfWork) Orders() OrderRepository     { return &MemoryOrderRepository{scope: u} }

func (u *memoryUnitOfWork) Commit() error {
	if u.done {
		return ErrTxDone
	}
	u.done = true
	u.store.data = u.data
	u.store.lock.Release(1)
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.data = nil
	u.store.lock.Release(1)
	return nil
}
