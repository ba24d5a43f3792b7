package repositories

import "gorm.io/gorm"

// Store bundles the repositories of one storage backend.
type Store interface {
	Transactor
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Users() UserRepository
}

// GORMStore is the SQL backend.
type GORMStore struct {
	*GORMTransactor
	products *GORMProductRepository
	carts    *GORMCartRepository
	orders   *GORMOrderRepository
	users    *GORMUserRepository
}

// NewGORMStore creates a Store over db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		GORMTransactor: NewGORMTransactor(db),
		products:       NewGORMProductRepository(db),
		carts:          NewGORMCartRepository(db),
		orders:         NewGORMOrderRepository(db),
		users:          NewGORMUserRepository(db),
	}
}

func (s *GORMStore) Products() ProductRepository { return s.products }
func (s *GORMStore) Carts() CartRepository       { return s.carts }
func (s *GORMStore) Orders() OrderRepository     { return s.orders }
func (s *GORMStore) Users() UserRepository       { return s.users }

var (
	_ Store = (*GORMStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
