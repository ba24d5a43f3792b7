package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/database"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     repositories.Store
	metrics   *metrics.Metrics
	publisher *MockPublisher
	carts     *services.CartService
	orders    *services.OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith wires services over a memory store. wrap, when set, decorates
// the transactor used for order creation.
func newFixtureWith(t *testing.T, wrap func(repositories.Transactor) repositories.Transactor) *fixture {
	t.Helper()
	return newFixtureOn(repositories.NewMemoryStore(), wrap)
}

// forEachBackend runs fn against services over a memory store and over a
// SQLite store, where units of work are real database transactions.
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, newFixture(t))
	})
	t.Run("sqlite", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
		db, err := database.Open("sqlite", dsn)
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })
		fn(t, newFixtureOn(repositories.NewGORMStore(db), nil))
	})
}

func newFixtureOn(store repositories.Store, wrap func(repositories.Transactor) repositories.Transactor) *fixture {
	m := metrics.New(prometheus.NewRegistry())
	publisher := new(MockPublisher)

	var tx repositories.Transactor = store
	if wrap != nil {
		tx = wrap(store)
	}

	locker := services.NewSessionLocker()
	ledger := services.NewStockLedger(store.Products(), m)
	carts := services.NewCartService(store.Carts(), ledger, locker)
	orders := services.NewOrderService(tx, store.Orders(), carts, ledger, locker, publisher, m)
	return &fixture{store: store, metrics: m, publisher: publisher, carts: carts, orders: orders}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
