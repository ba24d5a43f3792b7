package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn against a fresh memory store and a fresh SQLite store.
func forEachStore(t *testing.T, fn func(t *testing.T, store repositories.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
		db, err := database.Open("sqlite", dsn)
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })
		fn(t, repositories.NewGORMStore(db))
	})
}

func createProduct(t *testing.T, store repositories.Store, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString("10.50"), Stock: stock}
	require.NoError(t, store.Products().Create(context.Background(), p))
	require.NotEmpty(t, p.ID)
	return p
}

func TestProductRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Products()

		var ids []string
		for i := 0; i < 5; i++ {
			ids = append(ids, createProduct(t, store, fmt.Sprintf("Product %d", i), 10).ID)
			time.Sleep(2 * time.Millisecond)
		}

		page, total, err := products.List(ctx, repositories.Page{Offset: 0, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, ids[4], page[0].ID, "newest first")
		assert.Equal(t, ids[3], page[1].ID)

		page, _, err = products.List(ctx, repositories.Page{Offset: 4, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ID)

		got, err := products.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "10.50", got.Price.StringFixed(2))

		got.Name = "Renamed"
		got.Price = decimal.RequireFromString("12.00")
		got.Description = "not written"
		require.NoError(t, products.Update(ctx, got, repositories.ProductName, repositories.ProductPrice))
		got, err = products.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "12.00", got.Price.StringFixed(2))
		assert.Empty(t, got.Description, "only the named fields are written")

		assert.True(t, models.IsNotFound(products.Update(ctx, &models.Product{ID: "missing", Name: "x"}, repositories.ProductName)))
		assert.Error(t, products.Update(ctx, got, "created_at"))

		require.NoError(t, products.Delete(ctx, ids[1]))
		_, err = products.GetByID(ctx, ids[1])
		assert.True(t, models.IsNotFound(err))
		assert.True(t, models.IsNotFound(products.Delete(ctx, ids[1])))

		_, total, err = products.List(ctx, repositories.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})
}

func TestProductRepository_DecrementStock(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Products()
		p := createProduct(t, store, "Widget", 5)

		affected, err := products.DecrementStock(ctx, p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		affected, err = products.DecrementStock(ctx, p.ID, 3)
		require.NoError(t, err)
		assert.Zero(t, affected, "guard rejects a decrement below zero")

		affected, err = products.DecrementStock(ctx, "missing", 1)
		require.NoError(t, err)
		assert.Zero(t, affected)

		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Stock)

		require.NoError(t, products.Delete(ctx, p.ID))
		affected, err = products.DecrementStock(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.Zero(t, affected, "deleted products cannot be decremented")
	})
}

func TestProductRepository_UpdateKeepsConcurrentDecrement(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Products()
		p := createProduct(t, store, "Lamp", 5)

		stale, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		affected, err := products.DecrementStock(ctx, p.ID, 3)
		require.NoError(t, err)
		require.Equal(t, int64(1), affected)

		stale.Name = "Desk lamp"
		require.NoError(t, products.Update(ctx, stale, repositories.ProductName))

		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp", got.Name)
		assert.Equal(t, 2, got.Stock, "a rename must not restore sold stock")
	})
}

func TestProductRepository_ConcurrentDecrementsNeverOversell(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		p := createProduct(t, store, "Hot item", 10)

		var applied int64
		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				affected, err := store.Products().DecrementStock(ctx, p.ID, 1)
				if assert.NoError(t, err) {
					atomic.AddInt64(&applied, affected)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(10), applied)
		got, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Stock)
	})
}

func TestCartRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		carts := store.Carts()
		a := createProduct(t, store, "A", 10)
		b := createProduct(t, store, "B", 10)

		first := &models.CartItem{SessionID: "s1", ProductID: a.ID, Quantity: 1}
		require.NoError(t, carts.Save(ctx, first))
		require.NotEmpty(t, first.ID)
		time.Sleep(2 * time.Millisecond)
		second := &models.CartItem{SessionID: "s1", ProductID: b.ID, Quantity: 2}
		require.NoError(t, carts.Save(ctx, second))
		require.NoError(t, carts.Save(ctx, &models.CartItem{SessionID: "s2", ProductID: a.ID, Quantity: 4}))

		lines, err := carts.FindBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, second.ID, lines[0].ID, "newest first")
		require.NotNil(t, lines[0].Product)
		assert.Equal(t, "B", lines[0].Product.Name)

		require.NoError(t, store.Products().Delete(ctx, b.ID))
		lines, err = carts.FindBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, lines, 2, "lines outlive their product")
		require.NotNil(t, lines[0].Product)
		assert.True(t, lines[0].Product.DeletedAt.Valid)
		assert.Equal(t, "10.50", lines[0].Product.Price.StringFixed(2))

		found, err := carts.FindBySessionAndProduct(ctx, "s1", a.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		_, err = carts.FindBySessionAndProduct(ctx, "s3", a.ID)
		assert.True(t, models.IsNotFound(err))

		found.Quantity = 7
		require.NoError(t, carts.Save(ctx, found))
		found, err = carts.FindByIDAndSession(ctx, first.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, 7, found.Quantity)

		_, err = carts.FindByIDAndSession(ctx, first.ID, "s2")
		assert.True(t, models.IsNotFound(err))

		require.NoError(t, carts.Delete(ctx, found))
		assert.True(t, models.IsNotFound(carts.Delete(ctx, found)))

		require.NoError(t, carts.DeleteBySession(ctx, "s1"))
		require.NoError(t, carts.DeleteBySession(ctx, "s1"))
		lines, err = carts.FindBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, lines)

		lines, err = carts.FindBySession(ctx, "s2")
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}

func createOrder(t *testing.T, orders repositories.OrderRepository, session string, userID *string, product *models.Product) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := &models.Order{
		SessionID:   session,
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("21.00"),
	}
	require.NoError(t, orders.Create(ctx, order))
	require.NoError(t, orders.CreateItems(ctx, []models.OrderItem{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 2, Price: decimal.RequireFromString("10.50")},
	}))
	return order
}

func TestOrderRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		orders := store.Orders()
		p := createProduct(t, store, "Lamp", 10)

		u1 := "u1"
		byUser := createOrder(t, orders, "s1", &u1, p)
		time.Sleep(2 * time.Millisecond)
		older := createOrder(t, orders, "s2", nil, p)
		time.Sleep(2 * time.Millisecond)
		newer := createOrder(t, orders, "s2", nil, p)

		got, err := orders.GetByID(ctx, byUser.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "10.50", got.Items[0].Price.StringFixed(2))
		require.NotNil(t, got.Items[0].Product)
		assert.Equal(t, "Lamp", got.Items[0].Product.Name)
		require.NotNil(t, got.UserID)
		assert.Equal(t, "u1", *got.UserID)

		list, err := orders.List(ctx, models.OrderFilter{SessionID: "s2", UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, byUser.ID, list[0].ID)

		list, err = orders.List(ctx, models.OrderFilter{SessionID: "s2"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)

		list, err = orders.List(ctx, models.OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 3)

		got.Status = models.OrderStatusShipped
		require.NoError(t, orders.Update(ctx, got))
		got, err = orders.GetByID(ctx, byUser.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, got.Status)

		require.NoError(t, store.Products().Delete(ctx, p.ID))
		got, err = orders.GetByID(ctx, byUser.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Items[0].Product, "deleted products stay visible on orders")

		_, err = orders.GetByID(ctx, "missing")
		assert.True(t, models.IsNotFound(err))
		assert.True(t, models.IsNotFound(orders.Update(ctx, &models.Order{ID: "missing", Status: models.OrderStatusShipped})))
	})
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		p := createProduct(t, store, "Bulb", 5)
		require.NoError(t, store.Carts().Save(ctx, &models.CartItem{SessionID: "s1", ProductID: p.ID, Quantity: 1}))

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		order := &models.Order{SessionID: "s1", Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(5)}
		require.NoError(t, uow.Orders().Create(ctx, order))
		affected, err := uow.Products().DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		require.NoError(t, uow.Carts().DeleteBySession(ctx, "s1"))
		require.NoError(t, uow.Rollback())
		require.NoError(t, uow.Rollback(), "second rollback is a no-op")

		got, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
		_, err = store.Orders().GetByID(ctx, order.ID)
		assert.True(t, models.IsNotFound(err))
		lines, err := store.Carts().FindBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}

func TestUnitOfWork_CommitPublishesWrites(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		p := createProduct(t, store, "Bulb", 5)

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		order := &models.Order{SessionID: "s1", Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(5)}
		require.NoError(t, uow.Orders().Create(ctx, order))
		require.NoError(t, uow.Orders().CreateItems(ctx, []models.OrderItem{
			{OrderID: order.ID, ProductID: p.ID, Quantity: 1, Price: p.Price},
		}))
		_, err = uow.Products().DecrementStock(ctx, p.ID, 1)
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
		assert.NoError(t, uow.Rollback(), "rollback after commit is a no-op")
		assert.ErrorIs(t, uow.Commit(), repositories.ErrTxDone)

		got, err := store.Orders().GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
		product, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, product.Stock)
	})
}

func TestMemoryUnitOfWork_FinishedRepositoriesFail(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	products := uow.Products()
	require.NoError(t, uow.Commit())

	_, err = products.GetByID(ctx, "any")
	assert.ErrorIs(t, err, repositories.ErrTxDone)
}

func TestMemoryStore_BeginHonoursContext(t *testing.T) {
	store := repositories.NewMemoryStore()
	uow, err := store.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = uow.Rollback() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = store.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, err = store.Products().GetByID(ctx, "any")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUserRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		users := store.Users()

		user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
		require.NoError(t, users.Create(ctx, user))
		require.NotEmpty(t, user.ID)

		byName, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
		byEmail, err := users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		byID, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)

		_, err = users.GetByUsername(ctx, "bob")
		assert.True(t, models.IsNotFound(err))

		assert.Error(t, users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "hash"}))
	})
}
