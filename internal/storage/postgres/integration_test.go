//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/orderdesk/internal/domain/customer"
	"github.com/xenking/orderdesk/internal/domain/discount"
	"github.com/xenking/orderdesk/internal/domain/item"
	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/storage/postgres"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("orderdesk"),
		tcpostgres.WithUsername("orderdesk"),
		tcpostgres.WithPassword("orderdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool))
	return pool
}

type env struct {
	pool      *pgxpool.Pool
	items     *postgres.ItemRepository
	customers *postgres.CustomerRepository
	ledger    *postgres.DiscountLedger
	store     *postgres.OrderStore
	orders    *order.Service
}

func setupEnv(t *testing.T) *env {
	pool := setupPool(t)
	ledger := postgres.NewDiscountLedger(pool)
	store := postgres.NewOrderStore(pool)
	return &env{
		pool:      pool,
		items:     postgres.NewItemRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		ledger:    ledger,
		store:     store,
		orders: order.NewService(store,
			discount.NewLedgerResolver(ledger),
			discount.NewWindowResolver(decimal.NewFromInt(25),
				time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 6, 23, 59, 59, 0, time.UTC)),
		),
	}
}

func (e *env) seedItem(t *testing.T, description string, quantity int, price string) int64 {
	t.Helper()
	it := &item.Item{
		Description: description,
		Quantity:    quantity,
		Price:       decimal.NullDecimal{Decimal: decimal.RequireFromString(price), Valid: true},
	}
	require.NoError(t, e.items.Create(context.Background(), it))
	return it.ID
}

func (e *env) seedCustomer(t *testing.T, name string) int64 {
	t.Helper()
	c := &customer.Customer{Name: name}
	require.NoError(t, e.customers.Create(context.Background(), c))
	return c.ID
}

func (e *env) itemQuantity(t *testing.T, id int64) int {
	t.Helper()
	it, err := e.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return it.Quantity
}

func TestOrderLifecycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Ada")
	itemID := e.seedItem(t, "Keyboard", 10, "100.00")
	_, err := e.ledger.Upsert(ctx, itemID, decimal.NewFromInt(25), "launch promo")
	require.NoError(t, err)

	t.Run("place deducts stock and applies ledger discount", func(t *testing.T) {
		o, err := e.orders.Place(ctx, order.MutateRequest{
			CustomerID:    customerID,
			ItemID:        itemID,
			Quantity:      2,
			ApplyDiscount: true,
		})
		require.NoError(t, err)
		assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("150.00")), "total = %s", o.TotalPrice)
		assert.True(t, o.DiscountAmount.Equal(decimal.RequireFromString("50.00")), "discount = %s", o.DiscountAmount)
		assert.False(t, o.CreatedAt.IsZero())
		assert.Equal(t, 8, e.itemQuantity(t, itemID))
	})

	t.Run("insufficient stock rolls everything back", func(t *testing.T) {
		before := e.itemQuantity(t, itemID)

		_, err := e.orders.Place(ctx, order.MutateRequest{
			CustomerID: customerID,
			ItemID:     itemID,
			Quantity:   before + 1,
		})
		var stockErr *order.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, before, stockErr.Available)

		assert.Equal(t, before, e.itemQuantity(t, itemID), "stock untouched after rollback")
		details, err := e.store.ListOrders(ctx)
		require.NoError(t, err)
		assert.Len(t, details, 1, "no partial order row")
	})

	t.Run("modify adjusts only the quantity delta", func(t *testing.T) {
		details, err := e.store.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, details, 1)
		orderID := details[0].ID

		err = e.orders.Modify(ctx, orderID, order.MutateRequest{
			CustomerID: customerID,
			ItemID:     itemID,
			Quantity:   5,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, e.itemQuantity(t, itemID), "10 on hand minus 5 reserved")
	})

	t.Run("delete restores stock", func(t *testing.T) {
		details, err := e.store.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, details, 1)

		deleted, err := e.orders.Delete(ctx, details[0].ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, 10, e.itemQuantity(t, itemID))
	})
}

func TestCustomerPriority(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Grace")
	itemID := e.seedItem(t, "Mouse", 100, "10.00")

	var orderIDs []int64
	for i := 0; i < 4; i++ {
		o, err := e.orders.Place(ctx, order.MutateRequest{
			CustomerID: customerID,
			ItemID:     itemID,
			Quantity:   1,
		})
		require.NoError(t, err)
		orderIDs = append(orderIDs, o.ID)

		c, err := e.customers.GetByID(ctx, customerID)
		require.NoError(t, err)
		assert.Equal(t, i+1 > customer.PriorityThreshold, c.Priority, "after %d orders", i+1)
	}

	// Dropping back to the threshold clears the flag.
	deleted, err := e.orders.Delete(ctx, orderIDs[0])
	require.NoError(t, err)
	require.True(t, deleted)

	c, err := e.customers.GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.False(t, c.Priority)
}

func TestConcurrentPlacement(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Alan")
	itemID := e.seedItem(t, "Monitor", 1, "350.00")

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.Place(ctx, order.MutateRequest{
				CustomerID: customerID,
				ItemID:     itemID,
				Quantity:   1,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *order.InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
	}
	assert.Equal(t, 1, succeeded, "row lock admits exactly one order for the last unit")
	assert.Equal(t, 0, e.itemQuantity(t, itemID))
}

func TestDiscountLedger(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	itemID := e.seedItem(t, "Desk", 3, "200.00")

	t.Run("missing row", func(t *testing.T) {
		_, err := e.ledger.Percent(ctx, itemID)
		assert.ErrorIs(t, err, discount.ErrNotFound)
	})

	t.Run("upsert keeps one row per item", func(t *testing.T) {
		firstID, err := e.ledger.Upsert(ctx, itemID, decimal.NewFromInt(10), "autumn sale")
		require.NoError(t, err)

		secondID, err := e.ledger.Upsert(ctx, itemID, decimal.NewFromInt(15), "extended sale")
		require.NoError(t, err)
		assert.Equal(t, firstID, secondID)

		pct, err := e.ledger.Percent(ctx, itemID)
		require.NoError(t, err)
		assert.True(t, pct.Equal(decimal.NewFromInt(15)))

		all, err := e.ledger.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "extended sale", all[0].Description)
	})

	t.Run("remove", func(t *testing.T) {
		removed, err := e.ledger.Remove(ctx, itemID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = e.ledger.Remove(ctx, itemID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestItemDeleteWithOrders(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Edsger")
	itemID := e.seedItem(t, "Chair", 5, "80.00")

	_, err := e.orders.Place(ctx, order.MutateRequest{
		CustomerID: customerID,
		ItemID:     itemID,
		Quantity:   1,
	})
	require.NoError(t, err)

	_, err = e.items.Delete(ctx, itemID)
	assert.ErrorIs(t, err, item.ErrHasOrders)
}

func TestOrderPartialUpdate(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Barbara")
	itemID := e.seedItem(t, "Lamp", 5, "40.00")

	o, err := e.orders.Place(ctx, order.MutateRequest{
		CustomerID: customerID,
		ItemID:     itemID,
		Quantity:   1,
	})
	require.NoError(t, err)

	t.Run("pricing fields pass through", func(t *testing.T) {
		updated, err := e.orders.Patch(ctx, o.ID, map[string]any{
			"total_price": decimal.RequireFromString("35.00"),
		})
		require.NoError(t, err)
		assert.True(t, updated)

		d, err := e.store.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, d.TotalPrice.Equal(decimal.RequireFromString("35.00")))
	})

	t.Run("stock fields are rejected", func(t *testing.T) {
		_, err := e.orders.Patch(ctx, o.ID, map[string]any{"quantity": 3})
		var immutableErr *order.ImmutableFieldError
		assert.ErrorAs(t, err, &immutableErr)

		assert.Equal(t, 4, e.itemQuantity(t, itemID), "reservation unchanged")
	})
}

func TestOrderDetailProjection(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	customerID := e.seedCustomer(t, "Donald")
	itemID := e.seedItem(t, "Bookshelf", 2, "120.00")

	o, err := e.orders.Place(ctx, order.MutateRequest{
		CustomerID: customerID,
		ItemID:     itemID,
		Quantity:   1,
	})
	require.NoError(t, err)

	d, err := e.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Donald", d.CustomerName)
	assert.Equal(t, "Bookshelf", d.ItemDescription)
	require.True(t, d.ItemPrice.Valid)
	assert.True(t, d.ItemPrice.Decimal.Equal(decimal.RequireFromString("120.00")))
}
