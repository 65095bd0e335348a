package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/item"
	"github.com/xenking/orderdesk/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

var orderColumns = map[string]string{
	"total_price":      "total_price",
	"applied_discount": "applied_discount",
	"discount_amount":  "discount_amount",
}

const orderDetailQuery = `
	SELECT o.id, o.customer_id, o.item_id, o.quantity,
	       o.total_price, o.applied_discount, o.discount_amount, o.created_at,
	       c.name, i.description, i.price
	FROM orders o
	JOIN customers c ON o.customer_id = c.id
	JOIN items i ON o.item_id = i.id`

// OrderStore implements order.Store backed by PostgreSQL. Transactions use
// the default isolation level; exclusive row locks taken via
// SELECT ... FOR UPDATE serialize concurrent mutations of the same item.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// InTx runs fn inside a database transaction, committing when fn returns nil
// and rolling back otherwise. The error from fn is returned unchanged.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id int64) (*order.Detail, error) {
	var d order.Detail
	err := s.pool.QueryRow(ctx, orderDetailQuery+` WHERE o.id = $1`, id).
		Scan(&d.ID, &d.CustomerID, &d.ItemID, &d.Quantity,
			&d.TotalPrice, &d.AppliedDiscount, &d.DiscountAmount, &d.CreatedAt,
			&d.CustomerName, &d.ItemDescription, &d.ItemPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &d, nil
}

func (s *OrderStore) ListOrders(ctx context.Context) ([]order.Detail, error) {
	rows, err := s.pool.Query(ctx, orderDetailQuery+` ORDER BY o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var details []order.Detail
	for rows.Next() {
		var d order.Detail
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.ItemID, &d.Quantity,
			&d.TotalPrice, &d.AppliedDiscount, &d.DiscountAmount, &d.CreatedAt,
			&d.CustomerName, &d.ItemDescription, &d.ItemPrice); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *OrderStore) UpdateOrderFields(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	cols := make(map[string]any, len(fields))
	for f, v := range fields {
		col, ok := orderColumns[f]
		if !ok {
			return false, errors.Errorf("unknown order field %q", f)
		}
		cols[col] = v
	}

	set, args := buildSetClause(cols, 2)
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE orders SET %s WHERE id = $1`, set),
		append([]any{id}, args...)...)
	if err != nil {
		return false, fmt.Errorf("patching order %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ order.Tx = (*orderTx)(nil)

// orderTx exposes the order lifecycle operations bound to one transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) LockItem(ctx context.Context, itemID int64) (order.ItemStock, error) {
	var stock order.ItemStock
	err := t.tx.QueryRow(ctx,
		`SELECT quantity, price FROM items WHERE id = $1 FOR UPDATE`, itemID).
		Scan(&stock.Quantity, &stock.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ItemStock{}, item.ErrNotFound
		}
		return order.ItemStock{}, fmt.Errorf("locking item %d: %w", itemID, err)
	}
	return stock, nil
}

func (t *orderTx) AdjustItemQuantity(ctx context.Context, itemID int64, delta int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE items SET quantity = quantity + $2 WHERE id = $1`, itemID, delta)
	if err != nil {
		return fmt.Errorf("adjusting item %d quantity by %d: %w", itemID, delta, err)
	}
	return nil
}

func (t *orderTx) GetOrderForUpdate(ctx context.Context, orderID int64) (*order.Order, error) {
	var o order.Order
	err := t.tx.QueryRow(ctx,
		`SELECT id, customer_id, item_id, quantity, total_price, applied_discount, discount_amount, created_at
		 FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.CustomerID, &o.ItemID, &o.Quantity,
			&o.TotalPrice, &o.AppliedDiscount, &o.DiscountAmount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %d: %w", orderID, err)
	}
	return &o, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, item_id, quantity, total_price, applied_discount, discount_amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		o.CustomerID, o.ItemID, o.Quantity, o.TotalPrice, o.AppliedDiscount, o.DiscountAmount).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (t *orderTx) UpdateOrder(ctx context.Context, o *order.Order) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE orders
		 SET customer_id = $2, item_id = $3, quantity = $4,
		     total_price = $5, applied_discount = $6, discount_amount = $7
		 WHERE id = $1`,
		o.ID, o.CustomerID, o.ItemID, o.Quantity,
		o.TotalPrice, o.AppliedDiscount, o.DiscountAmount)
	if err != nil {
		return false, fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *orderTx) DeleteOrder(ctx context.Context, orderID int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return false, fmt.Errorf("deleting order %d: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *orderTx) CountCustomerOrders(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting orders for customer %d: %w", customerID, err)
	}
	return count, nil
}

func (t *orderTx) SetCustomerPriority(ctx context.Context, customerID int64, priority bool) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE customers SET priority = $2 WHERE id = $1`, customerID, priority)
	if err != nil {
		return fmt.Errorf("setting priority for customer %d: %w", customerID, err)
	}
	return nil
}
