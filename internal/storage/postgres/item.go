package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/item"
)

var _ item.Repository = (*ItemRepository)(nil)

// itemColumns maps patchable domain field names to their columns.
var itemColumns = map[string]string{
	"description": "description",
	"quantity":    "quantity",
	"price":       "price",
}

// ItemRepository implements item.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) List(ctx context.Context) ([]item.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, description, quantity, price FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		var it item.Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetByID returns a single item. Returns item.ErrNotFound when no matching
// row exists.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	var it item.Item
	err := r.pool.QueryRow(ctx,
		`SELECT id, description, quantity, price FROM items WHERE id = $1`, id).
		Scan(&it.ID, &it.Description, &it.Quantity, &it.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, it *item.Item) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (description, quantity, price) VALUES ($1, $2, $3) RETURNING id`,
		it.Description, it.Quantity, it.Price).
		Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

func (r *ItemRepository) Update(ctx context.Context, it *item.Item) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET description = $2, quantity = $3, price = $4 WHERE id = $1`,
		it.ID, it.Description, it.Quantity, it.Price)
	if err != nil {
		return false, fmt.Errorf("updating item %d: %w", it.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ItemRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	cols := make(map[string]any, len(fields))
	for f, v := range fields {
		col, ok := itemColumns[f]
		if !ok {
			return false, errors.Errorf("unknown item field %q", f)
		}
		cols[col] = v
	}

	set, args := buildSetClause(cols, 2)
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE items SET %s WHERE id = $1`, set),
		append([]any{id}, args...)...)
	if err != nil {
		return false, fmt.Errorf("patching item %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an item; its discount row cascades. A foreign key violation
// from referencing orders maps to item.ErrHasOrders.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, item.ErrHasOrders
		}
		return false, fmt.Errorf("deleting item %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
