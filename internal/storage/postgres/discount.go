package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/discount"
)

var _ discount.Ledger = (*DiscountLedger)(nil)

// DiscountLedger implements discount.Ledger backed by PostgreSQL.
type DiscountLedger struct {
	pool *pgxpool.Pool
}

// NewDiscountLedger returns a DiscountLedger that uses the given pool.
func NewDiscountLedger(pool *pgxpool.Pool) *DiscountLedger {
	return &DiscountLedger{pool: pool}
}

// Percent returns the stored percentage for the item, or
// discount.ErrNotFound when the item has no discount row.
func (l *DiscountLedger) Percent(ctx context.Context, itemID int64) (decimal.Decimal, error) {
	var pct decimal.Decimal
	err := l.pool.QueryRow(ctx,
		`SELECT percent FROM discounts WHERE item_id = $1`, itemID).
		Scan(&pct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, discount.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("getting discount for item %d: %w", itemID, err)
	}
	return pct, nil
}

// Upsert inserts or updates the item's discount row, resolving the unique
// item constraint by updating percent and description in place.
func (l *DiscountLedger) Upsert(ctx context.Context, itemID int64, percent decimal.Decimal, description string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO discounts (item_id, percent, description)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (item_id) DO UPDATE
		 SET percent = EXCLUDED.percent, description = EXCLUDED.description, updated_at = now()
		 RETURNING id`,
		itemID, percent, description).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting discount for item %d: %w", itemID, err)
	}
	return id, nil
}

func (l *DiscountLedger) Remove(ctx context.Context, itemID int64) (bool, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM discounts WHERE item_id = $1`, itemID)
	if err != nil {
		return false, fmt.Errorf("removing discount for item %d: %w", itemID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (l *DiscountLedger) List(ctx context.Context) ([]discount.Discount, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, item_id, percent, description, active, created_at, updated_at
		 FROM discounts ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	defer rows.Close()

	var discounts []discount.Discount
	for rows.Next() {
		var d discount.Discount
		if err := rows.Scan(&d.ID, &d.ItemID, &d.Percent, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}
