// Package discount holds the per-item discount ledger and the strategies
// that resolve a percentage for an order.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an item has no discount row.
var ErrNotFound = errors.New("discount not found")

// Discount is a ledger row. Each item holds at most one.
type Discount struct {
	ID          int64
	ItemID      int64
	Percent     decimal.Decimal
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ledger is the discount persistence contract.
type Ledger interface {
	Percent(ctx context.Context, itemID int64) (decimal.Decimal, error)
	Upsert(ctx context.Context, itemID int64, percent decimal.Decimal, description string) (int64, error)
	Remove(ctx context.Context, itemID int64) (bool, error)
	List(ctx context.Context) ([]Discount, error)
}
