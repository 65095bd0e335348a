package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resolver decides the discount percentage for an order line. requested
// carries the caller's explicit ask; a strategy may also grant a discount
// on its own.
type Resolver interface {
	Resolve(ctx context.Context, itemID int64, requested bool) decimal.Decimal
}

// LedgerResolver grants the percentage stored in the ledger, only when
// requested. A missing row or a failed lookup resolves to zero so order
// placement never fails on a discount read; lookup failures are logged.
type LedgerResolver struct {
	ledger Ledger
}

// NewLedgerResolver returns a resolver backed by the given ledger.
func NewLedgerResolver(ledger Ledger) *LedgerResolver {
	return &LedgerResolver{ledger: ledger}
}

func (r *LedgerResolver) Resolve(ctx context.Context, itemID int64, requested bool) decimal.Decimal {
	if !requested {
		return decimal.Zero
	}
	percent, err := r.ledger.Percent(ctx, itemID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zctx.From(ctx).Warn("discount lookup failed",
				zap.Int64("item_id", itemID),
				zap.Error(err))
		}
		return decimal.Zero
	}
	return percent
}

// WindowResolver grants a fixed percentage when the order is placed inside a
// promotional window, both boundaries inclusive, or when the caller requests
// it regardless of the date.
type WindowResolver struct {
	percent decimal.Decimal
	from    time.Time
	until   time.Time

	now func() time.Time
}

// NewWindowResolver returns a resolver for the given window. from and until
// are inclusive.
func NewWindowResolver(percent decimal.Decimal, from, until time.Time) *WindowResolver {
	return &WindowResolver{
		percent: percent,
		from:    from,
		until:   until,
		now:     time.Now,
	}
}

func (r *WindowResolver) Resolve(_ context.Context, _ int64, requested bool) decimal.Decimal {
	if requested || r.inWindow(r.now()) {
		return r.percent
	}
	return decimal.Zero
}

func (r *WindowResolver) inWindow(t time.Time) bool {
	return !t.Before(r.from) && !t.After(r.until)
}
