package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// InsufficientStockError indicates the requested quantity exceeds the item's
// quantity on hand.
type InsufficientStockError struct {
	ItemID    int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d, available: %d", e.ItemID, e.Available)
}

// InvalidQuantityError indicates a non-positive order quantity.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

// ImmutableFieldError indicates a partial update touched a field that is only
// mutable through the full order lifecycle.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %q cannot be patched, use PUT to modify the order", e.Field)
}

// UnknownFieldError indicates a partial update named a field that does not
// exist on an order.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown order field %q", e.Field)
}

// Order represents a stock-reserving purchase of a single item. The pricing
// columns snapshot the discount as resolved at order time.
type Order struct {
	ID              int64
	CustomerID      int64
	ItemID          int64
	Quantity        int
	TotalPrice      decimal.Decimal
	AppliedDiscount decimal.Decimal
	DiscountAmount  decimal.Decimal
	CreatedAt       time.Time
}

// Detail is the read-side projection of an order joined with the customer
// name and item description/price.
type Detail struct {
	Order
	CustomerName    string
	ItemDescription string
	ItemPrice       decimal.NullDecimal
}

// ItemStock is the inventory view of a row-locked item.
type ItemStock struct {
	Quantity int
	Price    decimal.NullDecimal
}

// Tx is the set of storage operations available inside a single order
// transaction. Implementations hold acquired row locks until the enclosing
// transaction commits or rolls back.
type Tx interface {
	// LockItem reads an item's stock and price under an exclusive row lock.
	// Returns item.ErrNotFound when the item does not exist.
	LockItem(ctx context.Context, itemID int64) (ItemStock, error)
	// AdjustItemQuantity applies a signed delta to an item's quantity on
	// hand. Availability is not validated here; callers check before
	// deducting.
	AdjustItemQuantity(ctx context.Context, itemID int64, delta int) error

	// GetOrderForUpdate reads an order under an exclusive row lock.
	// Returns ErrNotFound when the order does not exist.
	GetOrderForUpdate(ctx context.Context, orderID int64) (*Order, error)
	// InsertOrder persists a new order, filling in ID and CreatedAt.
	InsertOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, o *Order) (bool, error)
	DeleteOrder(ctx context.Context, orderID int64) (bool, error)

	CountCustomerOrders(ctx context.Context, customerID int64) (int, error)
	SetCustomerPriority(ctx context.Context, customerID int64, priority bool) error
}

// Store runs order transactions and serves the read side.
type Store interface {
	// InTx runs fn inside one database transaction. Any error from fn rolls
	// the transaction back completely and is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrder(ctx context.Context, id int64) (*Detail, error)
	ListOrders(ctx context.Context) ([]Detail, error)
	// UpdateOrderFields applies a raw partial column update, bypassing the
	// lifecycle. The service layer restricts which fields may pass through.
	UpdateOrderFields(ctx context.Context, id int64, fields map[string]any) (bool, error)
}
