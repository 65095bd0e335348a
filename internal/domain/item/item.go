// Package item holds the catalog item entity.
package item

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrHasOrders is returned when deleting an item that orders still
	// reference.
	ErrHasOrders = errors.New("item is referenced by existing orders")
)

// Item is a catalog entry with quantity on hand. Price is nullable: an
// unpriced item can be ordered and totals to zero.
type Item struct {
	ID          int64
	Description string
	Quantity    int
	Price       decimal.NullDecimal
}

// Repository is the item persistence contract.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) (bool, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
