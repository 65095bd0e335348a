// Package customer holds the customer entity and the priority policy.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a customer does not exist.
var ErrNotFound = errors.New("customer not found")

// PriorityThreshold is the order count a customer must exceed to be flagged
// as priority.
const PriorityThreshold = 3

// PriorityFor reports whether a customer with the given order count holds
// priority status.
func PriorityFor(orderCount int) bool {
	return orderCount > PriorityThreshold
}

// Customer is a registered buyer.
type Customer struct {
	ID       int64
	Name     string
	Priority bool
}

// Repository is the customer persistence contract.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) (bool, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
