package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/orderdesk/internal/domain/customer"
	"github.com/xenking/orderdesk/internal/domain/discount"
)

// patchable is the set of order columns the raw partial-update path may
// touch. Fields that drive stock reservation (customer, item, quantity) must
// go through Modify so availability and pricing are re-validated.
var patchable = map[string]struct{}{
	"total_price":      {},
	"applied_discount": {},
	"discount_amount":  {},
}

// lifecycle names the fields rejected from patching with a pointer to PUT.
var lifecycle = map[string]struct{}{
	"customer_id": {},
	"item_id":     {},
	"quantity":    {},
}

// MutateRequest holds the input for placing or modifying an order.
type MutateRequest struct {
	CustomerID    int64
	ItemID        int64
	Quantity      int
	ApplyDiscount bool
}

// Service is the order lifecycle manager. Every mutation runs as one store
// transaction: stock validation, discount resolution, pricing, the order
// write, the inventory adjustment, and the customer priority update either
// all commit or none do.
type Service struct {
	store           Store
	placeDiscounts  discount.Resolver
	modifyDiscounts discount.Resolver
}

// NewService creates an order Service. placeDiscounts resolves the percentage
// for new orders, modifyDiscounts for modified ones.
func NewService(store Store, placeDiscounts, modifyDiscounts discount.Resolver) *Service {
	return &Service{
		store:           store,
		placeDiscounts:  placeDiscounts,
		modifyDiscounts: modifyDiscounts,
	}
}

// Place reserves stock for a new order and persists it with computed totals.
// It fails with item.ErrNotFound when the item is absent and
// *InsufficientStockError when quantity on hand cannot cover the request.
func (s *Service) Place(ctx context.Context, req MutateRequest) (*Order, error) {
	if req.Quantity < 1 {
		return nil, &InvalidQuantityError{Quantity: req.Quantity}
	}

	var placed *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		stock, err := tx.LockItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if stock.Quantity < req.Quantity {
			return &InsufficientStockError{ItemID: req.ItemID, Available: stock.Quantity}
		}

		percent := s.placeDiscounts.Resolve(ctx, req.ItemID, req.ApplyDiscount)
		totals := ComputeTotals(stock.Price, req.Quantity, percent)

		o := &Order{
			CustomerID:      req.CustomerID,
			ItemID:          req.ItemID,
			Quantity:        req.Quantity,
			TotalPrice:      totals.Total,
			AppliedDiscount: percent,
			DiscountAmount:  totals.DiscountAmount,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		if err := tx.AdjustItemQuantity(ctx, req.ItemID, -req.Quantity); err != nil {
			return errors.Wrap(err, "deduct stock")
		}

		count, err := tx.CountCustomerOrders(ctx, req.CustomerID)
		if err != nil {
			return errors.Wrap(err, "count customer orders")
		}
		if customer.PriorityFor(count) {
			if err := tx.SetCustomerPriority(ctx, req.CustomerID, true); err != nil {
				return errors.Wrap(err, "set customer priority")
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// Modify rewrites an existing order's customer, item, and quantity,
// adjusting inventory for the difference. When the item is unchanged only
// the quantity delta is validated against stock; when it changes, the old
// item's quantity is returned before the new item's is deducted. Customer
// priority is not re-evaluated here.
func (s *Service) Modify(ctx context.Context, orderID int64, req MutateRequest) error {
	if req.Quantity < 1 {
		return &InvalidQuantityError{Quantity: req.Quantity}
	}

	return s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		var stock ItemStock
		if req.ItemID == existing.ItemID {
			stock, err = tx.LockItem(ctx, req.ItemID)
			if err != nil {
				return err
			}
			delta := req.Quantity - existing.Quantity
			if delta > 0 && stock.Quantity < delta {
				return &InsufficientStockError{ItemID: req.ItemID, Available: stock.Quantity}
			}
			if err := tx.AdjustItemQuantity(ctx, req.ItemID, -delta); err != nil {
				return errors.Wrap(err, "adjust stock")
			}
		} else {
			if err := tx.AdjustItemQuantity(ctx, existing.ItemID, existing.Quantity); err != nil {
				return errors.Wrap(err, "return stock")
			}
			stock, err = tx.LockItem(ctx, req.ItemID)
			if err != nil {
				return err
			}
			if stock.Quantity < req.Quantity {
				return &InsufficientStockError{ItemID: req.ItemID, Available: stock.Quantity}
			}
			if err := tx.AdjustItemQuantity(ctx, req.ItemID, -req.Quantity); err != nil {
				return errors.Wrap(err, "deduct stock")
			}
		}

		percent := s.modifyDiscounts.Resolve(ctx, req.ItemID, req.ApplyDiscount)
		totals := ComputeTotals(stock.Price, req.Quantity, percent)

		existing.CustomerID = req.CustomerID
		existing.ItemID = req.ItemID
		existing.Quantity = req.Quantity
		existing.TotalPrice = totals.Total
		existing.AppliedDiscount = percent
		existing.DiscountAmount = totals.DiscountAmount

		updated, err := tx.UpdateOrder(ctx, existing)
		if err != nil {
			return errors.Wrap(err, "update order")
		}
		if !updated {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes an order, returns its reserved quantity to the item, and
// clears the customer's priority flag when their order count drops to the
// threshold or below. It reports false without error when the order does not
// exist.
func (s *Service) Delete(ctx context.Context, orderID int64) (bool, error) {
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if _, err := tx.DeleteOrder(ctx, orderID); err != nil {
			return errors.Wrap(err, "delete order")
		}

		if err := tx.AdjustItemQuantity(ctx, o.ItemID, o.Quantity); err != nil {
			return errors.Wrap(err, "return stock")
		}

		count, err := tx.CountCustomerOrders(ctx, o.CustomerID)
		if err != nil {
			return errors.Wrap(err, "count customer orders")
		}
		if !customer.PriorityFor(count) {
			if err := tx.SetCustomerPriority(ctx, o.CustomerID, false); err != nil {
				return errors.Wrap(err, "clear customer priority")
			}
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Patch applies a partial column update to an order. Only pricing columns may
// pass through; stock-bearing fields are rejected so the raw path cannot
// bypass availability and pricing invariants.
func (s *Service) Patch(ctx context.Context, orderID int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, &UnknownFieldError{Field: ""}
	}
	for f := range fields {
		if _, ok := lifecycle[f]; ok {
			return false, &ImmutableFieldError{Field: f}
		}
		if _, ok := patchable[f]; !ok {
			return false, &UnknownFieldError{Field: f}
		}
	}
	return s.store.UpdateOrderFields(ctx, orderID, fields)
}

// Get returns a single order joined with customer and item details.
func (s *Service) Get(ctx context.Context, orderID int64) (*Detail, error) {
	return s.store.GetOrder(ctx, orderID)
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Detail, error) {
	return s.store.ListOrders(ctx)
}
