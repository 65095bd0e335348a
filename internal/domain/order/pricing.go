package order

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds the computed pricing of an order line.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals calculates subtotal, discount amount, and final total for a
// unit price, quantity, and discount percentage. The discount amount is
// rounded to 2 decimal places before subtraction, so the rounding of the
// intermediate value is reflected in the total. An absent unit price prices
// the line at zero.
func ComputeTotals(unitPrice decimal.NullDecimal, quantity int, percent decimal.Decimal) Totals {
	price := decimal.Zero
	if unitPrice.Valid {
		price = unitPrice.Decimal
	}

	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	discountAmount := subtotal.Mul(percent).Div(hundred).Round(2)
	total := subtotal.Sub(discountAmount).Round(2)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
	}
}
