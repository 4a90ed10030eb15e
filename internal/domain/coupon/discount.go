package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Discount calculates the discount amount the coupon grants on the given
// subtotal. Percentage coupons take subtotal * value / 100; fixed coupons
// take the value directly. The result is clamped to the subtotal so an
// order total can never go negative, and rounded to 2 decimal places.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(c.DiscountValue).Div(hundred)
	case DiscountFixed:
		amount = c.DiscountValue
	default:
		return decimal.Zero
	}

	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}
