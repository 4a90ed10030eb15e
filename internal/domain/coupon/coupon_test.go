package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoupon(typ DiscountType, value string) *Coupon {
	now := time.Now()
	return &Coupon{
		Code:          "TEST",
		DiscountType:  typ,
		DiscountValue: decimal.RequireFromString(value),
		MinimumAmount: decimal.Zero,
		IsActive:      true,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
	}
}

func TestValidAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		modify func(*Coupon)
		at     time.Time
		want   bool
	}{
		{
			name:   "active within window",
			modify: func(*Coupon) {},
			at:     now,
			want:   true,
		},
		{
			name:   "inactive",
			modify: func(c *Coupon) { c.IsActive = false },
			at:     now,
			want:   false,
		},
		{
			name:   "before window",
			modify: func(*Coupon) {},
			at:     now.Add(-2 * time.Hour),
			want:   false,
		},
		{
			name:   "after window",
			modify: func(*Coupon) {},
			at:     now.Add(2 * time.Hour),
			want:   false,
		},
		{
			name: "usage limit exhausted",
			modify: func(c *Coupon) {
				limit := 5
				c.UsageLimit = &limit
				c.UsedCount = 5
			},
			at:   now,
			want: false,
		},
		{
			name: "one use remaining",
			modify: func(c *Coupon) {
				limit := 5
				c.UsageLimit = &limit
				c.UsedCount = 4
			},
			at:   now,
			want: true,
		},
		{
			name: "no usage limit",
			modify: func(c *Coupon) {
				c.UsedCount = 1_000_000
			},
			at:   now,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoupon(DiscountPercentage, "10")
			tt.modify(c)
			assert.Equal(t, tt.want, c.ValidAt(tt.at))
		})
	}
}

func TestDiscount_Percentage(t *testing.T) {
	c := newTestCoupon(DiscountPercentage, "10")

	got := c.Discount(decimal.RequireFromString("80.00"))
	assert.True(t, decimal.RequireFromString("8.00").Equal(got), "got %s", got)
}

func TestDiscount_PercentageRounds(t *testing.T) {
	c := newTestCoupon(DiscountPercentage, "15")

	// 15% of 33.33 is 4.9995, rounded to 5.00.
	got := c.Discount(decimal.RequireFromString("33.33"))
	assert.True(t, decimal.RequireFromString("5.00").Equal(got), "got %s", got)
}

func TestDiscount_Fixed(t *testing.T) {
	c := newTestCoupon(DiscountFixed, "25.00")

	got := c.Discount(decimal.RequireFromString("80.00"))
	assert.True(t, decimal.RequireFromString("25.00").Equal(got), "got %s", got)
}

func TestDiscount_FixedClampedToSubtotal(t *testing.T) {
	c := newTestCoupon(DiscountFixed, "25.00")

	got := c.Discount(decimal.RequireFromString("19.99"))
	assert.True(t, decimal.RequireFromString("19.99").Equal(got), "got %s", got)
}

func TestDiscount_NegativeValueFloorsAtZero(t *testing.T) {
	c := newTestCoupon(DiscountFixed, "-5.00")

	got := c.Discount(decimal.RequireFromString("80.00"))
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestDiscount_UnknownTypeIsZero(t *testing.T) {
	c := newTestCoupon(DiscountType("bogus"), "10")

	got := c.Discount(decimal.RequireFromString("80.00"))
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestMinimumNotMetError_Message(t *testing.T) {
	err := &MinimumNotMetError{Minimum: decimal.RequireFromString("50")}
	require.Contains(t, err.Error(), "50.00")
}
