package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	// Codes are matched case-sensitively.
	ErrNotFound = errors.New("coupon not found")
	// ErrInvalid is returned when a coupon is inactive, outside its valid
	// window, or has exhausted its usage limit.
	ErrInvalid = errors.New("coupon not valid or expired")
)

// MinimumNotMetError indicates the order subtotal is below the coupon's
// minimum amount.
type MinimumNotMetError struct {
	Minimum decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("order minimum for this coupon is %s", e.Minimum.StringFixed(2))
}

// Coupon is a discount code with a validity window, usage cap, and
// minimum-order constraint. UsedCount only ever increases; the increment
// happens through Repository.ClaimUse, never read-then-write.
type Coupon struct {
	Code          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinimumAmount decimal.Decimal
	UsageLimit    *int
	UsedCount     int
	IsActive      bool
	ValidFrom     time.Time
	ValidTo       time.Time
}

// ValidAt reports whether the coupon can be applied at the given instant:
// active, within [ValidFrom, ValidTo], and under its usage limit.
func (c *Coupon) ValidAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// Repository provides lookup and use-claiming of coupons.
type Repository interface {
	// FindByCode returns the coupon with the exact given code, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// ClaimUse increments the coupon's usage counter if and only if the
	// coupon is still valid at now. The check and increment are one atomic
	// conditional update; a failed claim returns ErrInvalid. Two concurrent
	// claims against a coupon with one remaining use resolve to exactly one
	// success.
	ClaimUse(ctx context.Context, code string, now time.Time) error
}
