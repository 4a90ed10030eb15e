package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/coupon"
)

const (
	// Codes are matched case-sensitively: user-supplied opaque strings
	// compared exactly against the stored code.
	getCouponByCodeSQL = `SELECT code, description, discount_type, discount_value,
		minimum_amount, usage_limit, used_count, is_active, valid_from, valid_to
		FROM coupons WHERE code = $1`

	// claimCouponUseSQL re-checks validity inside the update so the check
	// and increment are one atomic conditional statement. Concurrent claims
	// on a coupon's last remaining use serialize on the row lock and exactly
	// one sees the predicate still true.
	claimCouponUseSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE code = $1
		  AND is_active
		  AND $2 >= valid_from AND $2 <= valid_to
		  AND (usage_limit IS NULL OR used_count < usage_limit)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its exact code.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// ClaimUse atomically increments the usage counter while the coupon is
// still valid at now. Returns coupon.ErrInvalid when the claim loses.
func (r *CouponRepository) ClaimUse(ctx context.Context, code string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, claimCouponUseSQL, code, now)
	if err != nil {
		return fmt.Errorf("claiming use of coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalid
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		usageLimit   *int32
	)
	err := row.Scan(
		&c.Code, &c.Description, &discountType, &c.DiscountValue,
		&c.MinimumAmount, &usageLimit, &c.UsedCount, &c.IsActive,
		&c.ValidFrom, &c.ValidTo,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	if usageLimit != nil {
		limit := int(*usageLimit)
		c.UsageLimit = &limit
	}
	return c, err
}
