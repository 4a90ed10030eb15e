package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aulakit/checkout/internal/domain/cart"
	"github.com/aulakit/checkout/internal/domain/coupon"
)

// numberAttempts bounds retries on order-number collisions. A collision is
// astronomically unlikely with 8 hex-ish characters; the loop exists so a
// conflict surfaces as a retry instead of a failed checkout.
const numberAttempts = 3

// CartReader supplies the live-priced cart view an order is snapshotted from.
type CartReader interface {
	View(ctx context.Context, userID string) (*cart.View, error)
}

// Service encapsulates the order workflow: cart snapshotting and coupon
// application.
type Service struct {
	orders  Repository
	coupons coupon.Repository
	carts   CartReader
	now     func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(orders Repository, coupons coupon.Repository, carts CartReader) *Service {
	return &Service{
		orders:  orders,
		coupons: coupons,
		carts:   carts,
		now:     time.Now,
	}
}

// CreateFromCart snapshots the user's cart into a new pending order. Each
// cart item's current final price is frozen into an order item; the order
// and its items commit together. The cart itself is left untouched; it is
// only cleared after payment confirmation succeeds, so an abandoned order
// never costs the user their cart.
func (s *Service) CreateFromCart(ctx context.Context, userID string) (*Order, error) {
	view, err := s.carts.View(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	if len(view.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]Item, len(view.Lines))
	subtotal := decimal.Zero
	for i, line := range view.Lines {
		items[i] = Item{CourseID: line.Course.ID, Price: line.Price}
		subtotal = subtotal.Add(line.Price)
	}

	o := &Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Status:         StatusPending,
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		TotalAmount:    subtotal,
		Items:          items,
	}

	for attempt := 0; attempt < numberAttempts; attempt++ {
		o.OrderNumber = NewNumber()
		err = s.orders.CreateWithItems(ctx, o)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrNumberConflict) {
			return nil, errors.Wrap(err, "create order")
		}
	}
	return nil, errors.Wrap(err, "create order")
}

// ApplyCoupon validates the coupon against the order's frozen subtotal,
// computes the discount, and commits the claim and order update as one
// transactional unit. At most one coupon per order; re-application is
// rejected rather than silently replacing the previous claim.
func (s *Service) ApplyCoupon(ctx context.Context, userID, orderNumber, code string) (*Order, error) {
	o, err := s.orders.GetByNumber(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrNotPending
	}
	if o.CouponCode != "" {
		return nil, ErrCouponAlreadyApplied
	}

	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !c.ValidAt(now) {
		return nil, coupon.ErrInvalid
	}
	if o.Subtotal.LessThan(c.MinimumAmount) {
		return nil, &coupon.MinimumNotMetError{Minimum: c.MinimumAmount}
	}

	discount := c.Discount(o.Subtotal)
	total := o.Subtotal.Sub(discount)

	err = s.orders.ApplyCoupon(ctx, ApplyCouponParams{
		OrderID:        o.ID,
		CouponCode:     c.Code,
		DiscountAmount: discount,
		TotalAmount:    total,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	o.CouponCode = c.Code
	o.DiscountAmount = discount
	o.TotalAmount = total
	return o, nil
}

// Get returns the user's order by number.
func (s *Service) Get(ctx context.Context, userID, orderNumber string) (*Order, error) {
	return s.orders.GetByNumber(ctx, userID, orderNumber)
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Cancel moves a pending order to the terminal cancelled state.
func (s *Service) Cancel(ctx context.Context, userID, orderNumber string) error {
	o, err := s.orders.GetByNumber(ctx, userID, orderNumber)
	if err != nil {
		return err
	}
	return s.orders.Cancel(ctx, o.ID)
}
