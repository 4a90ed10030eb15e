package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is an order's lifecycle state. Completed and cancelled are
// terminal; the only transitions are pending→completed and
// pending→cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Sentinel errors for the order workflow.
var (
	// ErrEmptyCart is returned when creating an order from a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when an order does not exist or does not
	// belong to the requesting user.
	ErrNotFound = errors.New("order not found")
	// ErrNotPending is returned when mutating an order in a terminal state.
	ErrNotPending = errors.New("order is not pending")
	// ErrCouponAlreadyApplied is returned when an order already carries a
	// coupon. Replacing a coupon would leak the previous claim, so it is
	// rejected outright.
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied to this order")
	// ErrNumberConflict signals an order-number collision on insert; the
	// service retries with a fresh number.
	ErrNumberConflict = errors.New("order number already exists")
)

// Order is an immutable snapshot of a cart at creation time plus lifecycle
// state. Subtotal and item prices are frozen at creation and never
// re-derived from the live catalog.
type Order struct {
	ID             string
	OrderNumber    string
	UserID         string
	Status         Status
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	CouponCode     string
	Items          []Item
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Item is a single order line: a course and its price frozen at
// order-creation time.
type Item struct {
	CourseID string
	Price    decimal.Decimal
}

// NewNumber generates a human-readable 8-character uppercase order number
// from a random UUID. Uniqueness is enforced by the storage layer;
// on conflict the caller regenerates and retries.
func NewNumber() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// ApplyCouponParams carries the pre-computed pricing for a coupon
// application. Claim-and-update must commit as one unit.
type ApplyCouponParams struct {
	OrderID        string
	CouponCode     string
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Now            time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateWithItems inserts the order and all of its items in one
	// transaction. Returns ErrNumberConflict when the order number is taken.
	CreateWithItems(ctx context.Context, o *Order) error
	// GetByNumber returns the user's order with its items, or ErrNotFound.
	GetByNumber(ctx context.Context, userID, orderNumber string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ApplyCoupon atomically claims one coupon use (conditional on the
	// coupon still being valid) and writes the discount onto the order.
	// Returns coupon.ErrInvalid when the claim loses, ErrCouponAlreadyApplied
	// or ErrNotPending when the order no longer accepts a coupon.
	ApplyCoupon(ctx context.Context, p ApplyCouponParams) error
	// Cancel flips a pending order to cancelled. Returns ErrNotPending when
	// the order is already terminal.
	Cancel(ctx context.Context, orderID string) error
}
