package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aulakit/checkout/internal/domain/order"
)

// Status is a payment record's state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Method identifies the payment processor a record came through.
type Method string

const (
	MethodStripe   Method = "stripe"
	MethodPayPal   Method = "paypal"
	MethodTransfer Method = "transfer"
)

// ErrNotCompleted is returned by Confirm when the gateway reports any
// intent status other than succeeded. Nothing is mutated in that case.
var ErrNotCompleted = errors.New("payment not completed")

// ErrIntentMismatch is returned by Confirm when the supplied intent was
// not created for the order being confirmed. Without this check a
// succeeded intent from a cheaper order could complete a more expensive
// one.
var ErrIntentMismatch = errors.New("payment intent does not match order")

// GatewayError wraps a gateway-side failure. It is surfaced to the caller
// verbatim and never retried automatically.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Payment is an append-only capture record. One row is written per order
// item on confirmed success, never one per order.
type Payment struct {
	ID          string
	OrderID     string
	UserID      string
	CourseID    string
	Method      Method
	Amount      decimal.Decimal
	Currency    string
	Status      Status
	IntentID    string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// IntentSucceeded is the gateway status that permits entitlement grants.
const IntentSucceeded = "succeeded"

// Intent is the gateway-side charge object correlated with an order.
// Metadata carries the order_number and user_id the intent was created
// with; Confirm uses it to bind the intent back to its order.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

// Gateway is the external payment processor. Amounts are transmitted in
// minor currency units.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// CompleteOrderParams carries everything the confirm transaction writes.
type CompleteOrderParams struct {
	Order    *order.Order
	IntentID string
	Method   Method
	Currency string
	Now      time.Time
}

// Repository persists the confirm step. CompleteOrder is the single
// all-or-nothing unit of this core: per-item payment rows, per-item
// enrollment grants, the pending→completed status flip, and the cart
// clear either all commit or none do. Every write is idempotent, so a
// confirm interrupted before commit leaves the order pending and safely
// retriable, and a duplicate confirm is a no-op.
type Repository interface {
	CompleteOrder(ctx context.Context, p CompleteOrderParams) error
}
