package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aulakit/checkout/internal/domain/order"
)

var minorUnits = decimal.NewFromInt(100)

// Service reconciles external payment confirmations with local order and
// entitlement state.
type Service struct {
	orders   order.Repository
	gateway  Gateway
	store    Repository
	currency string
	now      func() time.Time
}

// NewService creates a payment Service. currency is the ISO code orders
// are charged in.
func NewService(orders order.Repository, gateway Gateway, store Repository, currency string) *Service {
	return &Service{
		orders:   orders,
		gateway:  gateway,
		store:    store,
		currency: currency,
		now:      time.Now,
	}
}

// Initiate asks the gateway to create a charge intent for the order's
// total. The order must exist, belong to the user, and be pending.
// Gateway failures are returned as-is with no retry; the caller decides
// whether to re-invoke.
//
// An order whose coupon discounted the total to zero has nothing to
// charge: it completes immediately without a gateway round-trip and the
// returned intent reports succeeded with no client secret.
func (s *Service) Initiate(ctx context.Context, userID, orderNumber string) (*Intent, error) {
	o, err := s.orders.GetByNumber(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrNotPending
	}

	if o.TotalAmount.IsZero() {
		if err := s.completeOrder(ctx, o, ""); err != nil {
			return nil, err
		}
		return &Intent{Status: IntentSucceeded}, nil
	}

	amountMinor := o.TotalAmount.Mul(minorUnits).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, s.currency, map[string]string{
		"order_number": o.OrderNumber,
		"user_id":      o.UserID,
	})
	if err != nil {
		return nil, &GatewayError{Op: "create intent", Err: err}
	}
	return intent, nil
}

// Confirm fetches the intent from the gateway and, only on succeeded,
// grants entitlements: one completed payment row and one enrollment per
// order item, the order flipped to completed, and the cart cleared, all
// in one transactional unit. The intent must carry this order's number
// in its metadata; an intent created for a different order is rejected
// with ErrIntentMismatch. Any other intent status mutates nothing and
// returns ErrNotCompleted. Confirming an already-completed order is a
// no-op success, so retries after partial failures are always safe.
func (s *Service) Confirm(ctx context.Context, userID, orderNumber, intentID string) (*order.Order, error) {
	o, err := s.orders.GetByNumber(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCompleted {
		return o, nil
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrNotPending
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, &GatewayError{Op: "retrieve intent", Err: err}
	}
	if intent.Metadata["order_number"] != o.OrderNumber {
		return nil, ErrIntentMismatch
	}
	if intent.Status != IntentSucceeded {
		return nil, ErrNotCompleted
	}

	if err := s.completeOrder(ctx, o, intent.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// completeOrder runs the transactional grant unit and reflects the flip
// on the in-memory order.
func (s *Service) completeOrder(ctx context.Context, o *order.Order, intentID string) error {
	now := s.now()
	err := s.store.CompleteOrder(ctx, CompleteOrderParams{
		Order:    o,
		IntentID: intentID,
		Method:   MethodStripe,
		Currency: s.currency,
		Now:      now,
	})
	if err != nil {
		return err
	}

	o.Status = order.StatusCompleted
	o.CompletedAt = &now
	return nil
}
