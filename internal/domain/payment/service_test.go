package payment

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulakit/checkout/internal/domain/order"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byNumber map[string]*order.Order
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, _ *order.Order) error { return nil }

func (m *mockOrderRepo) GetByNumber(_ context.Context, _, orderNumber string) (*order.Order, error) {
	o, ok := m.byNumber[orderNumber]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ApplyCoupon(_ context.Context, _ order.ApplyCouponParams) error { return nil }
func (m *mockOrderRepo) Cancel(_ context.Context, _ string) error                       { return nil }

type mockGateway struct {
	created     *Intent
	createErr   error
	lastAmount  int64
	lastMeta    map[string]string
	retrieved   *Intent
	retrieveErr error
}

func (m *mockGateway) CreateIntent(_ context.Context, amountMinor int64, _ string, metadata map[string]string) (*Intent, error) {
	m.lastAmount = amountMinor
	m.lastMeta = metadata
	return m.created, m.createErr
}

func (m *mockGateway) RetrieveIntent(_ context.Context, _ string) (*Intent, error) {
	return m.retrieved, m.retrieveErr
}

type mockStore struct {
	completed   []CompleteOrderParams
	completeErr error
}

func (m *mockStore) CompleteOrder(_ context.Context, p CompleteOrderParams) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed = append(m.completed, p)
	return nil
}

// --- Helpers ---

func pendingOrder(number, total string) *order.Order {
	amt := decimal.RequireFromString(total)
	return &order.Order{
		ID:          "order-1",
		OrderNumber: number,
		UserID:      "u1",
		Status:      order.StatusPending,
		Subtotal:    amt,
		TotalAmount: amt,
		Items: []order.Item{
			{CourseID: "c1", Price: amt},
		},
	}
}

func newTestService(orders *mockOrderRepo, gw *mockGateway, store *mockStore) *Service {
	return NewService(orders, gw, store, "usd")
}

// --- Tests ---

func TestInitiate(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{created: &Intent{ID: "pi_1", ClientSecret: "secret", Status: "requires_payment_method"}}
	svc := newTestService(orders, gw, &mockStore{})

	intent, err := svc.Initiate(context.Background(), "u1", "AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, int64(7200), gw.lastAmount, "amount must be in minor units")
	assert.Equal(t, "AB12CD34", gw.lastMeta["order_number"])
	assert.Equal(t, "u1", gw.lastMeta["user_id"])
}

func TestInitiate_OrderNotFound(t *testing.T) {
	svc := newTestService(&mockOrderRepo{}, &mockGateway{}, &mockStore{})

	_, err := svc.Initiate(context.Background(), "u1", "MISSING0")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestInitiate_NotPending(t *testing.T) {
	o := pendingOrder("AB12CD34", "72.00")
	o.Status = order.StatusCancelled
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{"AB12CD34": o}}
	svc := newTestService(orders, &mockGateway{}, &mockStore{})

	_, err := svc.Initiate(context.Background(), "u1", "AB12CD34")
	require.ErrorIs(t, err, order.ErrNotPending)
}

func TestInitiate_GatewayError(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{createErr: errors.New("card network unreachable")}
	svc := newTestService(orders, gw, &mockStore{})

	_, err := svc.Initiate(context.Background(), "u1", "AB12CD34")

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "create intent", gwErr.Op)
}

func TestConfirm(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{retrieved: &Intent{
		ID:       "pi_1",
		Status:   IntentSucceeded,
		Metadata: map[string]string{"order_number": "AB12CD34"},
	}}
	store := &mockStore{}
	svc := newTestService(orders, gw, store)
	confirmedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return confirmedAt }

	o, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")

	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, confirmedAt, *o.CompletedAt)

	require.Len(t, store.completed, 1)
	p := store.completed[0]
	assert.Equal(t, "pi_1", p.IntentID)
	assert.Equal(t, MethodStripe, p.Method)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, confirmedAt, p.Now)
}

func TestConfirm_NotSucceededMutatesNothing(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{retrieved: &Intent{
		ID:       "pi_1",
		Status:   "processing",
		Metadata: map[string]string{"order_number": "AB12CD34"},
	}}
	store := &mockStore{}
	svc := newTestService(orders, gw, store)

	_, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")

	require.ErrorIs(t, err, ErrNotCompleted)
	assert.Empty(t, store.completed)
	assert.Equal(t, order.StatusPending, orders.byNumber["AB12CD34"].Status)
}

func TestConfirm_AlreadyCompletedIsNoop(t *testing.T) {
	o := pendingOrder("AB12CD34", "72.00")
	o.Status = order.StatusCompleted
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{"AB12CD34": o}}
	gw := &mockGateway{retrieveErr: errors.New("gateway must not be called")}
	store := &mockStore{}
	svc := newTestService(orders, gw, store)

	got, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")

	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
	assert.Empty(t, store.completed)
}

func TestConfirm_CancelledOrder(t *testing.T) {
	o := pendingOrder("AB12CD34", "72.00")
	o.Status = order.StatusCancelled
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{"AB12CD34": o}}
	svc := newTestService(orders, &mockGateway{}, &mockStore{})

	_, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")
	require.ErrorIs(t, err, order.ErrNotPending)
}

func TestConfirm_RetrieveError(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{retrieveErr: errors.New("timeout")}
	svc := newTestService(orders, gw, &mockStore{})

	_, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "retrieve intent", gwErr.Op)
}

func TestInitiate_ZeroTotalCompletesWithoutGateway(t *testing.T) {
	o := pendingOrder("AB12CD34", "25.00")
	o.DiscountAmount = o.Subtotal
	o.TotalAmount = decimal.Zero
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{"AB12CD34": o}}
	gw := &mockGateway{createErr: errors.New("gateway must not be called")}
	store := &mockStore{}
	svc := newTestService(orders, gw, store)
	completedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return completedAt }

	intent, err := svc.Initiate(context.Background(), "u1", "AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, intent.Status)
	assert.Empty(t, intent.ClientSecret)

	require.Len(t, store.completed, 1)
	assert.Empty(t, store.completed[0].IntentID)
	assert.Equal(t, order.StatusCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, completedAt, *o.CompletedAt)
}

func TestConfirm_IntentForDifferentOrder(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{retrieved: &Intent{
		ID:       "pi_other",
		Status:   IntentSucceeded,
		Metadata: map[string]string{"order_number": "ZZ99XX11"},
	}}
	store := &mockStore{}
	svc := newTestService(orders, gw, store)

	_, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_other")

	require.ErrorIs(t, err, ErrIntentMismatch)
	assert.Empty(t, store.completed)
	assert.Equal(t, order.StatusPending, orders.byNumber["AB12CD34"].Status)
}

func TestConfirm_StoreError(t *testing.T) {
	orders := &mockOrderRepo{byNumber: map[string]*order.Order{
		"AB12CD34": pendingOrder("AB12CD34", "72.00"),
	}}
	gw := &mockGateway{retrieved: &Intent{
		ID:       "pi_1",
		Status:   IntentSucceeded,
		Metadata: map[string]string{"order_number": "AB12CD34"},
	}}
	store := &mockStore{completeErr: errors.New("deadlock")}
	svc := newTestService(orders, gw, store)

	_, err := svc.Confirm(context.Background(), "u1", "AB12CD34", "pi_1")

	require.Error(t, err)
	assert.Equal(t, order.StatusPending, orders.byNumber["AB12CD34"].Status)
}
