package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/coupon"
	"github.com/aulakit/checkout/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, order_number, user_id, status, subtotal, discount_amount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, course_id, price)
		VALUES ($1, $2, $3)`

	getOrderByNumberSQL = `SELECT id, order_number, user_id, status, subtotal,
		discount_amount, total_amount, coupon_code, created_at, completed_at
		FROM orders WHERE order_number = $1 AND user_id = $2`

	listOrdersByUserSQL = `SELECT id, order_number, user_id, status, subtotal,
		discount_amount, total_amount, coupon_code, created_at, completed_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT course_id, price FROM order_items WHERE order_id = $1`

	applyCouponToOrderSQL = `UPDATE orders
		SET coupon_code = $2, discount_amount = $3, total_amount = $4
		WHERE id = $1 AND status = 'pending' AND coupon_code IS NULL`

	orderCouponStateSQL = `SELECT status, coupon_code FROM orders WHERE id = $1`

	cancelOrderSQL = `UPDATE orders SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateWithItems inserts the order and its item snapshots in one
// transaction. A duplicate order number surfaces as ErrNumberConflict so
// the caller can regenerate and retry.
func (r *OrderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.OrderNumber, o.UserID, string(o.Status),
			o.Subtotal, o.DiscountAmount, o.TotalAmount,
		)
		if err != nil {
			return err
		}
		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, insertOrderItemSQL, o.ID, item.CourseID, item.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return order.ErrNumberConflict
		}
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}
	return nil
}

// GetByNumber returns the user's order with its items. The query is
// owner-scoped: another user's order number reads as ErrNotFound.
func (r *OrderRepository) GetByNumber(ctx context.Context, userID, orderNumber string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByNumberSQL, orderNumber, userID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderNumber, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderNumber, err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", orderNumber, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, func(row pgx.CollectableRow) (order.Item, error) {
		var item order.Item
		err := row.Scan(&item.CourseID, &item.Price)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", orderNumber, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, without items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ApplyCoupon claims one coupon use and writes the discount onto the order
// in a single transaction. If the order update finds the order already
// carrying a coupon or no longer pending, the whole transaction rolls
// back, the claimed use included.
func (r *OrderRepository) ApplyCoupon(ctx context.Context, p order.ApplyCouponParams) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, claimCouponUseSQL, p.CouponCode, p.Now)
		if err != nil {
			return fmt.Errorf("claiming use of coupon %q: %w", p.CouponCode, err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrInvalid
		}

		tag, err = tx.Exec(ctx, applyCouponToOrderSQL,
			p.OrderID, p.CouponCode, p.DiscountAmount, p.TotalAmount,
		)
		if err != nil {
			return fmt.Errorf("applying coupon to order %q: %w", p.OrderID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.couponConflict(ctx, tx, p.OrderID)
		}
		return nil
	})
}

// couponConflict inspects why the coupon update missed: terminal status or
// an already-applied coupon.
func (r *OrderRepository) couponConflict(ctx context.Context, tx pgx.Tx, orderID string) error {
	var (
		status     string
		couponCode *string
	)
	if err := tx.QueryRow(ctx, orderCouponStateSQL, orderID).Scan(&status, &couponCode); err != nil {
		return fmt.Errorf("inspecting order %q: %w", orderID, err)
	}
	if status != string(order.StatusPending) {
		return order.ErrNotPending
	}
	if couponCode != nil {
		return order.ErrCouponAlreadyApplied
	}
	return order.ErrNotFound
}

// Cancel flips a pending order to cancelled.
func (r *OrderRepository) Cancel(ctx context.Context, orderID string) error {
	tag, err := r.pool.Exec(ctx, cancelOrderSQL, orderID)
	if err != nil {
		return fmt.Errorf("cancelling order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotPending
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		status     string
		couponCode *string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status, &o.Subtotal,
		&o.DiscountAmount, &o.TotalAmount, &couponCode, &o.CreatedAt, &o.CompletedAt,
	)
	o.Status = order.Status(status)
	if couponCode != nil {
		o.CouponCode = *couponCode
	}
	return o, err
}
