package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/order"
	"github.com/aulakit/checkout/internal/domain/payment"
)

const (
	completeOrderSQL = `UPDATE orders SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'pending'`

	orderStatusSQL = `SELECT status FROM orders WHERE id = $1`

	// One payment row per order item. The (order_id, course_id) unique
	// constraint makes re-inserting under retry a no-op.
	insertPaymentSQL = `INSERT INTO payments
		(id, order_id, user_id, course_id, payment_method, amount, currency,
		 status, intent_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id, course_id) DO NOTHING`

	grantEnrollmentSQL = `INSERT INTO enrollments (student_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, course_id) DO NOTHING`

	clearCartSQL = `DELETE FROM cart_items USING carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository persists the payment-confirmation unit backed by
// PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CompleteOrder commits the entire confirmation as one transaction:
// status flip, per-item payment rows, per-item enrollments, cart clear.
// The flip runs first so concurrent confirms serialize on the order row;
// the loser observes the completed status and returns without writing.
// A crash before commit rolls everything back and leaves the order
// pending for a later retry.
func (r *PaymentRepository) CompleteOrder(ctx context.Context, p payment.CompleteOrderParams) error {
	o := p.Order
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, completeOrderSQL, o.ID, p.Now)
		if err != nil {
			return fmt.Errorf("completing order %q: %w", o.OrderNumber, err)
		}
		if tag.RowsAffected() == 0 {
			var status string
			if err := tx.QueryRow(ctx, orderStatusSQL, o.ID).Scan(&status); err != nil {
				return fmt.Errorf("inspecting order %q: %w", o.OrderNumber, err)
			}
			if status == string(order.StatusCompleted) {
				// Another confirm already granted everything.
				return nil
			}
			return order.ErrNotPending
		}

		for _, item := range o.Items {
			_, err := tx.Exec(ctx, insertPaymentSQL,
				uuid.New().String(), o.ID, o.UserID, item.CourseID,
				string(p.Method), item.Price, p.Currency,
				string(payment.StatusCompleted), p.IntentID, p.Now,
			)
			if err != nil {
				return fmt.Errorf("recording payment for course %q: %w", item.CourseID, err)
			}

			if _, err := tx.Exec(ctx, grantEnrollmentSQL, o.UserID, item.CourseID); err != nil {
				return fmt.Errorf("granting enrollment for course %q: %w", item.CourseID, err)
			}
		}

		if _, err := tx.Exec(ctx, clearCartSQL, o.UserID); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}
