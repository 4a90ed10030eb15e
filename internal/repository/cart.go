package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/cart"
)

const (
	// addCartItemSQL creates the user's cart on first use and inserts the
	// item in one statement. The (cart_id, course_id) primary key makes a
	// concurrent duplicate insert lose with a unique violation.
	addCartItemSQL = `WITH c AS (
		INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id
	)
	INSERT INTO cart_items (cart_id, course_id) SELECT c.id, $3 FROM c`

	removeCartItemSQL = `DELETE FROM cart_items USING carts
		WHERE cart_items.cart_id = carts.id
		  AND carts.user_id = $1
		  AND cart_items.course_id = $2`

	listCartItemsSQL = `SELECT ci.course_id, ci.added_at
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id = $1
		ORDER BY ci.added_at`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// AddItem inserts a course into the user's cart, creating the cart lazily.
// Returns cart.ErrAlreadyInCart when the course is already held.
func (r *CartRepository) AddItem(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx, addCartItemSQL, uuid.New().String(), userID, courseID)
	if err != nil {
		if isUniqueViolation(err, "cart_items_pkey") {
			return cart.ErrAlreadyInCart
		}
		return fmt.Errorf("adding course %q to cart: %w", courseID, err)
	}
	return nil
}

// RemoveItem deletes the item, or returns cart.ErrItemNotFound. A
// courseID that is not a valid UUID cannot be in any cart, so it is
// reported as not found.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, courseID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, courseID)
	if err != nil {
		if isInvalidTextRep(err) {
			return cart.ErrItemNotFound
		}
		return fmt.Errorf("removing course %q from cart: %w", courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// ListItems returns the user's cart items in insertion order. A user with
// no cart yet simply has no items.
func (r *CartRepository) ListItems(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var item cart.Item
		err := row.Scan(&item.CourseID, &item.AddedAt)
		return item, err
	})
}
