package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart mutations.
var (
	// ErrAlreadyEnrolled is returned when the user already owns the course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrAlreadyInCart is returned when the course is already a cart item.
	ErrAlreadyInCart = errors.New("course is already in the cart")
	// ErrItemNotFound is returned when removing a course that is not in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
)

// Item is a single course reference held in a user's cart. Items carry no
// price: totals are always recomputed from the live catalog.
type Item struct {
	CourseID string
	AddedAt  time.Time
}

// Repository defines persistence operations for carts. A user's cart is
// created lazily on first insert; emptying it never deletes the cart row.
type Repository interface {
	// AddItem inserts a course into the user's cart, creating the cart if
	// needed. Returns ErrAlreadyInCart when the (cart, course) pair already
	// exists; under concurrent duplicate inserts exactly one caller wins.
	AddItem(ctx context.Context, userID, courseID string) error
	// RemoveItem deletes the item unconditionally, or returns ErrItemNotFound.
	RemoveItem(ctx context.Context, userID, courseID string) error
	ListItems(ctx context.Context, userID string) ([]Item, error)
}
