package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aulakit/checkout/internal/domain/course"
	"github.com/aulakit/checkout/internal/domain/enrollment"
)

// Line is a cart item joined with its current catalog state.
type Line struct {
	Course course.Course
	// Price is the course's final price at read time. It is never cached.
	Price decimal.Decimal
}

// View is the cart as presented to the user: live-priced lines and their sum.
// Discounts never appear here; they belong to orders.
type View struct {
	Lines []Line
	Total decimal.Decimal
}

// Service implements cart mutations and the live-priced cart view.
type Service struct {
	carts       Repository
	courses     course.Repository
	enrollments enrollment.Repository
}

// NewService creates a cart Service with the required domain dependencies.
func NewService(
	carts Repository,
	courses course.Repository,
	enrollments enrollment.Repository,
) *Service {
	return &Service{
		carts:       carts,
		courses:     courses,
		enrollments: enrollments,
	}
}

// Add puts a published course into the user's cart. Users who already own
// the course get ErrAlreadyEnrolled; a duplicate cart item gets
// ErrAlreadyInCart. Free courses bypass the cart entirely: the user is
// enrolled directly and Add reports enrolled=true.
func (s *Service) Add(ctx context.Context, userID, courseID string) (enrolled bool, err error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}

	owned, err := s.enrollments.Exists(ctx, userID, c.ID)
	if err != nil {
		return false, errors.Wrap(err, "check enrollment")
	}
	if owned {
		return false, ErrAlreadyEnrolled
	}

	if c.IsFree {
		if _, _, err := s.enrollments.GetOrCreate(ctx, userID, c.ID); err != nil {
			return false, errors.Wrap(err, "grant free enrollment")
		}
		return true, nil
	}

	if err := s.carts.AddItem(ctx, userID, c.ID); err != nil {
		return false, err
	}
	return false, nil
}

// Remove deletes a course from the user's cart. No status checks: removal
// is always allowed when the item exists.
func (s *Service) Remove(ctx context.Context, userID, courseID string) error {
	return s.carts.RemoveItem(ctx, userID, courseID)
}

// View returns the cart's items with their current catalog prices and the
// live total.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	items, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}

	view := &View{
		Lines: make([]Line, 0, len(items)),
		Total: decimal.Zero,
	}
	for _, item := range items {
		c, err := s.courses.GetByID(ctx, item.CourseID)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				// Course unpublished after it was added; skip rather than
				// block the whole cart.
				continue
			}
			return nil, errors.Wrapf(err, "get course %s", item.CourseID)
		}
		price := c.FinalPrice()
		view.Lines = append(view.Lines, Line{Course: *c, Price: price})
		view.Total = view.Total.Add(price)
	}
	return view, nil
}
