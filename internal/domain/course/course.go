package course

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested course does not exist or is
// not published.
var ErrNotFound = errors.New("course not found")

// Course is the catalog read model for a purchasable course. Pricing and
// publication state are owned by the catalog; this core only reads them.
type Course struct {
	ID            string
	Title         string
	IsPublished   bool
	ListPrice     decimal.Decimal
	DiscountPrice *decimal.Decimal
	IsFree        bool
}

// FinalPrice returns the discount price when one is set, otherwise the
// list price.
func (c *Course) FinalPrice() decimal.Decimal {
	if c.DiscountPrice != nil {
		return *c.DiscountPrice
	}
	return c.ListPrice
}

// Repository defines read operations against the course catalog.
// Lookups only surface published courses.
type Repository interface {
	List(ctx context.Context) ([]Course, error)
	GetByID(ctx context.Context, id string) (*Course, error)
}
