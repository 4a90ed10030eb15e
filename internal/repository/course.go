package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/course"
)

const (
	listCoursesSQL = `SELECT id, title, is_published, list_price, discount_price, is_free
		FROM courses WHERE is_published ORDER BY title`

	getCourseByIDSQL = `SELECT id, title, is_published, list_price, discount_price, is_free
		FROM courses WHERE id = $1 AND is_published`
)

var _ course.Repository = (*CourseRepository)(nil)

// CourseRepository implements course.Repository backed by PostgreSQL.
// Only published courses are visible through it.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository returns a CourseRepository that uses the given pool.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// List returns all published courses ordered by title.
func (r *CourseRepository) List(ctx context.Context) ([]course.Course, error) {
	rows, err := r.pool.Query(ctx, listCoursesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return pgx.CollectRows(rows, scanCourse)
}

// GetByID returns a published course by its identifier. An id that is
// not a valid UUID cannot name a course, so it reports ErrNotFound
// rather than a storage error.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*course.Course, error) {
	rows, err := r.pool.Query(ctx, getCourseByIDSQL, id)
	if err != nil {
		if isInvalidTextRep(err) {
			return nil, course.ErrNotFound
		}
		return nil, fmt.Errorf("getting course %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCourse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidTextRep(err) {
			return nil, course.ErrNotFound
		}
		return nil, fmt.Errorf("getting course %q: %w", id, err)
	}
	return &c, nil
}

func scanCourse(row pgx.CollectableRow) (course.Course, error) {
	var c course.Course
	err := row.Scan(
		&c.ID, &c.Title, &c.IsPublished, &c.ListPrice, &c.DiscountPrice, &c.IsFree,
	)
	return c, err
}
