package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulakit/checkout/internal/domain/enrollment"
)

const (
	// insertEnrollmentSQL returns the new row only when this call created
	// it; an existing enrollment falls through to the follow-up select.
	insertEnrollmentSQL = `INSERT INTO enrollments (student_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, course_id) DO NOTHING
		RETURNING student_id, course_id, progress, enrolled_at, completed_at`

	getEnrollmentSQL = `SELECT student_id, course_id, progress, enrolled_at, completed_at
		FROM enrollments WHERE student_id = $1 AND course_id = $2`

	enrollmentExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2
	)`

	listEnrollmentsSQL = `SELECT student_id, course_id, progress, enrolled_at, completed_at
		FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at DESC`
)

var _ enrollment.Repository = (*EnrollmentRepository)(nil)

// EnrollmentRepository implements enrollment.Repository backed by
// PostgreSQL. The (student_id, course_id) primary key enforces the
// one-enrollment-per-course invariant.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository returns an EnrollmentRepository that uses the
// given pool.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// GetOrCreate idempotently grants an enrollment. Concurrent calls resolve
// to exactly one inserted row; every caller gets the surviving record.
func (r *EnrollmentRepository) GetOrCreate(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, bool, error) {
	rows, err := r.pool.Query(ctx, insertEnrollmentSQL, studentID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("creating enrollment: %w", err)
	}

	e, err := pgx.CollectExactlyOneRow(rows, scanEnrollment)
	if err == nil {
		return &e, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("creating enrollment: %w", err)
	}

	// Row already existed; fetch it.
	rows, err = r.pool.Query(ctx, getEnrollmentSQL, studentID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("getting enrollment: %w", err)
	}
	e, err = pgx.CollectExactlyOneRow(rows, scanEnrollment)
	if err != nil {
		return nil, false, fmt.Errorf("getting enrollment: %w", err)
	}
	return &e, false, nil
}

// Exists reports whether the student is enrolled in the course.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, enrollmentExistsSQL, studentID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking enrollment: %w", err)
	}
	return exists, nil
}

// ListByStudent returns the student's enrollments, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]enrollment.Enrollment, error) {
	rows, err := r.pool.Query(ctx, listEnrollmentsSQL, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	return pgx.CollectRows(rows, scanEnrollment)
}

func scanEnrollment(row pgx.CollectableRow) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := row.Scan(&e.StudentID, &e.CourseID, &e.Progress, &e.EnrolledAt, &e.CompletedAt)
	return e, err
}
