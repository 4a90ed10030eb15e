package enrollment

import (
	"context"
	"time"
)

// Enrollment grants a student access to a course. Unique per
// (student, course), enforced by the storage layer. Progress is mutated
// by lesson tracking elsewhere; this core only creates and reads rows.
type Enrollment struct {
	StudentID   string
	CourseID    string
	Progress    int
	EnrolledAt  time.Time
	CompletedAt *time.Time
}

// Repository defines persistence operations for enrollments.
type Repository interface {
	// GetOrCreate inserts an enrollment for (studentID, courseID) unless one
	// already exists. It returns the surviving row and whether it was created
	// by this call.
	GetOrCreate(ctx context.Context, studentID, courseID string) (*Enrollment, bool, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
}
