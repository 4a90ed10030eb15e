package cart

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulakit/checkout/internal/domain/course"
	"github.com/aulakit/checkout/internal/domain/enrollment"
)

// --- Mock implementations ---

type mockCartRepo struct {
	items   map[string][]Item
	addErr  error
	remErr  error
	listErr error
}

func (m *mockCartRepo) AddItem(_ context.Context, userID, courseID string) error {
	if m.addErr != nil {
		return m.addErr
	}
	if m.items == nil {
		m.items = make(map[string][]Item)
	}
	m.items[userID] = append(m.items[userID], Item{CourseID: courseID, AddedAt: time.Now()})
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _, _ string) error {
	return m.remErr
}

func (m *mockCartRepo) ListItems(_ context.Context, userID string) ([]Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.items[userID], nil
}

type mockCourseRepo struct {
	byID map[string]*course.Course
}

func (m *mockCourseRepo) List(_ context.Context) ([]course.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*course.Course, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, course.ErrNotFound
	}
	return c, nil
}

type mockEnrollmentRepo struct {
	owned   map[string]bool
	granted []string
}

func (m *mockEnrollmentRepo) GetOrCreate(_ context.Context, studentID, courseID string) (*enrollment.Enrollment, bool, error) {
	m.granted = append(m.granted, courseID)
	return &enrollment.Enrollment{StudentID: studentID, CourseID: courseID}, true, nil
}

func (m *mockEnrollmentRepo) Exists(_ context.Context, _, courseID string) (bool, error) {
	return m.owned[courseID], nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, _ string) ([]enrollment.Enrollment, error) {
	return nil, nil
}

// --- Helpers ---

func newTestCourse(id, title, price string) *course.Course {
	return &course.Course{
		ID:          id,
		Title:       title,
		IsPublished: true,
		ListPrice:   decimal.RequireFromString(price),
	}
}

func newCourseRepo(courses ...*course.Course) *mockCourseRepo {
	byID := make(map[string]*course.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return &mockCourseRepo{byID: byID}
}

// --- Tests ---

func TestAdd(t *testing.T) {
	carts := &mockCartRepo{}
	svc := NewService(carts, newCourseRepo(newTestCourse("c1", "Go", "80.00")), &mockEnrollmentRepo{})

	enrolled, err := svc.Add(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.Len(t, carts.items["u1"], 1)
}

func TestAdd_CourseNotFound(t *testing.T) {
	svc := NewService(&mockCartRepo{}, newCourseRepo(), &mockEnrollmentRepo{})

	_, err := svc.Add(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, course.ErrNotFound)
}

func TestAdd_AlreadyEnrolled(t *testing.T) {
	enrollments := &mockEnrollmentRepo{owned: map[string]bool{"c1": true}}
	svc := NewService(&mockCartRepo{}, newCourseRepo(newTestCourse("c1", "Go", "80.00")), enrollments)

	_, err := svc.Add(context.Background(), "u1", "c1")
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestAdd_FreeCourseEnrollsDirectly(t *testing.T) {
	free := newTestCourse("c1", "Git Basics", "0.00")
	free.IsFree = true
	carts := &mockCartRepo{}
	enrollments := &mockEnrollmentRepo{}
	svc := NewService(carts, newCourseRepo(free), enrollments)

	enrolled, err := svc.Add(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Equal(t, []string{"c1"}, enrollments.granted)
	assert.Empty(t, carts.items["u1"], "free course must not land in the cart")
}

func TestAdd_Duplicate(t *testing.T) {
	carts := &mockCartRepo{addErr: ErrAlreadyInCart}
	svc := NewService(carts, newCourseRepo(newTestCourse("c1", "Go", "80.00")), &mockEnrollmentRepo{})

	_, err := svc.Add(context.Background(), "u1", "c1")
	require.ErrorIs(t, err, ErrAlreadyInCart)
}

func TestRemove_NotFound(t *testing.T) {
	carts := &mockCartRepo{remErr: ErrItemNotFound}
	svc := NewService(carts, newCourseRepo(), &mockEnrollmentRepo{})

	err := svc.Remove(context.Background(), "u1", "c1")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestView_LivePricing(t *testing.T) {
	discounted := newTestCourse("c2", "Postgres", "60.00")
	discountPrice := decimal.RequireFromString("50.00")
	discounted.DiscountPrice = &discountPrice

	carts := &mockCartRepo{items: map[string][]Item{
		"u1": {{CourseID: "c1"}, {CourseID: "c2"}},
	}}
	svc := NewService(carts, newCourseRepo(newTestCourse("c1", "Go", "80.00"), discounted), &mockEnrollmentRepo{})

	view, err := svc.View(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.True(t, decimal.RequireFromString("80.00").Equal(view.Lines[0].Price))
	assert.True(t, decimal.RequireFromString("50.00").Equal(view.Lines[1].Price))
	assert.True(t, decimal.RequireFromString("130.00").Equal(view.Total), "got %s", view.Total)
}

func TestView_SkipsUnpublishedCourses(t *testing.T) {
	carts := &mockCartRepo{items: map[string][]Item{
		"u1": {{CourseID: "gone"}, {CourseID: "c1"}},
	}}
	svc := NewService(carts, newCourseRepo(newTestCourse("c1", "Go", "80.00")), &mockEnrollmentRepo{})

	view, err := svc.View(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "c1", view.Lines[0].Course.ID)
	assert.True(t, decimal.RequireFromString("80.00").Equal(view.Total))
}

func TestView_EmptyCart(t *testing.T) {
	svc := NewService(&mockCartRepo{}, newCourseRepo(), &mockEnrollmentRepo{})

	view, err := svc.View(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
}

func TestView_ListError(t *testing.T) {
	carts := &mockCartRepo{listErr: errors.New("db down")}
	svc := NewService(carts, newCourseRepo(), &mockEnrollmentRepo{})

	_, err := svc.View(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list cart items")
}
