package api

import (
	"net/http"
	"time"

	"github.com/aulakit/checkout/internal/domain/course"
	"github.com/aulakit/checkout/internal/domain/enrollment"
)

type courseResponse struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	IsFree bool    `json:"isFree"`
}

func toCourseResponse(c course.Course) courseResponse {
	return courseResponse{
		ID:     c.ID,
		Title:  c.Title,
		Price:  c.FinalPrice().InexactFloat64(),
		IsFree: c.IsFree,
	}
}

// ListCourses returns every published course in the catalog.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]courseResponse, len(courses))
	for i, c := range courses {
		out[i] = toCourseResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCourse returns a single published course by ID.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.courses.GetByID(r.Context(), r.PathValue("courseID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(*c))
}

type enrollmentResponse struct {
	CourseID    string  `json:"courseId"`
	Progress    int     `json:"progress"`
	EnrolledAt  string  `json:"enrolledAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// ListEnrollments returns the current user's enrollments.
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	list, err := h.enrollments.ListByStudent(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]enrollmentResponse, len(list))
	for i, e := range list {
		out[i] = toEnrollmentResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func toEnrollmentResponse(e enrollment.Enrollment) enrollmentResponse {
	resp := enrollmentResponse{
		CourseID:   e.CourseID,
		Progress:   e.Progress,
		EnrolledAt: e.EnrolledAt.UTC().Format(time.RFC3339),
	}
	if e.CompletedAt != nil {
		s := e.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}
