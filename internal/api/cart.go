package api

import (
	"net/http"

	"github.com/aulakit/checkout/internal/domain/cart"
)

type cartLineResponse struct {
	Course courseResponse `json:"course"`
	Price  float64        `json:"price"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total float64            `json:"total"`
}

func toCartResponse(v *cart.View) cartResponse {
	resp := cartResponse{
		Items: make([]cartLineResponse, len(v.Lines)),
		Total: v.Total.InexactFloat64(),
	}
	for i, line := range v.Lines {
		resp.Items[i] = cartLineResponse{
			Course: toCourseResponse(line.Course),
			Price:  line.Price.InexactFloat64(),
		}
	}
	return resp
}

// GetCart returns the current user's cart with live catalog prices.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.View(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

type addCartItemRequest struct {
	CourseID string `json:"courseId"`
}

type addCartItemResponse struct {
	// Enrolled is true when the course was free and the user was enrolled
	// directly instead of carted.
	Enrolled bool `json:"enrolled"`
}

// AddCartItem puts a course in the cart, or enrolls the user directly for
// free courses.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "courseId required")
		return
	}

	enrolled, err := h.carts.Add(r.Context(), UserFromContext(r.Context()), req.CourseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addCartItemResponse{Enrolled: enrolled})
}

// RemoveCartItem deletes a course from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.carts.Remove(r.Context(), UserFromContext(r.Context()), r.PathValue("courseID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
