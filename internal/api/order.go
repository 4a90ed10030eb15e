package api

import (
	"net/http"
	"time"

	"github.com/aulakit/checkout/internal/domain/order"
)

type orderItemResponse struct {
	CourseID string  `json:"courseId"`
	Price    float64 `json:"price"`
}

type orderResponse struct {
	OrderNumber    string              `json:"orderNumber"`
	Status         string              `json:"status"`
	Subtotal       float64             `json:"subtotal"`
	DiscountAmount float64             `json:"discountAmount"`
	TotalAmount    float64             `json:"totalAmount"`
	CouponCode     string              `json:"couponCode,omitempty"`
	Items          []orderItemResponse `json:"items,omitempty"`
	CreatedAt      string              `json:"createdAt"`
	CompletedAt    *string             `json:"completedAt,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal.InexactFloat64(),
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		TotalAmount:    o.TotalAmount.InexactFloat64(),
		CouponCode:     o.CouponCode,
		CreatedAt:      o.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			CourseID: item.CourseID,
			Price:    item.Price.InexactFloat64(),
		})
	}
	if o.CompletedAt != nil {
		s := o.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// CreateOrder snapshots the user's cart into a new pending order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.CreateFromCart(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns the user's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(list))
	for i := range list {
		out[i] = toOrderResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder returns one of the user's orders by number.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), UserFromContext(r.Context()), r.PathValue("orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CancelOrder moves a pending order to cancelled.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orders.Cancel(r.Context(), UserFromContext(r.Context()), r.PathValue("orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon applies a discount code to a pending order.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	o, err := h.orders.ApplyCoupon(r.Context(),
		UserFromContext(r.Context()), r.PathValue("orderNumber"), req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
