// Package api exposes the checkout core over a typed JSON HTTP surface.
// Every endpoint decodes into a per-endpoint request schema and validates
// it before touching domain services.
package api

import (
	"net/http"

	"github.com/aulakit/checkout/internal/domain/cart"
	"github.com/aulakit/checkout/internal/domain/course"
	"github.com/aulakit/checkout/internal/domain/enrollment"
	"github.com/aulakit/checkout/internal/domain/order"
	"github.com/aulakit/checkout/internal/domain/payment"
)

// Handler implements the HTTP API, delegating business logic to the
// injected domain services and repositories.
type Handler struct {
	courses     course.Repository
	carts       *cart.Service
	orders      *order.Service
	payments    *payment.Service
	enrollments enrollment.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	courses course.Repository,
	carts *cart.Service,
	orders *order.Service,
	payments *payment.Service,
	enrollments enrollment.Repository,
) *Handler {
	return &Handler{
		courses:     courses,
		carts:       carts,
		orders:      orders,
		payments:    payments,
		enrollments: enrollments,
	}
}

// Routes mounts all API endpoints. Catalog reads are public; everything
// touching a user's cart, orders, payments, or enrollments sits behind
// the security handler.
func (h *Handler) Routes(sec *Security) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/courses", h.ListCourses)
	mux.HandleFunc("GET /api/courses/{courseID}", h.GetCourse)

	authed := func(fn http.HandlerFunc) http.Handler {
		return sec.RequireUser(fn)
	}

	mux.Handle("GET /api/cart", authed(h.GetCart))
	mux.Handle("POST /api/cart/items", authed(h.AddCartItem))
	mux.Handle("DELETE /api/cart/items/{courseID}", authed(h.RemoveCartItem))

	mux.Handle("POST /api/orders", authed(h.CreateOrder))
	mux.Handle("GET /api/orders", authed(h.ListOrders))
	mux.Handle("GET /api/orders/{orderNumber}", authed(h.GetOrder))
	mux.Handle("DELETE /api/orders/{orderNumber}", authed(h.CancelOrder))
	mux.Handle("POST /api/orders/{orderNumber}/coupon", authed(h.ApplyCoupon))
	mux.Handle("POST /api/orders/{orderNumber}/payment", authed(h.InitiatePayment))
	mux.Handle("POST /api/orders/{orderNumber}/confirm", authed(h.ConfirmPayment))

	mux.Handle("GET /api/enrollments", authed(h.ListEnrollments))

	return mux
}
