package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/aulakit/checkout/internal/domain/cart"
	"github.com/aulakit/checkout/internal/domain/coupon"
	"github.com/aulakit/checkout/internal/domain/course"
	"github.com/aulakit/checkout/internal/domain/order"
	"github.com/aulakit/checkout/internal/domain/payment"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// decodeJSON parses the request body into the endpoint's typed schema.
// Unknown fields are rejected at the boundary.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// writeDomainError maps domain errors onto the error envelope. Unmapped
// errors are logged and surface as 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, cart.ErrAlreadyEnrolled),
		errors.Is(err, cart.ErrAlreadyInCart),
		errors.Is(err, order.ErrCouponAlreadyApplied):
		writeError(w, http.StatusConflict, err.Error())
		return

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrNotPending),
		errors.Is(err, coupon.ErrInvalid),
		errors.Is(err, payment.ErrIntentMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return

	case errors.Is(err, payment.ErrNotCompleted):
		writeError(w, http.StatusPaymentRequired, err.Error())
		return
	}

	var minErr *coupon.MinimumNotMetError
	if errors.As(err, &minErr) {
		writeError(w, http.StatusUnprocessableEntity, minErr.Error())
		return
	}

	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		writeError(w, http.StatusBadGateway, gwErr.Error())
		return
	}

	zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
