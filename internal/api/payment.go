package api

import "net/http"

type initiatePaymentResponse struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// InitiatePayment asks the gateway for a charge intent covering the
// order's total. Gateway failures surface as-is; the client re-invokes if
// it wants a retry. A status of succeeded with no client secret means
// the order completed with nothing to charge and no confirm is needed.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.Initiate(r.Context(),
		UserFromContext(r.Context()), r.PathValue("orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, initiatePaymentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
	})
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// ConfirmPayment reconciles a gateway confirmation with the order: on a
// succeeded intent the user gets enrolled in every purchased course, the
// order completes, and the cart empties. Safe to retry.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "paymentIntentId required")
		return
	}

	o, err := h.payments.Confirm(r.Context(),
		UserFromContext(r.Context()), r.PathValue("orderNumber"), req.PaymentIntentID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
