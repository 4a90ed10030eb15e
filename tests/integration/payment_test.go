//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// TestZeroTotalOrder_CompletesWithoutGateway buys a course fully covered by
// a 100% coupon. With nothing to charge the order completes on initiation
// and no payment intent is created.
func TestZeroTotalOrder_CompletesWithoutGateway(t *testing.T) {
	clearCart(t)
	c := findCourse(t, "PostgreSQL Performance Tuning")

	add := doPost(t, "/api/cart/items", addCartItemRequest{CourseID: c.ID})
	add.Body.Close()

	orderResp := doPost(t, "/api/orders", nil)
	if orderResp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", orderResp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, orderResp)
	orderResp.Body.Close()

	couponResp := doPost(t, "/api/orders/"+order.OrderNumber+"/coupon", applyCouponRequest{Code: "FREEPASS"})
	if couponResp.StatusCode != http.StatusOK {
		t.Fatalf("apply coupon: expected 200, got %d", couponResp.StatusCode)
	}
	discounted := decodeJSON[orderResponse](t, couponResp)
	couponResp.Body.Close()
	if discounted.TotalAmount != 0 {
		t.Fatalf("total after 100%% off: got %v, want 0", discounted.TotalAmount)
	}

	payResp := doPost(t, "/api/orders/"+order.OrderNumber+"/payment", nil)
	if payResp.StatusCode != http.StatusCreated {
		t.Fatalf("initiate payment: expected 201, got %d", payResp.StatusCode)
	}
	intent := decodeJSON[initiatePaymentResponse](t, payResp)
	payResp.Body.Close()

	if intent.Status != "succeeded" {
		t.Errorf("status: got %q, want succeeded", intent.Status)
	}
	if intent.IntentID != "" || intent.ClientSecret != "" {
		t.Errorf("expected no intent for a zero total, got id=%q secret=%q", intent.IntentID, intent.ClientSecret)
	}

	getResp := doGet(t, "/api/orders/"+order.OrderNumber)
	completed := decodeJSON[orderResponse](t, getResp)
	getResp.Body.Close()
	if completed.Status != "completed" {
		t.Fatalf("order status: got %q, want completed", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("completedAt missing")
	}

	// The entitlement is granted even though no money moved.
	enrollResp := doGet(t, "/api/enrollments")
	enrollments := decodeJSON[[]enrollmentResponse](t, enrollResp)
	enrollResp.Body.Close()

	owned := false
	for _, e := range enrollments {
		if e.CourseID == c.ID {
			owned = true
		}
	}
	if !owned {
		t.Error("enrollment missing for zero-total purchase")
	}
}
