package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/nearbuy-labs/nearbuy-backend/internal/checkout"
)

type stubCheckoutService struct {
	confirmed []checkoutsvc.ConfirmInput
	err       error
}

func (s *stubCheckoutService) Execute(_ context.Context, _ uuid.UUID) (*checkoutsvc.ResultDTO, error) {
	return nil, s.err
}

func (s *stubCheckoutService) ConfirmPayment(_ context.Context, input checkoutsvc.ConfirmInput) error {
	s.confirmed = append(s.confirmed, input)
	return s.err
}

type stubVerifier struct {
	valid bool
}

func (s stubVerifier) VerifyWebhookSignature(_ []byte, _ string) bool {
	return s.valid
}

func capturedEventBody(gatewayOrderID string) string {
	return `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_123","order_id":"` + gatewayOrderID + `"}}}}`
}

func webhookRequest(body string, signed bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(body))
	if signed {
		req.Header.Set("X-Razorpay-Signature", "sig")
	}
	return req
}

func TestPaymentWebhookRecordsCapture(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := PaymentWebhook(svc, stubVerifier{valid: true}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(capturedEventBody("order_abc"), true))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(svc.confirmed) != 1 {
		t.Fatalf("confirmations = %d, want 1", len(svc.confirmed))
	}
	got := svc.confirmed[0]
	if got.GatewayOrderID != "order_abc" || !got.Succeeded {
		t.Fatalf("unexpected confirm input: %+v", got)
	}
	if got.GatewayPaymentID == nil || *got.GatewayPaymentID != "pay_123" {
		t.Fatalf("gateway payment id not carried: %+v", got.GatewayPaymentID)
	}
}

func TestPaymentWebhookRecordsFailureWithReason(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := PaymentWebhook(svc, stubVerifier{valid: true}, testLogger())

	body := `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_abc","error_description":"card declined"}}}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(body, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(svc.confirmed) != 1 {
		t.Fatalf("confirmations = %d, want 1", len(svc.confirmed))
	}
	got := svc.confirmed[0]
	if got.Succeeded {
		t.Fatal("failure event recorded as success")
	}
	if got.FailureReason == nil || *got.FailureReason != "card declined" {
		t.Fatalf("failure reason not carried: %+v", got.FailureReason)
	}
}

func TestPaymentWebhookRejectsMissingSignature(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := PaymentWebhook(svc, stubVerifier{valid: true}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(capturedEventBody("order_abc"), false))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(svc.confirmed) != 0 {
		t.Fatal("unsigned event must not reach the service")
	}
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := PaymentWebhook(svc, stubVerifier{valid: false}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(capturedEventBody("order_abc"), true))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(svc.confirmed) != 0 {
		t.Fatal("forged event must not reach the service")
	}
}

func TestPaymentWebhookIgnoresUnhandledEvents(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := PaymentWebhook(svc, stubVerifier{valid: true}, testLogger())

	body := `{"event":"order.paid","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_abc"}}}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(body, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(svc.confirmed) != 0 {
		t.Fatal("unhandled event must not reach the service")
	}
}
