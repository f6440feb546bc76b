package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	checkoutsvc "github.com/nearbuy-labs/nearbuy-backend/internal/checkout"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

const (
	paymentWebhookBodyLimit = 1 << 20

	eventPaymentCaptured = "payment.captured"
	eventPaymentFailed   = "payment.failed"
)

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type paymentWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string  `json:"id"`
				OrderID          string  `json:"order_id"`
				ErrorDescription *string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentWebhook ingests gateway payment outcomes. Redeliveries of a
// captured payment are acknowledged without effect.
func PaymentWebhook(svc checkoutsvc.Service, verifier webhookVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook verifier unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, paymentWebhookBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get("X-Razorpay-Signature"))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
			return
		}
		if !verifier.VerifyWebhookSignature(body, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event paymentWebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event"))
			return
		}

		ctx = logg.WithFields(ctx, map[string]any{
			"webhook_event":    event.Event,
			"gateway_order_id": event.Payload.Payment.Entity.OrderID,
		})

		switch event.Event {
		case eventPaymentCaptured, eventPaymentFailed:
		default:
			logg.Debug(ctx, "ignoring unhandled webhook event")
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		entity := event.Payload.Payment.Entity
		if entity.OrderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook event missing order reference"))
			return
		}

		input := checkoutsvc.ConfirmInput{
			GatewayOrderID: entity.OrderID,
			Succeeded:      event.Event == eventPaymentCaptured,
			FailureReason:  entity.ErrorDescription,
		}
		if entity.ID != "" {
			paymentID := entity.ID
			input.GatewayPaymentID = &paymentID
		}

		if err := svc.ConfirmPayment(ctx, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(ctx, "payment outcome recorded")
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
