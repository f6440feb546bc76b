package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	"github.com/nearbuy-labs/nearbuy-backend/api/validators"
	settlementsvc "github.com/nearbuy-labs/nearbuy-backend/internal/settlement"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

type pendingSettlementsResponse struct {
	Candidates []settlementsvc.PendingDTO `json:"candidates"`
}

// SettlementsPending lists payout candidates grouped per recipient. The
// recipient query parameter selects sellers or delivery partners.
func SettlementsPending(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		recipient := enums.SettlementRecipient(strings.TrimSpace(r.URL.Query().Get("recipient")))
		if recipient == "" {
			recipient = enums.SettlementRecipientSeller
		}

		var (
			dtos []settlementsvc.PendingDTO
			err  error
		)
		switch recipient {
		case enums.SettlementRecipientSeller:
			dtos, err = svc.PendingForSellers(r.Context())
		case enums.SettlementRecipientDeliveryPartner:
			dtos, err = svc.PendingForPartners(r.Context())
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pendingSettlementsResponse{Candidates: dtos})
	}
}

type createSettlementRequest struct {
	UserID        string   `json:"user_id" validate:"required,uuid4"`
	RecipientType string   `json:"recipient_type" validate:"required,oneof=seller delivery_partner"`
	OrderIDs      []string `json:"order_ids" validate:"required,min=1,dive,uuid4"`
	Notes         *string  `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// SettlementCreate records a payout over a set of delivered orders. Each
// order settles to a given recipient at most once.
func SettlementCreate(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload createSettlementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := parseUUIDField(payload.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipient := enums.SettlementRecipient(payload.RecipientType)
		if !recipient.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient_type"))
			return
		}

		orderIDs := make([]uuid.UUID, 0, len(payload.OrderIDs))
		for _, raw := range payload.OrderIDs {
			id, err := parseUUIDField(raw, "order_ids")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			orderIDs = append(orderIDs, id)
		}

		var notes *string
		if payload.Notes != nil {
			trimmed := validators.SanitizeString(*payload.Notes, 500)
			if trimmed != "" {
				notes = &trimmed
			}
		}

		dto, err := svc.Create(r.Context(), settlementsvc.CreateInput{
			UserID:        userID,
			RecipientType: recipient,
			OrderIDs:      orderIDs,
			Notes:         notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type settlementListResponse struct {
	Settlements []settlementsvc.DTO `json:"settlements"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// SettlementList pages through settlement records, optionally filtered to one
// recipient user.
func SettlementList(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var userID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			id, err := parseUUIDField(raw, "user_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			userID = &id
		}

		dtos, next, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settlementListResponse{Settlements: dtos, NextCursor: next})
	}
}

// SettlementGet returns one settlement record.
func SettlementGet(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		id, err := pathUUID(r, "settlementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// SettlementComplete marks a pending settlement as paid out.
func SettlementComplete(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		id, err := pathUUID(r, "settlementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
