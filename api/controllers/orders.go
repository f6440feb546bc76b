package controllers

import (
	"net/http"
	"strings"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	"github.com/nearbuy-labs/nearbuy-backend/api/validators"
	ordersvc "github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

type orderListResponse struct {
	Orders     []ordersvc.DTO `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func listParamsFromQuery(r *http.Request) (pagination.Params, ordersvc.ListFilters, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, ordersvc.ListFilters{}, err
	}

	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	var filters ordersvc.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Params{}, ordersvc.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	return params, filters, nil
}

// OrdersForBuyer lists the caller's purchase history, newest first.
func OrdersForBuyer(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, filters, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, next, err := svc.ListForBuyer(r.Context(), buyerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{Orders: dtos, NextCursor: next})
	}
}

// OrdersForSeller lists orders placed against the caller's catalog.
func OrdersForSeller(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		sellerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !roleFromRequest(r).IsSeller() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller role required"))
			return
		}
		params, filters, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, next, err := svc.ListForSeller(r.Context(), sellerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{Orders: dtos, NextCursor: next})
	}
}

// OrdersForPartner lists deliveries assigned to the calling partner.
func OrdersForPartner(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		partnerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, filters, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, next, err := svc.ListForPartner(r.Context(), partnerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{Orders: dtos, NextCursor: next})
	}
}

// OrderGet returns one order, restricted to its participants.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

type transitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// OrderTransition advances an order through its status machine on behalf of
// the calling participant.
func OrderTransition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		var notes *string
		if payload.Notes != nil {
			trimmed := validators.SanitizeString(*payload.Notes, 500)
			if trimmed != "" {
				notes = &trimmed
			}
		}

		dto, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   actor,
			Notes:   notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
