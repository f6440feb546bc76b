package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nearbuy-labs/nearbuy-backend/api/middleware"
	"github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}

func roleFromRequest(r *http.Request) enums.Role {
	return enums.Role(middleware.RoleFromContext(r.Context()))
}

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		return orders.Actor{}, err
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid active role")
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}

// buyerClassFromRequest maps the caller's active role to the price audience
// they shop under. Only customers and retailers can hold a cart.
func buyerClassFromRequest(r *http.Request) (enums.BuyerClass, error) {
	switch enums.Role(middleware.RoleFromContext(r.Context())) {
	case enums.RoleCustomer:
		return enums.BuyerClassCustomer, nil
	case enums.RoleRetailer:
		return enums.BuyerClassRetailer, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "active role cannot purchase")
	}
}

func parseUUIDField(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
