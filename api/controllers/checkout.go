package controllers

import (
	"net/http"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	checkoutsvc "github.com/nearbuy-labs/nearbuy-backend/internal/checkout"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

// Checkout converts the caller's cart into per-seller orders under a single
// payment. Retrying after a gateway failure resumes the unpaid payment
// instead of creating duplicates.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := buyerClassFromRequest(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
