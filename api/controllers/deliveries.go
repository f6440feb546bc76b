package controllers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	"github.com/nearbuy-labs/nearbuy-backend/api/validators"
	deliverysvc "github.com/nearbuy-labs/nearbuy-backend/internal/delivery"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

type availableOrdersResponse struct {
	Orders []deliverysvc.AvailableOrderDTO `json:"orders"`
}

func parseQueryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return &value, nil
}

// DeliveriesAvailable lists claimable orders for the calling partner. When
// lat and lon are supplied the feed is distance-annotated and can be narrowed
// with radius_km.
func DeliveriesAvailable(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		partnerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lat, err := parseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lon, err := parseQueryFloat(r, "lon")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := parseQueryFloat(r, "radius_km")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliverysvc.ListInput{RadiusKm: radius, Limit: limit}
		switch {
		case lat != nil && lon != nil:
			input.Location = &deliverysvc.PartnerLocation{Latitude: *lat, Longitude: *lon}
		case lat != nil || lon != nil:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lon must be provided together"))
			return
		}

		dtos, err := svc.ListAvailable(r.Context(), partnerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Nearest pickup first when the partner shared a location.
		if input.Location != nil {
			sort.SliceStable(dtos, func(i, j int) bool {
				di, dj := dtos[i].PickupDistanceKm, dtos[j].PickupDistanceKm
				if di == nil {
					return false
				}
				if dj == nil {
					return true
				}
				return *di < *dj
			})
		}

		responses.WriteSuccess(w, availableOrdersResponse{Orders: dtos})
	}
}

// DeliveryClaim assigns an unclaimed order to the calling partner. Exactly
// one concurrent claimant wins; the rest get a conflict.
func DeliveryClaim(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		partnerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Claim(r.Context(), partnerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
