package delivery

import (
	"github.com/nearbuy-labs/nearbuy-backend/internal/orders"
)

// AvailableOrderDTO is a claimable order annotated with distances for the
// browsing partner. Distances are nil when the relevant coordinates are
// missing.
type AvailableOrderDTO struct {
	orders.DTO
	PickupDistanceKm *float64 `json:"pickup_distance_km,omitempty"`
	JourneyKm        *float64 `json:"journey_km,omitempty"`
}

// PartnerLocation is the browsing partner's current position.
type PartnerLocation struct {
	Latitude  float64
	Longitude float64
}
