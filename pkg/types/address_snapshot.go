package types

import "fmt"

// AddressSnapshot is a value copy of an address embedded into an order at
// creation time. Orders keep their snapshots even if the source address is
// later edited or deleted, so this is never a foreign-key reference.
type AddressSnapshot struct {
	AddressID      string  `json:"address_id,omitempty"`
	StreetAddress  string  `json:"street_address"`
	ApartmentSuite *string `json:"apartment_suite,omitempty"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	PostalCode     string  `json:"postal_code"`
	Country        string  `json:"country"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Label          string  `json:"label,omitempty"`
}

// Validate checks the fields the fulfillment core depends on.
func (a AddressSnapshot) Validate() error {
	if a.StreetAddress == "" {
		return fmt.Errorf("address snapshot: missing street address")
	}
	if a.Latitude < -90 || a.Latitude > 90 {
		return fmt.Errorf("address snapshot: latitude %f out of range", a.Latitude)
	}
	if a.Longitude < -180 || a.Longitude > 180 {
		return fmt.Errorf("address snapshot: longitude %f out of range", a.Longitude)
	}
	return nil
}

// HasCoordinates reports whether the snapshot carries usable coordinates.
func (a AddressSnapshot) HasCoordinates() bool {
	return a.Latitude != 0 || a.Longitude != 0
}
