package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/types"
)

// Address is a saved location with resolved coordinates. Orders never
// reference addresses directly; they embed a snapshot at creation time.
type Address struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	StreetAddress  string     `gorm:"column:street_address;not null"`
	ApartmentSuite *string    `gorm:"column:apartment_suite"`
	City           string     `gorm:"column:city;not null"`
	State          string     `gorm:"column:state;not null"`
	PostalCode     string     `gorm:"column:postal_code;not null"`
	Country        string     `gorm:"column:country;not null;default:'IN'"`
	Latitude       float64    `gorm:"column:latitude;not null"`
	Longitude      float64    `gorm:"column:longitude;not null"`
	Label          string     `gorm:"column:label;not null;default:'home'"`
	DeletedAt      *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Snapshot returns the value copy embedded into orders.
func (a *Address) Snapshot() types.AddressSnapshot {
	return types.AddressSnapshot{
		AddressID:      a.ID.String(),
		StreetAddress:  a.StreetAddress,
		ApartmentSuite: a.ApartmentSuite,
		City:           a.City,
		State:          a.State,
		PostalCode:     a.PostalCode,
		Country:        a.Country,
		Latitude:       a.Latitude,
		Longitude:      a.Longitude,
		Label:          a.Label,
	}
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
