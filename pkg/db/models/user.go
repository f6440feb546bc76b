package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// User is the minimal principal shape the fulfillment core needs: identity,
// granted roles, the currently active role, and an active address reference.
// Account management itself lives outside this service.
type User struct {
	ID              uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	FullName        *string      `gorm:"column:full_name"`
	Email           string       `gorm:"column:email;not null;uniqueIndex"`
	Roles           []enums.Role `gorm:"column:roles;type:jsonb;serializer:json"`
	ActiveRole      enums.Role   `gorm:"column:active_role;type:text;not null;default:'customer'"`
	ActiveAddressID *uuid.UUID   `gorm:"column:active_address_id;type:uuid"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// HasRole reports whether the role was granted to the user.
func (u *User) HasRole(role enums.Role) bool {
	for _, candidate := range u.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// BuyerClass maps the active role to the pricing audience used for purchases.
func (u *User) BuyerClass() enums.BuyerClass {
	if u.ActiveRole == enums.RoleRetailer {
		return enums.BuyerClassRetailer
	}
	return enums.BuyerClassCustomer
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
