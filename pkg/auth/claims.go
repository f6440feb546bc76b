package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Roles      []enums.Role
	ActiveRole enums.Role
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID    `json:"user_id"`
	Roles      []enums.Role `json:"roles"`
	ActiveRole enums.Role   `json:"active_role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token grants the given role.
func (c *AccessTokenClaims) HasRole(role enums.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
