package enums

import "fmt"

// Role is the active role a principal acts under for a request.
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRetailer        Role = "retailer"
	RoleWholesaler      Role = "wholesaler"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleAdmin           Role = "admin"
	// RoleSystem marks internally triggered transitions (claims, refunds).
	RoleSystem Role = "system"
)

var validRoles = []Role{
	RoleCustomer,
	RoleRetailer,
	RoleWholesaler,
	RoleDeliveryPartner,
	RoleAdmin,
	RoleSystem,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsSeller reports whether the role sells goods on the platform.
func (r Role) IsSeller() bool {
	return r == RoleRetailer || r == RoleWholesaler
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
