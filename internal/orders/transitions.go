package orders

import (
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

type edge struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

// transitionRoles maps each legal status change to the roles allowed to make
// it. Claiming (ready_to_ship -> delivery_partner_assigned) is not listed
// here: it only happens through the delivery claim flow, which also binds the
// partner to the order.
var transitionRoles = map[edge][]enums.Role{
	// Seller fulfillment chain.
	{enums.OrderStatusPending, enums.OrderStatusConfirmed}:     {enums.RoleRetailer, enums.RoleWholesaler},
	{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}:   {enums.RoleRetailer, enums.RoleWholesaler},
	{enums.OrderStatusPreparing, enums.OrderStatusReadyToShip}: {enums.RoleRetailer, enums.RoleWholesaler},

	// Delivery chain, restricted further to the assigned partner.
	{enums.OrderStatusDeliveryPartnerAssigned, enums.OrderStatusPickedUp}: {enums.RoleDeliveryPartner},
	{enums.OrderStatusPickedUp, enums.OrderStatusOutForDelivery}:          {enums.RoleDeliveryPartner},
	{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered}:         {enums.RoleDeliveryPartner},

	// Cancellation while the seller still holds the goods.
	{enums.OrderStatusPending, enums.OrderStatusCancelled}:   {enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler, enums.RoleAdmin},
	{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}: {enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler, enums.RoleAdmin},
	{enums.OrderStatusPreparing, enums.OrderStatusCancelled}: {enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler, enums.RoleAdmin},

	// Post-delivery flows. Buyers open returns, sellers may accept them on
	// the buyer's behalf and issue the refund themselves.
	{enums.OrderStatusDelivered, enums.OrderStatusReturned}: {enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler},
	{enums.OrderStatusReturned, enums.OrderStatusRefunded}:  {enums.RoleRetailer, enums.RoleWholesaler, enums.RoleAdmin, enums.RoleSystem},
}

// CanTransition reports whether the role may move an order between the two
// statuses.
func CanTransition(from, to enums.OrderStatus, role enums.Role) bool {
	roles, ok := transitionRoles[edge{from: from, to: to}]
	if !ok {
		return false
	}
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// statusOrder fixes the enumeration order for action hints.
var statusOrder = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusPreparing,
	enums.OrderStatusReadyToShip,
	enums.OrderStatusDeliveryPartnerAssigned,
	enums.OrderStatusPickedUp,
	enums.OrderStatusOutForDelivery,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
	enums.OrderStatusReturned,
	enums.OrderStatusRefunded,
}

// AllowedTargets lists the statuses the role could move the order to from its
// current status. Used to build action hints in API responses.
func AllowedTargets(from enums.OrderStatus, role enums.Role) []enums.OrderStatus {
	var targets []enums.OrderStatus
	for _, to := range statusOrder {
		if CanTransition(from, to, role) {
			targets = append(targets, to)
		}
	}
	return targets
}
