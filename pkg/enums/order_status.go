package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order from checkout to settlement.
type OrderStatus string

const (
	OrderStatusPending                 OrderStatus = "pending"
	OrderStatusConfirmed               OrderStatus = "confirmed"
	OrderStatusPreparing               OrderStatus = "preparing"
	OrderStatusReadyToShip             OrderStatus = "ready_to_ship"
	OrderStatusDeliveryPartnerAssigned OrderStatus = "delivery_partner_assigned"
	OrderStatusPickedUp                OrderStatus = "picked_up"
	OrderStatusOutForDelivery          OrderStatus = "out_for_delivery"
	OrderStatusDelivered               OrderStatus = "delivered"
	OrderStatusCancelled               OrderStatus = "cancelled"
	OrderStatusReturned                OrderStatus = "returned"
	OrderStatusRefunded                OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyToShip,
	OrderStatusDeliveryPartnerAssigned,
	OrderStatusPickedUp,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
