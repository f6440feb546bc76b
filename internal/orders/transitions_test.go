package orders

import (
	"testing"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

func TestSellerFulfillmentChain(t *testing.T) {
	chain := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		{enums.OrderStatusConfirmed, enums.OrderStatusPreparing},
		{enums.OrderStatusPreparing, enums.OrderStatusReadyToShip},
	}
	for _, step := range chain {
		if !CanTransition(step.from, step.to, enums.RoleRetailer) {
			t.Errorf("retailer should move %s -> %s", step.from, step.to)
		}
		if !CanTransition(step.from, step.to, enums.RoleWholesaler) {
			t.Errorf("wholesaler should move %s -> %s", step.from, step.to)
		}
		if CanTransition(step.from, step.to, enums.RoleCustomer) {
			t.Errorf("customer must not move %s -> %s", step.from, step.to)
		}
		if CanTransition(step.from, step.to, enums.RoleDeliveryPartner) {
			t.Errorf("partner must not move %s -> %s", step.from, step.to)
		}
	}
}

func TestDeliveryChain(t *testing.T) {
	chain := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusDeliveryPartnerAssigned, enums.OrderStatusPickedUp},
		{enums.OrderStatusPickedUp, enums.OrderStatusOutForDelivery},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	}
	for _, step := range chain {
		if !CanTransition(step.from, step.to, enums.RoleDeliveryPartner) {
			t.Errorf("partner should move %s -> %s", step.from, step.to)
		}
		if CanTransition(step.from, step.to, enums.RoleRetailer) {
			t.Errorf("retailer must not move %s -> %s", step.from, step.to)
		}
	}
}

func TestClaimIsNotAGenericTransition(t *testing.T) {
	for _, role := range []enums.Role{
		enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler,
		enums.RoleDeliveryPartner, enums.RoleAdmin, enums.RoleSystem,
	} {
		if CanTransition(enums.OrderStatusReadyToShip, enums.OrderStatusDeliveryPartnerAssigned, role) {
			t.Errorf("role %s must not assign partners through the generic transition", role)
		}
	}
}

func TestCancellationWindows(t *testing.T) {
	for _, from := range []enums.OrderStatus{
		enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusPreparing,
	} {
		if !CanTransition(from, enums.OrderStatusCancelled, enums.RoleCustomer) {
			t.Errorf("customer should cancel from %s", from)
		}
	}
	for _, from := range []enums.OrderStatus{
		enums.OrderStatusReadyToShip, enums.OrderStatusPickedUp,
		enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered,
	} {
		if CanTransition(from, enums.OrderStatusCancelled, enums.RoleCustomer) {
			t.Errorf("customer must not cancel from %s", from)
		}
	}
}

func TestPostDeliveryFlows(t *testing.T) {
	for _, role := range []enums.Role{enums.RoleCustomer, enums.RoleRetailer, enums.RoleWholesaler} {
		if !CanTransition(enums.OrderStatusDelivered, enums.OrderStatusReturned, role) {
			t.Errorf("%s should open a return from delivered", role)
		}
	}
	if CanTransition(enums.OrderStatusDelivered, enums.OrderStatusReturned, enums.RoleDeliveryPartner) {
		t.Errorf("partner must not open returns")
	}

	for _, role := range []enums.Role{enums.RoleRetailer, enums.RoleWholesaler, enums.RoleAdmin, enums.RoleSystem} {
		if !CanTransition(enums.OrderStatusReturned, enums.OrderStatusRefunded, role) {
			t.Errorf("%s should refund a returned order", role)
		}
	}
	for _, role := range []enums.Role{enums.RoleCustomer, enums.RoleDeliveryPartner} {
		if CanTransition(enums.OrderStatusReturned, enums.OrderStatusRefunded, role) {
			t.Errorf("%s must not issue refunds", role)
		}
	}
}

func TestTerminalStatusesHaveNoSellerOrPartnerMoves(t *testing.T) {
	for _, from := range []enums.OrderStatus{
		enums.OrderStatusCancelled, enums.OrderStatusRefunded,
	} {
		for _, role := range []enums.Role{enums.RoleRetailer, enums.RoleDeliveryPartner, enums.RoleCustomer} {
			if targets := AllowedTargets(from, role); len(targets) != 0 {
				t.Errorf("expected no moves from %s for %s, got %v", from, role, targets)
			}
		}
	}
}

func TestAllowedTargetsForSeller(t *testing.T) {
	targets := AllowedTargets(enums.OrderStatusPending, enums.RoleRetailer)
	if len(targets) != 2 {
		t.Fatalf("expected confirm and cancel, got %v", targets)
	}
	if targets[0] != enums.OrderStatusConfirmed || targets[1] != enums.OrderStatusCancelled {
		t.Fatalf("unexpected target order %v", targets)
	}
}
