package enums

import "fmt"

// SettlementStatus tracks payout progress of a settlement record.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusCompleted SettlementStatus = "completed"
)

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	return s == SettlementStatusPending || s == SettlementStatusCompleted
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	switch SettlementStatus(value) {
	case SettlementStatusPending:
		return SettlementStatusPending, nil
	case SettlementStatusCompleted:
		return SettlementStatusCompleted, nil
	default:
		return "", fmt.Errorf("invalid settlement status %q", value)
	}
}

// SettlementRecipient distinguishes who a settlement pays out.
type SettlementRecipient string

const (
	SettlementRecipientSeller          SettlementRecipient = "seller"
	SettlementRecipientDeliveryPartner SettlementRecipient = "delivery_partner"
)

// String implements fmt.Stringer.
func (s SettlementRecipient) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementRecipient.
func (s SettlementRecipient) IsValid() bool {
	return s == SettlementRecipientSeller || s == SettlementRecipientDeliveryPartner
}
