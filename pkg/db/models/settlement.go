package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/nearbuy-labs/nearbuy-backend/pkg/db/types"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// PaymentSettlement is an immutable payout record covering a specific order
// set. Order membership is disjoint across settlements: an order appears in
// at most one settlement ever, enforced via the orders.settlement_id
// conditional update at creation time. Only Status may change afterwards
// (pending to completed).
type PaymentSettlement struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	RecipientType enums.SettlementRecipient `gorm:"column:recipient_type;type:text;not null;index"`

	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"column:commission_amount;type:numeric(10,2);not null"`
	NetAmount        decimal.Decimal `gorm:"column:net_amount;type:numeric(10,2);not null"`

	OrderIDs dbtypes.UUIDArray `gorm:"column:order_ids;type:uuid[];not null"`

	Status         enums.SettlementStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	SettlementDate time.Time              `gorm:"column:settlement_date;not null;index"`
	Notes          *string                `gorm:"column:notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *PaymentSettlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
