package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// Payment aggregates one checkout invocation: many orders share one payment.
// CartHash keys checkout idempotency; a retried checkout with unchanged
// cart contents reuses the prepared, unpaid payment.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID     uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'created';index"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Currency    string              `gorm:"column:currency;not null;default:'INR'"`
	CartHash    string              `gorm:"column:cart_hash;not null;index"`

	GatewayOrderID   *string `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID *string `gorm:"column:gateway_payment_id;index"`
	FailureReason    *string `gorm:"column:failure_reason"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
