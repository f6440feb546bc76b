package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// PendingDTO is one payout candidate: a recipient's delivered, not yet
// settled orders with the amounts a settlement over exactly that set would
// carry. Computed on demand, never stored.
type PendingDTO struct {
	UserID        uuid.UUID                 `json:"user_id"`
	RecipientType enums.SettlementRecipient `json:"recipient_type"`
	TotalAmount   decimal.Decimal           `json:"total_amount"`
	Commission    decimal.Decimal           `json:"commission"`
	NetAmount     decimal.Decimal           `json:"net_amount"`
	OrderIDs      []uuid.UUID               `json:"order_ids"`
}

// DTO is the API shape of a created settlement.
type DTO struct {
	ID             uuid.UUID                 `json:"id"`
	UserID         uuid.UUID                 `json:"user_id"`
	RecipientType  enums.SettlementRecipient `json:"recipient_type"`
	Amount         decimal.Decimal           `json:"amount"`
	Commission     decimal.Decimal           `json:"commission_amount"`
	NetAmount      decimal.Decimal           `json:"net_amount"`
	OrderIDs       []uuid.UUID               `json:"order_ids"`
	Status         enums.SettlementStatus    `json:"status"`
	SettlementDate time.Time                 `json:"settlement_date"`
	Notes          *string                   `json:"notes,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

func newDTO(record *models.PaymentSettlement) *DTO {
	return &DTO{
		ID:             record.ID,
		UserID:         record.UserID,
		RecipientType:  record.RecipientType,
		Amount:         record.Amount,
		Commission:     record.CommissionAmount,
		NetAmount:      record.NetAmount,
		OrderIDs:       append([]uuid.UUID(nil), record.OrderIDs...),
		Status:         record.Status,
		SettlementDate: record.SettlementDate,
		Notes:          record.Notes,
		CreatedAt:      record.CreatedAt,
	}
}
