package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// ResultDTO is the outcome of one checkout invocation: the aggregate payment
// plus the per-seller orders it covers. GatewayOrderID and GatewayKeyID are
// nil when the gateway call is still outstanding (a retried checkout resumes
// the same payment).
type ResultDTO struct {
	PaymentID      uuid.UUID           `json:"payment_id"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Currency       string              `json:"currency"`
	GatewayOrderID *string             `json:"gateway_order_id,omitempty"`
	GatewayKeyID   *string             `json:"gateway_key_id,omitempty"`
	Orders         []orders.DTO        `json:"orders"`
}

func newResultDTO(payment *models.Payment, created []models.Order, viewerRole enums.Role) *ResultDTO {
	result := &ResultDTO{
		PaymentID:      payment.ID,
		PaymentStatus:  payment.Status,
		TotalAmount:    payment.TotalAmount,
		Currency:       payment.Currency,
		GatewayOrderID: payment.GatewayOrderID,
		Orders:         make([]orders.DTO, 0, len(created)),
	}
	for i := range created {
		result.Orders = append(result.Orders, *orders.NewDTO(&created[i], viewerRole))
	}
	return result
}
