package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDTO is one priced cart line.
type ItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DTO is the buyer's cart with lines priced for their buyer class.
type DTO struct {
	CartID   uuid.UUID       `json:"cart_id"`
	Items    []ItemDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
