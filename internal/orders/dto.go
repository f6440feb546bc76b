package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/types"
)

// ItemDTO is a frozen order line.
type ItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         *string         `json:"sku,omitempty"`
	PricePaid   decimal.Decimal `json:"price_paid"`
	Quantity    int             `json:"quantity"`
}

// HistoryDTO is one entry of the transition log.
type HistoryDTO struct {
	Status      enums.OrderStatus `json:"status"`
	UpdatedByID *uuid.UUID        `json:"updated_by_id,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// DTO is the full order view returned to clients.
type DTO struct {
	ID                uuid.UUID              `json:"id"`
	OrderNumber       string                 `json:"order_number"`
	BuyerID           uuid.UUID              `json:"buyer_id"`
	SellerID          uuid.UUID              `json:"seller_id"`
	Status            enums.OrderStatus      `json:"status"`
	DeliveryPartnerID *uuid.UUID             `json:"delivery_partner_id,omitempty"`
	PickupAddress     *types.AddressSnapshot `json:"pickup_address,omitempty"`
	DeliveryAddress   types.AddressSnapshot  `json:"delivery_address"`
	Subtotal          decimal.Decimal        `json:"subtotal"`
	Discount          decimal.Decimal        `json:"discount"`
	DeliveryFee       decimal.Decimal        `json:"delivery_fee"`
	Total             decimal.Decimal        `json:"total"`
	Items             []ItemDTO              `json:"items,omitempty"`
	History           []HistoryDTO           `json:"history,omitempty"`
	AllowedActions    []enums.OrderStatus    `json:"allowed_actions"`
	DeliveredAt       *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

// NewDTO maps an order row to its API shape, computing the action hints for
// the viewing role.
func NewDTO(order *models.Order, viewerRole enums.Role) *DTO {
	dto := &DTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		BuyerID:           order.BuyerID,
		SellerID:          order.SellerID,
		Status:            order.Status,
		DeliveryPartnerID: order.DeliveryPartnerID,
		PickupAddress:     order.PickupAddress,
		DeliveryAddress:   order.DeliveryAddress,
		Subtotal:          order.Subtotal,
		Discount:          order.Discount,
		DeliveryFee:       order.DeliveryFee,
		Total:             order.Total,
		AllowedActions:    AllowedTargets(order.Status, viewerRole),
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			PricePaid:   item.PricePaid,
			Quantity:    item.Quantity,
		})
	}
	for _, entry := range order.History {
		dto.History = append(dto.History, HistoryDTO{
			Status:      entry.Status,
			UpdatedByID: entry.UpdatedByID,
			Notes:       entry.Notes,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return dto
}
