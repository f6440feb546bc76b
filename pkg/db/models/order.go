package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/types"
)

// Order is a per-seller order produced by checkout. Identity and financial
// fields are frozen at creation; only order_status (and the claim/settlement
// references that travel with specific transitions) ever change, always
// through the state machine. Rows are never deleted.
type Order struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string           `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID     uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID    uuid.UUID        `gorm:"column:seller_id;type:uuid;not null;index"`
	BuyerClass  enums.BuyerClass `gorm:"column:buyer_class;type:text;not null"`
	Status      enums.OrderStatus `gorm:"column:order_status;type:text;not null;default:'pending';index"`

	DeliveryPartnerID *uuid.UUID `gorm:"column:delivery_partner_id;type:uuid;index"`
	PaymentID         *uuid.UUID `gorm:"column:payment_id;type:uuid;index"`
	SettlementID      *uuid.UUID `gorm:"column:settlement_id;type:uuid;index"`
	// Delivery fees settle to the partner separately from merchandise
	// settling to the seller, so the two markers are independent.
	DeliverySettlementID *uuid.UUID `gorm:"column:delivery_settlement_id;type:uuid;index"`

	PickupAddress   *types.AddressSnapshot `gorm:"column:pickup_address_snapshot;type:jsonb;serializer:json"`
	DeliveryAddress types.AddressSnapshot  `gorm:"column:delivery_address_snapshot;type:jsonb;serializer:json"`

	Subtotal    decimal.Decimal `gorm:"column:order_subtotal;type:numeric(10,2);not null"`
	Discount    decimal.Decimal `gorm:"column:order_discount;type:numeric(10,2);not null;default:0"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Total       decimal.Decimal `gorm:"column:order_total;type:numeric(10,2);not null"`

	// Version guards read-modify-write transitions; every status change
	// increments it and updates are conditional on the value read.
	Version int `gorm:"column:version;not null;default:1"`

	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	Items   []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History []OrderHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = GenerateOrderNumber()
	}
	return nil
}

// GenerateOrderNumber produces ORD-<utc timestamp>-<6 hex chars>.
func GenerateOrderNumber() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp alone still yields a usable, near-unique number.
		return fmt.Sprintf("ORD-%s", time.Now().UTC().Format("20060102150405.000000"))
	}
	return fmt.Sprintf(
		"ORD-%s-%s",
		time.Now().UTC().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(buf)),
	)
}

// OrderItem freezes the resolved unit price and product identity at order
// creation. Never mutated.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	SKU         *string         `gorm:"column:sku"`
	PricePaid   decimal.Decimal `gorm:"column:price_paid;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderHistory is the append-only transition log. One row per successful
// status change; rows are never updated or deleted.
type OrderHistory struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null"`
	UpdatedByID *uuid.UUID        `gorm:"column:updated_by_id;type:uuid"`
	Notes       *string           `gorm:"column:notes"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the log table name.
func (OrderHistory) TableName() string {
	return "order_histories"
}

func (h *OrderHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
