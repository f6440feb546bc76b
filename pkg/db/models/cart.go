package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRecord holds a buyer's open cart. One cart per buyer; items are
// consumed on checkout success, never linked to orders.
type CartRecord struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID   uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is a (cart, product, quantity) line. Quantity bounds are soft
// checked on mutation and hard checked again at checkout.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index;uniqueIndex:uq_cart_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_cart_product"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
