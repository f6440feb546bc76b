package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// Product is the catalog shape the fulfillment core reads: ownership, seller
// class, activity flag, per-audience pricing tiers, and inventory. Catalog
// CRUD itself is an external collaborator.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerClass     enums.SellerClass `gorm:"column:seller_class;type:text;not null"`
	Name            string            `gorm:"column:name;not null"`
	SKU             *string           `gorm:"column:sku"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true"`
	PickupAddressID *uuid.UUID        `gorm:"column:pickup_address_id;type:uuid"`
	DeletedAt       *time.Time        `gorm:"column:deleted_at;index"`
	Tiers           []PricingTier     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Inventory       *ProductInventory `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TierFor selects the active pricing tier for a buyer class, falling back to
// the generic customer tier when no exact match exists.
func (p *Product) TierFor(class enums.BuyerClass) *PricingTier {
	var fallback *PricingTier
	for i := range p.Tiers {
		tier := &p.Tiers[i]
		if !tier.IsActive {
			continue
		}
		if tier.BuyerClass == class {
			return tier
		}
		if tier.BuyerClass == enums.BuyerClassCustomer {
			fallback = tier
		}
	}
	return fallback
}

// Available reports whether the product can currently be purchased.
func (p *Product) Available() bool {
	return p.IsActive && p.DeletedAt == nil
}

// AvailableStock returns stock minus advisory reservations, floored at zero.
func (p *Product) AvailableStock() int {
	if p.Inventory == nil {
		return 0
	}
	avail := p.Inventory.StockQuantity - p.Inventory.ReservedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PricingTier is a (buyer class, price, quantity bounds, active flag) rule
// attached to a product.
type PricingTier struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	BuyerClass  enums.BuyerClass `gorm:"column:buyer_class;type:text;not null"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	MinQuantity int              `gorm:"column:min_quantity;not null;default:1"`
	MaxQuantity *int             `gorm:"column:max_quantity"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *PricingTier) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProductInventory tracks authoritative stock plus advisory cart
// reservations. Decrements are conditional updates; the row never goes
// negative.
type ProductInventory struct {
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	StockQuantity    int       `gorm:"column:stock_quantity;not null;default:0"`
	ReservedQuantity int       `gorm:"column:reserved_quantity;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the inventory table singular-free like the rest.
func (ProductInventory) TableName() string {
	return "product_inventories"
}
