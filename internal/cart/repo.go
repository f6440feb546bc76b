package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// openOrderStatuses are the order states whose quantities still count toward
// a buyer's cumulative total when validating tier bounds.
var openOrderStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
}

// Repository defines persistence operations for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindWithItems(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	FindProductForSale(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	OpenOrderQuantity(ctx context.Context, buyerID, productID uuid.UUID) (int, error)
	AdjustReservation(ctx context.Context, productID uuid.UUID, delta int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetOrCreate(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	record = models.CartRecord{BuyerID: buyerID}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindWithItems(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": quantity}),
		}).
		Create(&item).Error
}

func (r *repository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// OpenOrderQuantity sums the units of a product the buyer already holds in
// orders that have not begun fulfillment.
func (r *repository) OpenOrderQuantity(ctx context.Context, buyerID, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ? AND orders.order_status IN ?", buyerID, openOrderStatuses).
		Where("order_items.product_id = ?", productID).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// AdjustReservation shifts the advisory reservation by delta. Reservations
// are advisory, so a negative delta that would undershoot floors at zero
// instead of failing.
func (r *repository) AdjustReservation(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProductInventory{}).
		Where("product_id = ? AND reserved_quantity + ? >= 0", productID, delta).
		UpdateColumn("reserved_quantity", gorm.Expr("reserved_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && delta < 0 {
		return r.db.WithContext(ctx).
			Model(&models.ProductInventory{}).
			Where("product_id = ?", productID).
			UpdateColumn("reserved_quantity", 0).Error
	}
	return nil
}

func (r *repository) FindProductForSale(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Tiers").
		Preload("Inventory").
		Where("id = ? AND deleted_at IS NULL", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
