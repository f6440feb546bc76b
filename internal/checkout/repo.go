package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// Repository persists the artifacts of one checkout: the aggregate payment,
// the per-seller orders, and the conditional stock decrements that must
// commit with them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
	FindProductForSale(ctx context.Context, id uuid.UUID) (*models.Product, error)
	OpenOrderQuantity(ctx context.Context, buyerID, productID uuid.UUID) (int, error)

	FindUnpaidPayment(ctx context.Context, buyerID uuid.UUID, cartHash string) (*models.Payment, error)
	FindPaymentByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	FindOrdersByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Order, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreateOrder(ctx context.Context, order *models.Order) error
	AppendHistory(ctx context.Context, entry *models.OrderHistory) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	SetGatewayOrder(ctx context.Context, paymentID uuid.UUID, gatewayOrderID string) error
	MarkPaymentOutcome(ctx context.Context, paymentID uuid.UUID, outcome enums.PaymentStatus, gatewayPaymentID, failureReason *string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository over the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) FindProductForSale(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Tiers").
		Preload("Inventory").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// OpenOrderQuantity sums the units of a product the buyer already holds in
// orders that have not begun fulfillment, so revalidation bounds the
// cumulative total the same way cart mutation does.
func (r *repository) OpenOrderQuantity(ctx context.Context, buyerID, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ? AND orders.order_status IN ?", buyerID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed}).
		Where("order_items.product_id = ?", productID).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) FindUnpaidPayment(ctx context.Context, buyerID uuid.UUID, cartHash string) (*models.Payment, error) {
	query := r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, enums.PaymentStatusCreated)
	if cartHash != "" {
		query = query.Where("cart_hash = ?", cartHash)
	}

	var payment models.Payment
	err := query.Order("created_at DESC").First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindPaymentByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindOrdersByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Order, error) {
	var result []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// DecrementStock is a single conditional update so concurrent checkouts can
// never drive stock negative. A false return means the row no longer holds
// enough stock.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductInventory{}).
		Where("product_id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetGatewayOrder(ctx context.Context, paymentID uuid.UUID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_order_id", gatewayOrderID).Error
}

func (r *repository) MarkPaymentOutcome(ctx context.Context, paymentID uuid.UUID, outcome enums.PaymentStatus, gatewayPaymentID, failureReason *string, at time.Time) error {
	updates := map[string]any{
		"status":     outcome,
		"updated_at": at,
	}
	if gatewayPaymentID != nil {
		updates["gateway_payment_id"] = *gatewayPaymentID
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	if outcome == enums.PaymentStatusPaid {
		updates["paid_at"] = at
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(updates).Error
}
