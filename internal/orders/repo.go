package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error)
	UpdateStatusVersioned(ctx context.Context, orderID uuid.UUID, fromVersion int, updates map[string]any) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderHistory) error
	RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error
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

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	return r.list(ctx, params, filters, "buyer_id = ?", buyerID)
}

func (r *repository) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	return r.list(ctx, params, filters, "seller_id = ?", sellerID)
}

func (r *repository) ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	return r.list(ctx, params, filters, "delivery_partner_id = ?", partnerID)
}

func (r *repository) list(ctx context.Context, params pagination.Params, filters ListFilters, cond string, arg any) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where(cond, arg).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filters.Status != nil {
		query = query.Where("order_status = ?", *filters.Status)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, "", err
	} else if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// UpdateStatusVersioned applies the updates only if the version still matches
// what the caller read. Returns false when another writer got there first.
func (r *repository) UpdateStatusVersioned(ctx context.Context, orderID uuid.UUID, fromVersion int, updates map[string]any) (bool, error) {
	updates["version"] = fromVersion + 1
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", orderID, fromVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// RestoreStock returns cancelled units to the sellable pool.
func (r *repository) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductInventory{}).
		Where("product_id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

