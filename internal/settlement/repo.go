package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

// Repository persists settlements and claims order membership. Claiming is a
// conditional update on the per-recipient settlement marker so the same
// order can never be paid out twice to the same recipient kind.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListUnsettledForSellers(ctx context.Context) ([]models.Order, error)
	ListUnsettledForPartners(ctx context.Context) ([]models.Order, error)
	FindOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)

	Create(ctx context.Context, record *models.PaymentSettlement) error
	ClaimOrders(ctx context.Context, settlementID uuid.UUID, recipient enums.SettlementRecipient, orderIDs []uuid.UUID) (int64, error)
	MarkCompleted(ctx context.Context, settlementID uuid.UUID) (bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentSettlement, error)
	List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.PaymentSettlement, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository over the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListUnsettledForSellers(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("order_status = ? AND settlement_id IS NULL", enums.OrderStatusDelivered).
		Order("seller_id, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListUnsettledForPartners(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("order_status = ? AND delivery_settlement_id IS NULL AND delivery_partner_id IS NOT NULL", enums.OrderStatusDelivered).
		Order("delivery_partner_id, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, record *models.PaymentSettlement) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ClaimOrders stamps the settlement onto the orders and is the race arbiter:
// an order already carrying a marker for this recipient kind does not match,
// so the returned count falling short of len(orderIDs) means an overlap.
func (r *repository) ClaimOrders(ctx context.Context, settlementID uuid.UUID, recipient enums.SettlementRecipient, orderIDs []uuid.UUID) (int64, error) {
	column := "settlement_id"
	if recipient == enums.SettlementRecipientDeliveryPartner {
		column = "delivery_settlement_id"
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ? AND order_status = ? AND "+column+" IS NULL", orderIDs, enums.OrderStatusDelivered).
		Updates(map[string]any{
			column:       settlementID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) MarkCompleted(ctx context.Context, settlementID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentSettlement{}).
		Where("id = ? AND status = ?", settlementID, enums.SettlementStatusPending).
		Updates(map[string]any{
			"status":     enums.SettlementStatusCompleted,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentSettlement, error) {
	var record models.PaymentSettlement
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.PaymentSettlement, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, "", err
	} else if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PaymentSettlement
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
