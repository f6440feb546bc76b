package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

// Repository defines persistence operations for the delivery claim flow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListClaimable(ctx context.Context, limit int) ([]models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Claim(ctx context.Context, orderID, partnerID uuid.UUID) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderHistory) error
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

func (r *repository) ListClaimable(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_status = ? AND delivery_partner_id IS NULL", enums.OrderStatusReadyToShip).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Claim assigns the partner with a single conditional update. The WHERE
// clause is the whole race: only one concurrent claimer can match the
// unassigned ready_to_ship row.
func (r *repository) Claim(ctx context.Context, orderID, partnerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ? AND delivery_partner_id IS NULL",
			orderID, enums.OrderStatusReadyToShip).
		Updates(map[string]any{
			"order_status":        enums.OrderStatusDeliveryPartnerAssigned,
			"delivery_partner_id": partnerID,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
