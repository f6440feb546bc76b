package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	dbtypes "github.com/nearbuy-labs/nearbuy-backend/pkg/db/types"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/metrics"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput names the recipient and the exact order set a settlement
// should cover. Partial batches of a recipient's pending orders are fine.
type CreateInput struct {
	UserID        uuid.UUID
	RecipientType enums.SettlementRecipient
	OrderIDs      []uuid.UUID
	Notes         *string
}

// Service aggregates delivered orders into payout candidates and turns a
// chosen order set into an immutable settlement record.
type Service interface {
	PendingForSellers(ctx context.Context) ([]PendingDTO, error)
	PendingForPartners(ctx context.Context) ([]PendingDTO, error)
	Create(ctx context.Context, input CreateInput) (*DTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DTO, error)
	List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]DTO, string, error)
	Complete(ctx context.Context, id uuid.UUID) (*DTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.CommerceMetrics
	cfg     config.CommerceConfig
}

// NewService builds the settlement engine.
func NewService(repo Repository, tx txRunner, m *metrics.CommerceMetrics, cfg config.CommerceConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m, cfg: cfg}, nil
}

// merchandiseBase is the per-order amount commission applies to. Whether a
// coupon discount reduces it is a platform policy, not a caller choice.
func (s *service) merchandiseBase(order *models.Order) decimal.Decimal {
	if s.cfg.CommissionBase == config.CommissionBasePreDiscount {
		return order.Subtotal
	}
	return order.Subtotal.Sub(order.Discount)
}

func (s *service) PendingForSellers(ctx context.Context) ([]PendingDTO, error) {
	rows, err := s.repo.ListUnsettledForSellers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsettled orders")
	}
	return s.aggregate(rows, enums.SettlementRecipientSeller), nil
}

func (s *service) PendingForPartners(ctx context.Context) ([]PendingDTO, error) {
	rows, err := s.repo.ListUnsettledForPartners(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsettled orders")
	}
	return s.aggregate(rows, enums.SettlementRecipientDeliveryPartner), nil
}

func (s *service) aggregate(rows []models.Order, recipient enums.SettlementRecipient) []PendingDTO {
	rate := s.cfg.CommissionRateDecimal()
	order := make([]uuid.UUID, 0)
	grouped := make(map[uuid.UUID]*PendingDTO)

	for i := range rows {
		row := &rows[i]
		userID := row.SellerID
		amount := s.merchandiseBase(row)
		if recipient == enums.SettlementRecipientDeliveryPartner {
			if row.DeliveryPartnerID == nil {
				continue
			}
			userID = *row.DeliveryPartnerID
			amount = row.DeliveryFee
		}

		pending, ok := grouped[userID]
		if !ok {
			pending = &PendingDTO{
				UserID:        userID,
				RecipientType: recipient,
				TotalAmount:   decimal.Zero,
				Commission:    decimal.Zero,
				NetAmount:     decimal.Zero,
			}
			grouped[userID] = pending
			order = append(order, userID)
		}
		pending.TotalAmount = pending.TotalAmount.Add(amount)
		pending.OrderIDs = append(pending.OrderIDs, row.ID)
	}

	result := make([]PendingDTO, 0, len(order))
	for _, userID := range order {
		pending := grouped[userID]
		if recipient == enums.SettlementRecipientSeller {
			pending.Commission = pending.TotalAmount.Mul(rate).Round(2)
		}
		pending.NetAmount = pending.TotalAmount.Sub(pending.Commission)
		result = append(result, *pending)
	}
	return result
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient user id required")
	}
	if !input.RecipientType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid recipient type %q", input.RecipientType))
	}
	orderIDs := dedupe(input.OrderIDs)
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id required")
	}

	var record *models.PaymentSettlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		rows, err := txRepo.FindOrdersByIDs(ctx, orderIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
		}
		amount, err := s.validateOrderSet(input, orderIDs, rows)
		if err != nil {
			return err
		}

		commission := decimal.Zero
		if input.RecipientType == enums.SettlementRecipientSeller {
			commission = amount.Mul(s.cfg.CommissionRateDecimal()).Round(2)
		}

		record = &models.PaymentSettlement{
			UserID:           input.UserID,
			RecipientType:    input.RecipientType,
			Amount:           amount,
			CommissionAmount: commission,
			NetAmount:        amount.Sub(commission),
			OrderIDs:         dbtypes.UUIDArray(orderIDs),
			Status:           enums.SettlementStatusPending,
			SettlementDate:   time.Now().UTC(),
			Notes:            input.Notes,
		}
		if err := txRepo.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create settlement")
		}

		claimed, err := txRepo.ClaimOrders(ctx, record.ID, input.RecipientType, orderIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim orders")
		}
		if claimed != int64(len(orderIDs)) {
			// A concurrent settlement got part of the set first.
			return pkgerrors.New(pkgerrors.CodeOrderAlreadySettled, "order set overlaps an existing settlement").
				WithDetails(map[string]any{
					"requested": len(orderIDs),
					"claimed":   claimed,
				})
		}

		if s.cfg.SettlementAutoDone {
			if _, err := txRepo.MarkCompleted(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete settlement")
			}
			record.Status = enums.SettlementStatusCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettlement(input.RecipientType.String())
	return newDTO(record), nil
}

func (s *service) validateOrderSet(input CreateInput, orderIDs []uuid.UUID, rows []models.Order) (decimal.Decimal, error) {
	byID := make(map[uuid.UUID]*models.Order, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	amount := decimal.Zero
	for _, id := range orderIDs {
		row, ok := byID[id]
		if !ok {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order does not exist").
				WithDetails(map[string]any{"order_id": id.String()})
		}
		if row.Status != enums.OrderStatusDelivered {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order is not delivered").
				WithDetails(map[string]any{
					"order_id": id.String(),
					"status":   row.Status.String(),
				})
		}

		switch input.RecipientType {
		case enums.SettlementRecipientSeller:
			if row.SellerID != input.UserID {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order belongs to a different seller").
					WithDetails(map[string]any{"order_id": id.String()})
			}
			if row.SettlementID != nil {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderAlreadySettled, "order already settled").
					WithDetails(map[string]any{"order_id": id.String()})
			}
			amount = amount.Add(s.merchandiseBase(row))
		case enums.SettlementRecipientDeliveryPartner:
			if row.DeliveryPartnerID == nil || *row.DeliveryPartnerID != input.UserID {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order was delivered by a different partner").
					WithDetails(map[string]any{"order_id": id.String()})
			}
			if row.DeliverySettlementID != nil {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeOrderAlreadySettled, "delivery fee already settled").
					WithDetails(map[string]any{"order_id": id.String()})
			}
			amount = amount.Add(row.DeliveryFee)
		}
	}
	return amount, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	return newDTO(record), nil
}

func (s *service) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]DTO, string, error) {
	rows, next, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settlements")
	}
	result := make([]DTO, 0, len(rows))
	for i := range rows {
		result = append(result, *newDTO(&rows[i]))
	}
	return result, next, nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID) (*DTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	if record.Status == enums.SettlementStatusCompleted {
		return newDTO(record), nil
	}

	done, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete settlement")
	}
	if !done {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "settlement changed concurrently")
	}
	record.Status = enums.SettlementStatusCompleted
	return newDTO(record), nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
