package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/metrics"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies who is acting on an order.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// TransitionInput carries a requested status change.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   Actor
	Notes   *string
}

// Service exposes order reads and the status state machine.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*DTO, error)
	Transition(ctx context.Context, input TransitionInput) (*DTO, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	metrics      *metrics.CommerceMetrics
	returnWindow time.Duration
}

// NewService builds the order service. returnWindow bounds how long after
// delivery a return may be opened; zero disables returns.
func NewService(repo Repository, tx txRunner, m *metrics.CommerceMetrics, returnWindow time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m, returnWindow: returnWindow}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*DTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !canView(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
	}
	return NewDTO(order, actor.Role), nil
}

func canView(order *models.Order, actor Actor) bool {
	if actor.Role == enums.RoleAdmin {
		return true
	}
	if order.BuyerID == actor.UserID || order.SellerID == actor.UserID {
		return true
	}
	return order.DeliveryPartnerID != nil && *order.DeliveryPartnerID == actor.UserID
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*DTO, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}

	var dto *DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindDetail(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := s.authorizeTransition(order, input); err != nil {
			return err
		}

		if !CanTransition(order.Status, input.Target, input.Actor.Role) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not allowed").
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   input.Target.String(),
					"role": input.Actor.Role.String(),
				})
		}

		now := time.Now().UTC()
		updates := map[string]any{"order_status": input.Target}
		switch input.Target {
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
		case enums.OrderStatusReturned:
			if err := s.checkReturnWindow(order, now); err != nil {
				return err
			}
		}

		ok, err := repo.UpdateStatusVersioned(ctx, order.ID, order.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "order was modified concurrently")
		}

		if input.Target == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
		}

		actorID := input.Actor.UserID
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			OrderID:     order.ID,
			Status:      input.Target,
			UpdatedByID: &actorID,
			Notes:       input.Notes,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		fresh, err := repo.FindDetail(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		dto = NewDTO(fresh, input.Actor.Role)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(input.Target.String())
	return dto, nil
}

// authorizeTransition binds roles to the specific order parties: sellers act
// on their own orders, partners on their assigned ones, buyers on their
// purchases.
func (s *service) authorizeTransition(order *models.Order, input TransitionInput) error {
	switch input.Actor.Role {
	case enums.RoleAdmin, enums.RoleSystem:
		return nil
	case enums.RoleDeliveryPartner:
		if order.DeliveryPartnerID == nil || *order.DeliveryPartnerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to you")
		}
		return nil
	case enums.RoleRetailer, enums.RoleWholesaler:
		// Sellers drive fulfillment on their own orders. A retailer can also
		// be the buyer of a wholesale order, cancelling or returning it.
		if order.SellerID == input.Actor.UserID || order.BuyerID == input.Actor.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
	case enums.RoleCustomer:
		if order.BuyerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot act on orders")
	}
}

func (s *service) checkReturnWindow(order *models.Order, now time.Time) error {
	if s.returnWindow <= 0 {
		return pkgerrors.New(pkgerrors.CodeOrderNotEligible, "returns are not enabled")
	}
	if order.DeliveredAt == nil {
		return pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order has no delivery timestamp")
	}
	if now.Sub(*order.DeliveredAt) > s.returnWindow {
		return pkgerrors.New(pkgerrors.CodeOrderNotEligible, "return window has closed").
			WithDetails(map[string]any{
				"delivered_at":        order.DeliveredAt.UTC().Format(time.RFC3339),
				"return_window_hours": int(s.returnWindow.Hours()),
			})
	}
	return nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error) {
	rows, next, err := s.repo.ListForBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return mapDTOs(rows, enums.RoleCustomer), next, nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error) {
	rows, next, err := s.repo.ListForSeller(ctx, sellerID, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return mapDTOs(rows, enums.RoleRetailer), next, nil
}

func (s *service) ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params, filters ListFilters) ([]DTO, string, error) {
	rows, next, err := s.repo.ListForPartner(ctx, partnerID, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partner orders")
	}
	return mapDTOs(rows, enums.RoleDeliveryPartner), next, nil
}

func mapDTOs(rows []models.Order, role enums.Role) []DTO {
	out := make([]DTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewDTO(&rows[i], role))
	}
	return out
}
