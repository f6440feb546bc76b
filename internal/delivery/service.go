package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/geo"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/metrics"
)

const claimLockTTL = 30 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ClaimLocker sheds duplicate claim attempts before they reach the database.
// The conditional update stays authoritative either way.
type ClaimLocker interface {
	AcquireClaimLock(ctx context.Context, orderID, partnerID string, ttl time.Duration) (bool, error)
	ReleaseClaimLock(ctx context.Context, orderID string) error
}

// ListInput filters the claimable order feed.
type ListInput struct {
	Location *PartnerLocation
	RadiusKm *float64
	Limit    int
}

// Service exposes the delivery partner order feed and claiming.
type Service interface {
	ListAvailable(ctx context.Context, partnerID uuid.UUID, input ListInput) ([]AvailableOrderDTO, error)
	Claim(ctx context.Context, partnerID, orderID uuid.UUID) (*orders.DTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	locker  ClaimLocker
	metrics *metrics.CommerceMetrics
}

// NewService builds the delivery service. locker and m may be nil.
func NewService(repo Repository, tx txRunner, locker ClaimLocker, m *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, locker: locker, metrics: m}, nil
}

func (s *service) ListAvailable(ctx context.Context, partnerID uuid.UUID, input ListInput) ([]AvailableOrderDTO, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RadiusKm != nil && input.Location == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius filter requires a location")
	}

	rows, err := s.repo.ListClaimable(ctx, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claimable orders")
	}

	// Coarse bounding-box cut around the partner; the exact haversine check
	// runs on whatever passes.
	var bounds *claimBounds
	if input.RadiusKm != nil {
		minLat, maxLat, minLon, maxLon := geo.BoundingBox(
			input.Location.Latitude, input.Location.Longitude, *input.RadiusKm)
		bounds = &claimBounds{minLat: minLat, maxLat: maxLat, minLon: minLon, maxLon: maxLon}
	}

	out := make([]AvailableOrderDTO, 0, len(rows))
	for i := range rows {
		if bounds != nil {
			pickup := rows[i].PickupAddress
			if pickup == nil || !pickup.HasCoordinates() || !bounds.contains(pickup.Latitude, pickup.Longitude) {
				continue
			}
		}
		dto := annotate(&rows[i], input.Location)
		if input.RadiusKm != nil {
			if dto.PickupDistanceKm == nil || *dto.PickupDistanceKm > *input.RadiusKm {
				continue
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

type claimBounds struct {
	minLat, maxLat, minLon, maxLon float64
}

func (b claimBounds) contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

// annotate computes the partner-to-pickup distance and the pickup-to-dropoff
// journey from the frozen address snapshots.
func annotate(order *models.Order, loc *PartnerLocation) AvailableOrderDTO {
	dto := AvailableOrderDTO{DTO: *orders.NewDTO(order, enums.RoleDeliveryPartner)}

	pickup := order.PickupAddress
	if pickup != nil && pickup.HasCoordinates() {
		if loc != nil {
			d := geo.HaversineKm(loc.Latitude, loc.Longitude, pickup.Latitude, pickup.Longitude)
			dto.PickupDistanceKm = &d
		}
		if order.DeliveryAddress.HasCoordinates() {
			j := geo.HaversineKm(pickup.Latitude, pickup.Longitude,
				order.DeliveryAddress.Latitude, order.DeliveryAddress.Longitude)
			dto.JourneyKm = &j
		}
	}
	return dto
}

func (s *service) Claim(ctx context.Context, partnerID, orderID uuid.UUID) (*orders.DTO, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireClaimLock(ctx, orderID.String(), partnerID.String(), claimLockTTL)
		if err == nil && !ok {
			s.metrics.IncClaim("conflict")
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "order is being claimed")
		}
		if err == nil {
			defer func() { _ = s.locker.ReleaseClaimLock(ctx, orderID.String()) }()
		}
		// A lock error falls through: the database decides.
	}

	var dto *orders.DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		claimed, err := repo.Claim(ctx, orderID, partnerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if !claimed {
			order, err := repo.FindByID(ctx, orderID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			if order.DeliveryPartnerID != nil {
				return pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "order already claimed")
			}
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not ready for pickup").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		pid := partnerID
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			OrderID:     orderID,
			Status:      enums.OrderStatusDeliveryPartnerAssigned,
			UpdatedByID: &pid,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		dto = orders.NewDTO(order, enums.RoleDeliveryPartner)
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeAlreadyClaimed) {
			s.metrics.IncClaim("conflict")
		}
		return nil, err
	}

	s.metrics.IncClaim("claimed")
	return dto, nil
}
