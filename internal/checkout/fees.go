package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
)

// FeeFunc computes the delivery fee for one order given its merchandise
// subtotal and the pickup-to-drop distance. Implementations must return a
// non-negative amount.
type FeeFunc func(subtotal decimal.Decimal, journeyKm float64) decimal.Decimal

// NewDistanceFeeFunc builds the platform's fee schedule: a flat base plus a
// per-kilometer component, capped at a fraction of the merchandise subtotal
// so the fee never dwarfs a small order.
func NewDistanceFeeFunc(cfg config.CommerceConfig) FeeFunc {
	base := cfg.DeliveryBaseFeeDecimal()
	perKm := cfg.DeliveryPerKmFeeDecimal()
	capPct := cfg.DeliveryFeeCapPctDecimal()

	return func(subtotal decimal.Decimal, journeyKm float64) decimal.Decimal {
		if journeyKm < 0 {
			journeyKm = 0
		}
		fee := base.Add(perKm.Mul(decimal.NewFromFloat(journeyKm))).Round(2)
		cap := subtotal.Mul(capPct).Round(2)
		if fee.GreaterThan(cap) {
			fee = cap
		}
		if fee.IsNegative() {
			return decimal.Zero
		}
		return fee
	}
}

// CouponApplier resolves the discount for a buyer's per-seller subtotal.
// The returned discount must not exceed the subtotal.
type CouponApplier func(ctx context.Context, buyerID uuid.UUID, sellerID uuid.UUID, subtotal decimal.Decimal) (decimal.Decimal, error)

// NoopCouponApplier applies no discount.
func NoopCouponApplier(ctx context.Context, buyerID uuid.UUID, sellerID uuid.UUID, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
