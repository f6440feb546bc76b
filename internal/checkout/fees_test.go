package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
)

func cartLines(pairs ...any) []models.CartItem {
	items := make([]models.CartItem, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		items = append(items, models.CartItem{
			ProductID: pairs[i].(uuid.UUID),
			Quantity:  pairs[i+1].(int),
		})
	}
	return items
}

func testCommerceConfig() config.CommerceConfig {
	return config.CommerceConfig{
		DeliveryBaseFee:   "10",
		DeliveryPerKmFee:  "1",
		DeliveryFeeCapPct: "0.5",
	}
}

func TestDistanceFee(t *testing.T) {
	fee := NewDistanceFeeFunc(testCommerceConfig())

	got := fee(decimal.NewFromInt(100), 20)
	if want := decimal.NewFromInt(30); !got.Equal(want) {
		t.Fatalf("expected fee %s, got %s", want, got)
	}
}

func TestDistanceFeeCappedBySubtotal(t *testing.T) {
	fee := NewDistanceFeeFunc(testCommerceConfig())

	// 10 + 100 would exceed half of a 40 rupee order.
	got := fee(decimal.NewFromInt(40), 100)
	if want := decimal.NewFromInt(20); !got.Equal(want) {
		t.Fatalf("expected capped fee %s, got %s", want, got)
	}
}

func TestDistanceFeeNegativeDistance(t *testing.T) {
	fee := NewDistanceFeeFunc(testCommerceConfig())

	got := fee(decimal.NewFromInt(100), -5)
	if want := decimal.NewFromInt(10); !got.Equal(want) {
		t.Fatalf("expected base fee %s, got %s", want, got)
	}
}

func TestCartHashStableAcrossOrdering(t *testing.T) {
	buyer := uuid.New()
	a := uuid.New()
	b := uuid.New()

	first := cartHash(buyer, cartLines(a, 2, b, 3))
	second := cartHash(buyer, cartLines(b, 3, a, 2))
	if first != second {
		t.Fatalf("hash must not depend on line order")
	}

	changed := cartHash(buyer, cartLines(a, 2, b, 4))
	if changed == first {
		t.Fatalf("quantity change must change the hash")
	}
	otherBuyer := cartHash(uuid.New(), cartLines(a, 2, b, 3))
	if otherBuyer == first {
		t.Fatalf("hash must be scoped to the buyer")
	}
}

func TestNoopCouponApplier(t *testing.T) {
	discount, err := NoopCouponApplier(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("noop applier: %v", err)
	}
	if !discount.IsZero() {
		t.Fatalf("expected zero discount, got %s", discount)
	}
}
