package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

func intPtr(v int) *int { return &v }

func testProduct() *models.Product {
	return &models.Product{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		SellerClass: enums.SellerClassRetailer,
		Name:        "Basmati Rice 5kg",
		IsActive:    true,
		Tiers: []models.PricingTier{
			{
				ID:          uuid.New(),
				BuyerClass:  enums.BuyerClassCustomer,
				Price:       decimal.RequireFromString("450.00"),
				MinQuantity: 1,
				MaxQuantity: intPtr(10),
				IsActive:    true,
			},
			{
				ID:          uuid.New(),
				BuyerClass:  enums.BuyerClassRetailer,
				Price:       decimal.RequireFromString("400.00"),
				MinQuantity: 5,
				IsActive:    true,
			},
		},
		Inventory: &models.ProductInventory{
			StockQuantity:    100,
			ReservedQuantity: 10,
		},
	}
}

func TestResolvePicksClassTier(t *testing.T) {
	quote, err := Resolve(Request{
		Product:    testProduct(),
		BuyerClass: enums.BuyerClassRetailer,
		Quantity:   5,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !quote.UnitPrice.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("expected retailer price, got %s", quote.UnitPrice)
	}
	if !quote.LineTotal.Equal(decimal.RequireFromString("2000.00")) {
		t.Fatalf("unexpected line total %s", quote.LineTotal)
	}
}

func TestResolveFallsBackToCustomerTier(t *testing.T) {
	product := testProduct()
	product.Tiers = product.Tiers[:1]

	quote, err := Resolve(Request{
		Product:    product,
		BuyerClass: enums.BuyerClassRetailer,
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !quote.UnitPrice.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("expected customer fallback price, got %s", quote.UnitPrice)
	}
}

func TestResolveNoPricingForClass(t *testing.T) {
	product := testProduct()
	product.Tiers = []models.PricingTier{
		{BuyerClass: enums.BuyerClassRetailer, Price: decimal.NewFromInt(400), MinQuantity: 5, IsActive: true},
	}

	_, err := Resolve(Request{
		Product:    product,
		BuyerClass: enums.BuyerClassCustomer,
		Quantity:   1,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNoPricing) {
		t.Fatalf("expected NO_PRICING_AVAILABLE, got %v", err)
	}
}

func TestResolveIgnoresInactiveTiers(t *testing.T) {
	product := testProduct()
	product.Tiers[1].IsActive = false

	quote, err := Resolve(Request{
		Product:    product,
		BuyerClass: enums.BuyerClassRetailer,
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !quote.UnitPrice.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("expected fallback past inactive tier, got %s", quote.UnitPrice)
	}
}

func TestResolveQuantityBounds(t *testing.T) {
	_, err := Resolve(Request{
		Product:    testProduct(),
		BuyerClass: enums.BuyerClassRetailer,
		Quantity:   3,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeBelowMinimumQuantity) {
		t.Fatalf("expected BELOW_MINIMUM_QUANTITY, got %v", err)
	}

	_, err = Resolve(Request{
		Product:    testProduct(),
		BuyerClass: enums.BuyerClassCustomer,
		Quantity:   11,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeExceedsMaximumQuantity) {
		t.Fatalf("expected EXCEEDS_MAXIMUM_QUANTITY, got %v", err)
	}
}

func TestResolveCumulativeQuantityCountsExisting(t *testing.T) {
	// 8 already in cart plus 3 more crosses the customer tier maximum of 10.
	_, err := Resolve(Request{
		Product:          testProduct(),
		BuyerClass:       enums.BuyerClassCustomer,
		Quantity:         3,
		ExistingQuantity: 8,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeExceedsMaximumQuantity) {
		t.Fatalf("expected EXCEEDS_MAXIMUM_QUANTITY, got %v", err)
	}

	// Existing units also satisfy a minimum the increment alone would miss.
	quote, err := Resolve(Request{
		Product:          testProduct(),
		BuyerClass:       enums.BuyerClassRetailer,
		Quantity:         2,
		ExistingQuantity: 4,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Quantity != 2 {
		t.Fatalf("quote should carry the increment quantity, got %d", quote.Quantity)
	}
}

func TestResolveInsufficientStock(t *testing.T) {
	product := testProduct()
	product.Inventory.StockQuantity = 6
	product.Inventory.ReservedQuantity = 2

	_, err := Resolve(Request{
		Product:    product,
		BuyerClass: enums.BuyerClassCustomer,
		Quantity:   5,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
}

func TestResolveInactiveProduct(t *testing.T) {
	product := testProduct()
	product.IsActive = false

	_, err := Resolve(Request{
		Product:    product,
		BuyerClass: enums.BuyerClassCustomer,
		Quantity:   1,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
