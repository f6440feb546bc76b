package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

// Quote is the resolved price for a product line at a given quantity.
type Quote struct {
	Product   *models.Product
	Tier      *models.PricingTier
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// Request describes a pricing lookup. ExistingQuantity counts units of the
// same product the buyer already holds (cart lines or open orders), so tier
// bounds apply to the cumulative quantity rather than the increment alone.
type Request struct {
	Product          *models.Product
	BuyerClass       enums.BuyerClass
	Quantity         int
	ExistingQuantity int
}

// Resolve picks the pricing tier for the buyer class and validates quantity
// bounds and stock before quoting.
func Resolve(req Request) (*Quote, error) {
	if req.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !req.BuyerClass.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid buyer class %q", req.BuyerClass))
	}
	if !req.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not available")
	}

	tier := req.Product.TierFor(req.BuyerClass)
	if tier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNoPricing, "no pricing available for buyer class").
			WithDetails(map[string]any{
				"product_id":  req.Product.ID.String(),
				"buyer_class": req.BuyerClass.String(),
			})
	}

	cumulative := req.Quantity + req.ExistingQuantity
	if cumulative < tier.MinQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimumQuantity, "quantity below tier minimum").
			WithDetails(map[string]any{
				"minimum_quantity": tier.MinQuantity,
				"quantity":         cumulative,
			})
	}
	if tier.MaxQuantity != nil && cumulative > *tier.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeExceedsMaximumQuantity, "quantity above tier maximum").
			WithDetails(map[string]any{
				"maximum_quantity": *tier.MaxQuantity,
				"quantity":         cumulative,
			})
	}

	if available := req.Product.AvailableStock(); cumulative > available {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"available": available,
				"requested": cumulative,
			})
	}

	qty := decimal.NewFromInt(int64(req.Quantity))
	return &Quote{
		Product:   req.Product,
		Tier:      tier,
		UnitPrice: tier.Price,
		Quantity:  req.Quantity,
		LineTotal: tier.Price.Mul(qty),
	}, nil
}
