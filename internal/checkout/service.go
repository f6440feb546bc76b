package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/internal/cart"
	"github.com/nearbuy-labs/nearbuy-backend/internal/pricing"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/gateway"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/geo"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/metrics"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentIntenter interface {
	CreateOrderIntent(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*gateway.OrderIntent, error)
}

// ConfirmInput carries a payment-gateway callback. Succeeded false marks the
// payment failed with the given reason.
type ConfirmInput struct {
	GatewayOrderID   string
	GatewayPaymentID *string
	Succeeded        bool
	FailureReason    *string
}

// Service turns a buyer's cart into per-seller orders under one payment.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID) (*ResultDTO, error)
	ConfirmPayment(ctx context.Context, input ConfirmInput) error
}

type service struct {
	tx      txRunner
	repo    Repository
	carts   cart.Repository
	gateway paymentIntenter
	metrics *metrics.CommerceMetrics
	fee     FeeFunc
	coupons CouponApplier
}

// NewService builds the checkout orchestrator. A nil coupons applier means
// no discounts.
func NewService(
	tx txRunner,
	repo Repository,
	carts cart.Repository,
	intents paymentIntenter,
	m *metrics.CommerceMetrics,
	fee FeeFunc,
	coupons CouponApplier,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if intents == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if fee == nil {
		return nil, fmt.Errorf("delivery fee function required")
	}
	if coupons == nil {
		coupons = NoopCouponApplier
	}
	return &service{
		tx:      tx,
		repo:    repo,
		carts:   carts,
		gateway: intents,
		metrics: m,
		fee:     fee,
		coupons: coupons,
	}, nil
}

// sellerGroup is one prospective order: a seller's priced lines plus the
// amounts and snapshots frozen into the order row.
type sellerGroup struct {
	sellerID uuid.UUID
	lines    []pricedLine
	subtotal decimal.Decimal
	discount decimal.Decimal
	fee      decimal.Decimal
	total    decimal.Decimal
	pickup   *types.AddressSnapshot
}

type pricedLine struct {
	product *models.Product
	quote   *pricing.Quote
}

func (s *service) Execute(ctx context.Context, buyerID uuid.UUID) (*ResultDTO, error) {
	start := time.Now()
	result, err := s.execute(ctx, buyerID)
	if err != nil {
		s.metrics.ObserveCheckout("failure", time.Since(start))
		return nil, err
	}
	s.metrics.ObserveCheckout("success", time.Since(start))
	return result, nil
}

func (s *service) execute(ctx context.Context, buyerID uuid.UUID) (*ResultDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}

	buyer, err := s.repo.FindUser(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	record, err := s.carts.FindWithItems(ctx, buyerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	hash := ""
	if record != nil && len(record.Items) > 0 {
		hash = cartHash(buyerID, record.Items)
	}

	// A retry with the same cart, or after the cart was already consumed,
	// resumes the prepared unpaid payment instead of duplicating orders.
	existing, err := s.repo.FindUnpaidPayment(ctx, buyerID, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up unpaid payment")
	}
	if existing != nil {
		return s.resume(ctx, buyer, existing)
	}

	if record == nil || len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}

	deliveryAddr, err := s.buyerDeliveryAddress(ctx, buyer)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BuyerID:  buyerID,
		Status:   enums.PaymentStatusCreated,
		Currency: "INR",
		CartHash: hash,
	}
	var created []models.Order

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		groups, err := s.priceAndGroup(ctx, txRepo, buyer, *deliveryAddr, record.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, group := range groups {
			total = total.Add(group.total)
		}
		payment.TotalAmount = total
		if err := txRepo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		created = created[:0]
		for _, group := range groups {
			order, err := s.createOrder(ctx, txRepo, buyer, payment.ID, *deliveryAddr, group)
			if err != nil {
				return err
			}
			created = append(created, *order)
		}

		txCarts := s.carts.WithTx(tx)
		for _, item := range record.Items {
			if err := txCarts.AdjustReservation(ctx, item.ProductID, -item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservation")
			}
		}
		if err := txCarts.Clear(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddOrdersCreated(len(created))

	result := newResultDTO(payment, created, buyer.ActiveRole)
	if err := s.attachGatewayIntent(ctx, payment, result); err != nil {
		return nil, err
	}
	return result, nil
}

// resume returns the already-prepared orders for an unpaid payment,
// requesting a gateway reference if the earlier attempt died before one was
// issued.
func (s *service) resume(ctx context.Context, buyer *models.User, payment *models.Payment) (*ResultDTO, error) {
	prepared, err := s.repo.FindOrdersByPayment(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prepared orders")
	}
	result := newResultDTO(payment, prepared, buyer.ActiveRole)
	if payment.GatewayOrderID == nil {
		if err := s.attachGatewayIntent(ctx, payment, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *service) attachGatewayIntent(ctx context.Context, payment *models.Payment, result *ResultDTO) error {
	intent, err := s.gateway.CreateOrderIntent(ctx, payment.TotalAmount, payment.Currency, payment.ID.String())
	if err != nil {
		// Orders and payment are already durable; a retried checkout
		// resumes them.
		return err
	}
	if err := s.repo.SetGatewayOrder(ctx, payment.ID, intent.GatewayOrderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record gateway order")
	}
	result.GatewayOrderID = &intent.GatewayOrderID
	result.GatewayKeyID = &intent.KeyID
	return nil
}

func (s *service) buyerDeliveryAddress(ctx context.Context, buyer *models.User) (*types.AddressSnapshot, error) {
	if buyer.ActiveAddressID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer has no active delivery address")
	}
	address, err := s.repo.FindAddress(ctx, *buyer.ActiveAddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer delivery address no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery address")
	}
	snapshot := address.Snapshot()
	return &snapshot, nil
}

// priceAndGroup re-resolves every cart line at execution time and groups the
// priced lines by seller. Any line failing validation aborts the whole
// checkout with the per-item errors aggregated.
func (s *service) priceAndGroup(
	ctx context.Context,
	repo Repository,
	buyer *models.User,
	delivery types.AddressSnapshot,
	items []models.CartItem,
) ([]sellerGroup, error) {
	buyerClass := buyer.BuyerClass()

	var itemErrs error
	sellerOrder := make([]uuid.UUID, 0, len(items))
	linesBySeller := make(map[uuid.UUID][]pricedLine, len(items))

	for _, item := range items {
		product, err := repo.FindProductForSale(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				itemErrs = multierr.Append(itemErrs, pkgerrors.
					New(pkgerrors.CodeNotFound, "product no longer available").
					WithDetails(map[string]any{"product_id": item.ProductID.String()}))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		open, err := repo.OpenOrderQuantity(ctx, buyer.ID, item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
		}

		// This cart line holds the advisory reservation being spent; credit
		// it back before validating availability.
		if product.Inventory != nil {
			product.Inventory.ReservedQuantity -= item.Quantity
			if product.Inventory.ReservedQuantity < 0 {
				product.Inventory.ReservedQuantity = 0
			}
		}

		quote, err := pricing.Resolve(pricing.Request{
			Product:          product,
			BuyerClass:       buyerClass,
			Quantity:         item.Quantity,
			ExistingQuantity: open,
		})
		if err != nil {
			itemErrs = multierr.Append(itemErrs, err)
			continue
		}

		if _, seen := linesBySeller[product.SellerID]; !seen {
			sellerOrder = append(sellerOrder, product.SellerID)
		}
		linesBySeller[product.SellerID] = append(linesBySeller[product.SellerID], pricedLine{
			product: product,
			quote:   quote,
		})
	}
	if itemErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, itemErrs, "cart failed checkout validation")
	}

	groups := make([]sellerGroup, 0, len(sellerOrder))
	for _, sellerID := range sellerOrder {
		group, err := s.buildGroup(ctx, repo, buyer.ID, sellerID, delivery, linesBySeller[sellerID])
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, nil
}

func (s *service) buildGroup(
	ctx context.Context,
	repo Repository,
	buyerID, sellerID uuid.UUID,
	delivery types.AddressSnapshot,
	lines []pricedLine,
) (*sellerGroup, error) {
	group := &sellerGroup{sellerID: sellerID, lines: lines}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.quote.LineTotal)
	}
	group.subtotal = subtotal

	discount, err := s.coupons(ctx, buyerID, sellerID, subtotal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	group.discount = discount

	journeyKm := 0.0
	for _, line := range lines {
		if line.product.PickupAddressID == nil {
			continue
		}
		pickup, err := repo.FindAddress(ctx, *line.product.PickupAddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup address")
		}
		snapshot := pickup.Snapshot()
		group.pickup = &snapshot
		journeyKm = geo.HaversineKm(snapshot.Latitude, snapshot.Longitude, delivery.Latitude, delivery.Longitude)
		break
	}

	group.fee = s.fee(subtotal, journeyKm)
	group.total = subtotal.Sub(discount).Add(group.fee)
	return group, nil
}

// createOrder freezes one seller group into an order with its items, logs
// the initial status, and decrements stock in the same transaction so a
// failure can never leave an order without its reservation.
func (s *service) createOrder(
	ctx context.Context,
	repo Repository,
	buyer *models.User,
	paymentID uuid.UUID,
	delivery types.AddressSnapshot,
	group sellerGroup,
) (*models.Order, error) {
	order := &models.Order{
		BuyerID:         buyer.ID,
		SellerID:        group.sellerID,
		BuyerClass:      buyer.BuyerClass(),
		Status:          enums.OrderStatusPending,
		PaymentID:       &paymentID,
		PickupAddress:   group.pickup,
		DeliveryAddress: delivery,
		Subtotal:        group.subtotal,
		Discount:        group.discount,
		DeliveryFee:     group.fee,
		Total:           group.total,
		Version:         1,
	}
	for _, line := range group.lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			SKU:         line.product.SKU,
			PricePaid:   line.quote.UnitPrice,
			Quantity:    line.quote.Quantity,
		})
	}

	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err := repo.AppendHistory(ctx, &models.OrderHistory{
		OrderID: order.ID,
		Status:  enums.OrderStatusPending,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
	}

	for _, line := range group.lines {
		ok, err := repo.DecrementStock(ctx, line.product.ID, line.quote.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock changed during checkout").
				WithDetails(map[string]any{
					"product_id": line.product.ID.String(),
					"requested":  line.quote.Quantity,
				})
		}
	}
	return order, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) error {
	if input.GatewayOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}

	payment, err := s.repo.FindPaymentByGatewayOrder(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for gateway order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status == enums.PaymentStatusPaid {
		// Gateways redeliver webhooks; a paid payment stays paid.
		return nil
	}

	outcome := enums.PaymentStatusPaid
	if !input.Succeeded {
		outcome = enums.PaymentStatusFailed
	}
	err = s.repo.MarkPaymentOutcome(ctx, payment.ID, outcome, input.GatewayPaymentID, input.FailureReason, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment outcome")
	}
	return nil
}
