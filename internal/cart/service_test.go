package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.PricingTier{},
		&models.ProductInventory{},
		&models.CartRecord{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), gormTxRunner{db: conn})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, sellerClass enums.SellerClass, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID:    uuid.New(),
		SellerClass: sellerClass,
		Name:        "Test Product",
		IsActive:    true,
		Tiers: []models.PricingTier{
			{
				BuyerClass:  sellerClass.BuyerClassFor(),
				Price:       decimal.RequireFromString(price),
				MinQuantity: 1,
				IsActive:    true,
			},
		},
		Inventory: &models.ProductInventory{StockQuantity: stock},
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestAddItemCreatesCartAndPricesLine(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "120.00", 50)

	dto, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(dto.Items))
	}
	if dto.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", dto.Items[0].Quantity)
	}
	if !dto.Subtotal.Equal(decimal.RequireFromString("240.00")) {
		t.Fatalf("expected subtotal 240.00, got %s", dto.Subtotal)
	}
}

func TestAddItemIsAdditiveForSameProduct(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 50)

	if _, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	dto, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 5 {
		t.Fatalf("expected single line with quantity 5, got %+v", dto.Items)
	}
}

func TestUpdateItemSetsAbsoluteQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 50)

	if _, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	dto, err := svc.UpdateItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 2)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", dto.Items[0].Quantity)
	}
}

func TestAddItemRejectsWrongAudience(t *testing.T) {
	svc, conn := newTestService(t)
	product := seedProduct(t, conn, enums.SellerClassWholesaler, "80.00", 50)

	_, err := svc.AddItem(context.Background(), uuid.New(), enums.BuyerClassCustomer, product.ID, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestAddItemRejectsOwnProduct(t *testing.T) {
	svc, conn := newTestService(t)
	product := seedProduct(t, conn, enums.SellerClassRetailer, "80.00", 50)

	_, err := svc.AddItem(context.Background(), product.SellerID, enums.BuyerClassCustomer, product.ID, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestAddItemInsufficientStock(t *testing.T) {
	svc, conn := newTestService(t)
	product := seedProduct(t, conn, enums.SellerClassRetailer, "80.00", 3)

	_, err := svc.AddItem(context.Background(), uuid.New(), enums.BuyerClassCustomer, product.ID, 4)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	first := seedProduct(t, conn, enums.SellerClassRetailer, "10.00", 50)
	second := seedProduct(t, conn, enums.SellerClassRetailer, "20.00", 50)

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, buyerID, enums.BuyerClassCustomer, first.ID, 1); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, enums.BuyerClassCustomer, second.ID, 1); err != nil {
		t.Fatalf("add second: %v", err)
	}

	dto, err := svc.RemoveItem(ctx, buyerID, enums.BuyerClassCustomer, first.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductID != second.ID {
		t.Fatalf("expected only second product to remain, got %+v", dto.Items)
	}

	if _, err := svc.RemoveItem(ctx, buyerID, enums.BuyerClassCustomer, first.ID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND on double remove, got %v", err)
	}

	if err := svc.Clear(ctx, buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err := svc.Get(ctx, buyerID, enums.BuyerClassCustomer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", len(got.Items))
	}
}

func seedOrder(t *testing.T, conn *gorm.DB, buyerID, productID uuid.UUID, status enums.OrderStatus, qty int) {
	t.Helper()
	order := &models.Order{
		BuyerID:    buyerID,
		SellerID:   uuid.New(),
		BuyerClass: enums.BuyerClassCustomer,
		Status:     status,
		Version:    1,
		Items: []models.OrderItem{{
			ProductID:   productID,
			ProductName: "Test Product",
			PricePaid:   decimal.RequireFromString("100.00"),
			Quantity:    qty,
		}},
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func setTierMaximum(t *testing.T, conn *gorm.DB, productID uuid.UUID, max int) {
	t.Helper()
	err := conn.Model(&models.PricingTier{}).
		Where("product_id = ?", productID).
		Update("max_quantity", max).Error
	if err != nil {
		t.Fatalf("set tier maximum: %v", err)
	}
}

func TestAddItemCountsOpenOrdersTowardMaximum(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 50)
	setTierMaximum(t, conn, product.ID, 5)
	seedOrder(t, conn, buyerID, product.ID, enums.OrderStatusPending, 4)

	_, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 4)
	if !pkgerrors.HasCode(err, pkgerrors.CodeExceedsMaximumQuantity) {
		t.Fatalf("expected EXCEEDS_MAXIMUM_QUANTITY, got %v", err)
	}

	if _, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 1); err != nil {
		t.Fatalf("add within cumulative bound: %v", err)
	}
}

func TestAddItemIgnoresFulfilledOrders(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 50)
	setTierMaximum(t, conn, product.ID, 5)
	seedOrder(t, conn, buyerID, product.ID, enums.OrderStatusDelivered, 4)

	if _, err := svc.AddItem(context.Background(), buyerID, enums.BuyerClassCustomer, product.ID, 4); err != nil {
		t.Fatalf("delivered orders must not count toward the bound: %v", err)
	}
}

func reservedQuantity(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var inventory models.ProductInventory
	if err := conn.First(&inventory, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	return inventory.ReservedQuantity
}

func TestCartMutationsMaintainReservation(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 50)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, buyerID, enums.BuyerClassCustomer, product.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := reservedQuantity(t, conn, product.ID); got != 3 {
		t.Fatalf("expected reservation 3 after add, got %d", got)
	}

	if _, err := svc.UpdateItem(ctx, buyerID, enums.BuyerClassCustomer, product.ID, 5); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := reservedQuantity(t, conn, product.ID); got != 5 {
		t.Fatalf("expected reservation 5 after update, got %d", got)
	}

	if _, err := svc.RemoveItem(ctx, buyerID, enums.BuyerClassCustomer, product.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := reservedQuantity(t, conn, product.ID); got != 0 {
		t.Fatalf("expected reservation released on remove, got %d", got)
	}
}

func TestClearReleasesReservations(t *testing.T) {
	svc, conn := newTestService(t)
	buyerID := uuid.New()
	first := seedProduct(t, conn, enums.SellerClassRetailer, "10.00", 50)
	second := seedProduct(t, conn, enums.SellerClassRetailer, "20.00", 50)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, buyerID, enums.BuyerClassCustomer, first.ID, 2); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, enums.BuyerClassCustomer, second.ID, 3); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if err := svc.Clear(ctx, buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := reservedQuantity(t, conn, first.ID); got != 0 {
		t.Fatalf("expected first reservation released, got %d", got)
	}
	if got := reservedQuantity(t, conn, second.ID); got != 0 {
		t.Fatalf("expected second reservation released, got %d", got)
	}
}

func TestReservationCountsAgainstOtherBuyers(t *testing.T) {
	svc, conn := newTestService(t)
	product := seedProduct(t, conn, enums.SellerClassRetailer, "100.00", 5)
	buyerA := uuid.New()
	buyerB := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, buyerA, enums.BuyerClassCustomer, product.ID, 4); err != nil {
		t.Fatalf("buyer A add: %v", err)
	}

	_, err := svc.AddItem(ctx, buyerB, enums.BuyerClassCustomer, product.ID, 2)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK for second buyer, got %v", err)
	}

	// The buyer's own reservation is credited back when they grow their line.
	if _, err := svc.UpdateItem(ctx, buyerA, enums.BuyerClassCustomer, product.ID, 5); err != nil {
		t.Fatalf("grow own line: %v", err)
	}
}

func TestGetEmptyCartForNewBuyer(t *testing.T) {
	svc, _ := newTestService(t)
	dto, err := svc.Get(context.Background(), uuid.New(), enums.BuyerClassCustomer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.Items) != 0 || !dto.Subtotal.IsZero() {
		t.Fatalf("expected empty cart, got %+v", dto)
	}
}
