package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearbuy-labs/nearbuy-backend/internal/pricing"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart read and mutation operations.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass) (*DTO, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID, quantity int) (*DTO, error)
	UpdateItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID, quantity int) (*DTO, error)
	RemoveItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID) (*DTO, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass) (*DTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	record, err := s.repo.FindWithItems(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DTO{Items: []ItemDTO{}, Subtotal: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildDTO(ctx, record, class)
}

func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID, quantity int) (*DTO, error) {
	return s.mutateItem(ctx, buyerID, class, productID, quantity, true)
}

func (s *service) UpdateItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID, quantity int) (*DTO, error) {
	return s.mutateItem(ctx, buyerID, class, productID, quantity, false)
}

func (s *service) mutateItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID, quantity int, additive bool) (*DTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var dto *DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductForSale(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.SellerID == buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot buy your own product")
		}
		if product.SellerClass.BuyerClassFor() != class {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product not sold to your buyer class")
		}

		record, err := repo.GetOrCreate(ctx, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		existing := 0
		if item, err := repo.FindItem(ctx, record.ID, productID); err == nil {
			existing = item.Quantity
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		target := quantity
		if additive {
			target = existing + quantity
		}

		open, err := repo.OpenOrderQuantity(ctx, buyerID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
		}

		// The buyer's current line is part of the advisory reservation;
		// credit it back so they are not counted against themselves.
		if product.Inventory != nil && existing > 0 {
			product.Inventory.ReservedQuantity -= existing
			if product.Inventory.ReservedQuantity < 0 {
				product.Inventory.ReservedQuantity = 0
			}
		}

		if _, err := pricing.Resolve(pricing.Request{
			Product:          product,
			BuyerClass:       class,
			Quantity:         target,
			ExistingQuantity: open,
		}); err != nil {
			return err
		}

		if err := repo.UpsertItem(ctx, record.ID, productID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
		}
		if err := repo.AdjustReservation(ctx, productID, target-existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust reservation")
		}

		fresh, err := repo.FindWithItems(ctx, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		dto, err = s.buildDTOWithRepo(ctx, repo, fresh, class)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) RemoveItem(ctx context.Context, buyerID uuid.UUID, class enums.BuyerClass, productID uuid.UUID) (*DTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var dto *DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindWithItems(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		removed := 0
		for _, item := range record.Items {
			if item.ProductID == productID {
				removed = item.Quantity
				break
			}
		}
		if err := repo.RemoveItem(ctx, record.ID, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
		}
		if removed > 0 {
			if err := repo.AdjustReservation(ctx, productID, -removed); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservation")
			}
		}
		fresh, err := repo.FindWithItems(ctx, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		dto, err = s.buildDTOWithRepo(ctx, repo, fresh, class)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindWithItems(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		for _, item := range record.Items {
			if err := repo.AdjustReservation(ctx, item.ProductID, -item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservation")
			}
		}
		if err := repo.Clear(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
}

func (s *service) buildDTO(ctx context.Context, record *models.CartRecord, class enums.BuyerClass) (*DTO, error) {
	return s.buildDTOWithRepo(ctx, s.repo, record, class)
}

// buildDTOWithRepo prices every line for the buyer class. Lines whose product
// vanished or lost its tier are shown with a zero price rather than failing
// the whole read.
func (s *service) buildDTOWithRepo(ctx context.Context, repo Repository, record *models.CartRecord, class enums.BuyerClass) (*DTO, error) {
	dto := &DTO{CartID: record.ID, Items: make([]ItemDTO, 0, len(record.Items)), Subtotal: decimal.Zero}
	for _, item := range record.Items {
		line := ItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		product, err := repo.FindProductForSale(ctx, item.ProductID)
		if err == nil {
			line.ProductName = product.Name
			line.SellerID = product.SellerID
			if tier := product.TierFor(class); tier != nil {
				line.UnitPrice = tier.Price
				line.LineTotal = tier.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart product")
		}
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
		dto.Items = append(dto.Items, line)
	}
	return dto, nil
}
