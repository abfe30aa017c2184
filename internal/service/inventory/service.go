package inventory

import (
	"context"
	"errors"

	"marketplace/internal/domain"
)

type Service struct {
	repo        inventoryRepo
	productRepo productRepo
}

type inventoryRepo interface {
	Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error)
	Remove(ctx context.Context, sellerID, productID int64) error
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(repo inventoryRepo, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

// Upsert sets a seller's stock and optional price for a product. Only
// available products can be stocked.
func (s *Service) Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error) {
	if rec.SellerID <= 0 {
		return nil, domain.Invalid("sellerId required")
	}
	if rec.ProductID <= 0 {
		return nil, domain.Invalid("productId required")
	}
	if rec.Quantity < 0 {
		return nil, domain.Invalid("quantity must not be negative")
	}
	if rec.SellerPrice != nil {
		if rec.SellerPrice.IsNegative() {
			return nil, domain.Invalid("sellerPrice must not be negative")
		}
		if !rec.SellerPrice.Equal(domain.RoundMoney(*rec.SellerPrice)) {
			return nil, domain.Invalid("sellerPrice must have at most 2 decimal places")
		}
	}
	product, err := s.productRepo.GetByID(ctx, rec.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("product not found")
		}
		return nil, err
	}
	if !product.Available {
		return nil, domain.ErrProductUnavailable
	}
	return s.repo.Upsert(ctx, rec)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID int64) ([]domain.InventoryRecord, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

// Offers lists the sellers stocking a product, lowest seller id first.
func (s *Service) Offers(ctx context.Context, productID int64) ([]domain.InventoryRecord, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *Service) Remove(ctx context.Context, sellerID, productID int64) error {
	return s.repo.Remove(ctx, sellerID, productID)
}
