package inventory

import (
	"context"

	"marketplace/internal/domain"
)

// Repository manages seller stock outside of checkout. Checkout decrements go
// through the ledger store.
type Repository interface {
	// Upsert sets the quantity and price of a (seller, product) row.
	Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error)
	Get(ctx context.Context, sellerID, productID int64) (*domain.InventoryRecord, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error)
	Remove(ctx context.Context, sellerID, productID int64) error
}
