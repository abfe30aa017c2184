package product

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Update rewrites the mutable catalog fields. Existing order lines keep the
	// price they were sold at.
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
}
