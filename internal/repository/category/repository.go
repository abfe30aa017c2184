package category

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	// Upsert returns the category with the given name, creating it if needed.
	Upsert(ctx context.Context, name string) (*domain.Category, error)
}
