package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
	productrepo "marketplace/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *int64          `json:"categoryId,omitempty"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Available   *bool           `json:"available,omitempty"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a product listed by creatorID. New products are available
// unless the input says otherwise.
func (s *Service) Create(ctx context.Context, creatorID int64, in Input) (*domain.Product, error) {
	p, err := validate(in)
	if err != nil {
		return nil, err
	}
	p.CreatorID = &creatorID
	return s.repo.Create(ctx, p)
}

// Update changes catalog fields. Only the creator may edit a product.
func (s *Service) Update(ctx context.Context, creatorID, id int64, in Input) (*domain.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID == nil || *existing.CreatorID != creatorID {
		return nil, domain.ErrNotFound
	}
	p, err := validate(in)
	if err != nil {
		return nil, err
	}
	if in.Available == nil {
		p.Available = existing.Available
	}
	p.ID = id
	p.CreatorID = existing.CreatorID
	return s.repo.Update(ctx, p)
}

func validate(in Input) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, domain.Invalid("name required")
	}
	if in.BasePrice.IsNegative() {
		return domain.Product{}, domain.Invalid("basePrice must not be negative")
	}
	if !in.BasePrice.Equal(domain.RoundMoney(in.BasePrice)) {
		return domain.Product{}, domain.Invalid("basePrice must have at most 2 decimal places")
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return domain.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		BasePrice:   in.BasePrice,
		Available:   available,
	}, nil
}
