package order

import (
	"context"
	"strings"

	"marketplace/internal/domain"
)

type Service struct {
	repo orderRepo
}

type orderRepo interface {
	GetForBuyer(ctx context.Context, buyerID, orderID int64) (*domain.Order, error)
	ListForBuyer(ctx context.Context, buyerID int64, f domain.OrderFilter) ([]domain.Order, error)
	ListLinesForSeller(ctx context.Context, sellerID int64, status domain.FulfillmentStatus) ([]domain.OrderLine, error)
	FulfillLine(ctx context.Context, sellerID, lineID int64) (*domain.OrderLine, error)
}

func New(repo orderRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, buyerID, orderID int64) (*domain.Order, error) {
	return s.repo.GetForBuyer(ctx, buyerID, orderID)
}

// List returns the buyer's order history narrowed by f. Status "all" is the
// same as no status.
func (s *Service) List(ctx context.Context, buyerID int64, f domain.OrderFilter) ([]domain.Order, error) {
	if f.Status == "all" {
		f.Status = ""
	}
	switch f.Status {
	case "", domain.FulfillmentPending, domain.FulfillmentFulfilled:
	default:
		return nil, ErrUnknownStatus
	}
	switch f.Sort {
	case "", domain.OrderSortDate, domain.OrderSortAmount:
	default:
		return nil, ErrUnknownSort
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, ErrDateRange
	}
	f.Product = strings.TrimSpace(f.Product)

	orders, err := s.repo.ListForBuyer(ctx, buyerID, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// SellerLines lists a seller's order lines. An empty status lists all of them.
func (s *Service) SellerLines(ctx context.Context, sellerID int64, status string) ([]domain.OrderLine, error) {
	st := domain.FulfillmentStatus(status)
	switch st {
	case "", domain.FulfillmentPending, domain.FulfillmentFulfilled:
	default:
		return nil, ErrUnknownStatus
	}
	lines, err := s.repo.ListLinesForSeller(ctx, sellerID, st)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.OrderLine{}
	}
	return lines, nil
}

func (s *Service) Fulfill(ctx context.Context, sellerID, lineID int64) (*domain.OrderLine, error) {
	return s.repo.FulfillLine(ctx, sellerID, lineID)
}
