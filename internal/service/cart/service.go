package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
	cartrepo "marketplace/internal/repository/cart"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	AddLine(ctx context.Context, in cartrepo.AddLineInput) (*domain.CartLine, error)
	List(ctx context.Context, buyerID int64) ([]domain.CartLine, error)
	ChangeQuantity(ctx context.Context, buyerID, lineID int64, quantity int) error
	SetSavedForLater(ctx context.Context, buyerID, lineID int64, saved bool) error
	Remove(ctx context.Context, buyerID, lineID int64) error
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

type AddInput struct {
	ProductID int64  `json:"productId"`
	SellerID  *int64 `json:"sellerId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action   string `json:"action"`
	Quantity int    `json:"quantity,omitempty"`
}

// View splits a buyer's lines into what checkout will settle and what is
// parked for later. Estimate is priced from the current hints.
type View struct {
	BuyerID       int64             `json:"buyerId"`
	Items         []domain.CartLine `json:"items"`
	SavedForLater []domain.CartLine `json:"savedForLater"`
	Estimate      decimal.Decimal   `json:"estimate"`
}

func (s *Service) Add(ctx context.Context, buyerID int64, in AddInput) (*domain.CartLine, error) {
	if in.ProductID <= 0 {
		return nil, domain.Invalid("productId required")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity must be positive")
	}
	if in.SellerID != nil && *in.SellerID <= 0 {
		return nil, domain.Invalid("sellerId must be positive")
	}
	if s.productRepo == nil {
		return nil, errors.New("product repository unavailable")
	}
	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("product not found")
		}
		return nil, err
	}
	if !product.Available {
		return nil, domain.ErrProductUnavailable
	}
	return s.repo.AddLine(ctx, cartrepo.AddLineInput{
		BuyerID:   buyerID,
		ProductID: in.ProductID,
		SellerID:  in.SellerID,
		Quantity:  in.Quantity,
	})
}

func (s *Service) Get(ctx context.Context, buyerID int64) (*View, error) {
	lines, err := s.repo.List(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	view := &View{
		BuyerID:       buyerID,
		Items:         []domain.CartLine{},
		SavedForLater: []domain.CartLine{},
	}
	sum := decimal.Zero
	for _, l := range lines {
		if l.SavedForLater {
			view.SavedForLater = append(view.SavedForLater, l)
			continue
		}
		view.Items = append(view.Items, l)
		sum = sum.Add(l.LineTotal())
	}
	view.Estimate = domain.RoundMoney(sum)
	return view, nil
}

func (s *Service) Update(ctx context.Context, buyerID, lineID int64, in UpdateInput) (*View, error) {
	if len(in.Actions) == 0 {
		return nil, domain.Invalid("actions required")
	}
	for _, action := range in.Actions {
		var err error
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "changequantity":
			err = s.repo.ChangeQuantity(ctx, buyerID, lineID, action.Quantity)
		case "saveforlater":
			err = s.repo.SetSavedForLater(ctx, buyerID, lineID, true)
		case "movetocart":
			err = s.repo.SetSavedForLater(ctx, buyerID, lineID, false)
		case "remove":
			err = s.repo.Remove(ctx, buyerID, lineID)
		default:
			return nil, domain.Invalid("unsupported action")
		}
		if err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, buyerID)
}

func (s *Service) Remove(ctx context.Context, buyerID, lineID int64) error {
	return s.repo.Remove(ctx, buyerID, lineID)
}
