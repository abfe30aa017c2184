package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace/internal/domain"
	cartrepo "marketplace/internal/repository/cart"
)

type stubRepo struct {
	lines          []domain.CartLine
	listErr        error
	addErr         error
	changeErr      error
	lastAdd        cartrepo.AddLineInput
	lastChangeLine int64
	lastChangeQty  int
	saved          map[int64]bool
	removed        []int64
}

func (s *stubRepo) AddLine(_ context.Context, in cartrepo.AddLineInput) (*domain.CartLine, error) {
	s.lastAdd = in
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.CartLine{ID: 1, BuyerID: in.BuyerID, ProductID: in.ProductID, SellerID: in.SellerID, Quantity: in.Quantity}, nil
}

func (s *stubRepo) List(_ context.Context, _ int64) ([]domain.CartLine, error) {
	return s.lines, s.listErr
}

func (s *stubRepo) ChangeQuantity(_ context.Context, _, lineID int64, quantity int) error {
	s.lastChangeLine = lineID
	s.lastChangeQty = quantity
	return s.changeErr
}

func (s *stubRepo) SetSavedForLater(_ context.Context, _, lineID int64, saved bool) error {
	if s.saved == nil {
		s.saved = map[int64]bool{}
	}
	s.saved[lineID] = saved
	return nil
}

func (s *stubRepo) Remove(_ context.Context, _, lineID int64) error {
	s.removed = append(s.removed, lineID)
	return nil
}

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  int64
}

func (s *stubProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func TestServiceAddValidation(t *testing.T) {
	svc := New(&stubRepo{}, &stubProductRepo{})
	tests := []struct {
		in   AddInput
		want string
	}{
		{AddInput{Quantity: 1}, "productId required"},
		{AddInput{ProductID: 1}, "quantity must be positive"},
		{AddInput{ProductID: 1, Quantity: -2}, "quantity must be positive"},
		{AddInput{ProductID: 1, Quantity: 1, SellerID: new(int64)}, "sellerId must be positive"},
	}
	for _, tc := range tests {
		_, err := svc.Add(context.Background(), 7, tc.in)
		require.Error(t, err)
		assert.Equal(t, tc.want, err.Error())
	}
}

func TestServiceAddChecksProduct(t *testing.T) {
	repo := &stubRepo{}
	products := &stubProductRepo{err: domain.ErrNotFound}
	svc := New(repo, products)

	_, err := svc.Add(context.Background(), 7, AddInput{ProductID: 3, Quantity: 1})
	require.EqualError(t, err, "product not found")

	products.err = nil
	products.product = &domain.Product{ID: 3, Available: false}
	_, err = svc.Add(context.Background(), 7, AddInput{ProductID: 3, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	products.product.Available = true
	seller := int64(9)
	line, err := svc.Add(context.Background(), 7, AddInput{ProductID: 3, SellerID: &seller, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), products.lastID)
	assert.Equal(t, cartrepo.AddLineInput{BuyerID: 7, ProductID: 3, SellerID: &seller, Quantity: 2}, repo.lastAdd)
	assert.Equal(t, 2, line.Quantity)
}

func TestServiceGetSplitsSavedLines(t *testing.T) {
	repo := &stubRepo{lines: []domain.CartLine{
		{ID: 1, Quantity: 3, UnitPriceHint: decimal.RequireFromString("1.10")},
		{ID: 2, Quantity: 1, UnitPriceHint: decimal.RequireFromString("99.00"), SavedForLater: true},
		{ID: 3, Quantity: 2, UnitPriceHint: decimal.RequireFromString("0.35")},
	}}
	view, err := New(repo, nil).Get(context.Background(), 7)
	require.NoError(t, err)

	assert.Len(t, view.Items, 2)
	require.Len(t, view.SavedForLater, 1)
	assert.Equal(t, int64(2), view.SavedForLater[0].ID)
	assert.True(t, view.Estimate.Equal(decimal.RequireFromString("4.00")))
}

func TestServiceGetEmpty(t *testing.T) {
	view, err := New(&stubRepo{}, nil).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.NotNil(t, view.SavedForLater)
	assert.True(t, view.Estimate.IsZero())
}

func TestServiceUpdateActions(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, nil)

	_, err := svc.Update(context.Background(), 7, 5, UpdateInput{})
	require.EqualError(t, err, "actions required")

	_, err = svc.Update(context.Background(), 7, 5, UpdateInput{Actions: []UpdateAction{{Action: "explode"}}})
	require.EqualError(t, err, "unsupported action")

	_, err = svc.Update(context.Background(), 7, 5, UpdateInput{Actions: []UpdateAction{
		{Action: "changeQuantity", Quantity: 4},
		{Action: " SaveForLater "},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), repo.lastChangeLine)
	assert.Equal(t, 4, repo.lastChangeQty)
	assert.True(t, repo.saved[5])

	_, err = svc.Update(context.Background(), 7, 5, UpdateInput{Actions: []UpdateAction{{Action: "moveToCart"}, {Action: "remove"}}})
	require.NoError(t, err)
	assert.False(t, repo.saved[5])
	assert.Equal(t, []int64{5}, repo.removed)
}

func TestServiceUpdateRepoError(t *testing.T) {
	repo := &stubRepo{changeErr: domain.ErrNotFound}
	_, err := New(repo, nil).Update(context.Background(), 7, 5, UpdateInput{Actions: []UpdateAction{{Action: "changeQuantity", Quantity: 1}}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
