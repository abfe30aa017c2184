package account

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

type Service struct {
	repo accountRepo
}

type accountRepo interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
}

func New(repo accountRepo) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Account, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, domain.Invalid("email required")
	}
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("email invalid")
	}
	return s.repo.Create(ctx, domain.Account{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.repo.Deposit(ctx, id, amount)
}

func (s *Service) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return s.repo.Withdraw(ctx, id, amount)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Invalid("amount must be positive")
	}
	if !amount.Equal(domain.RoundMoney(amount)) {
		return domain.Invalid("amount must have at most 2 decimal places")
	}
	return nil
}
