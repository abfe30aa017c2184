package account

import (
	"context"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

// Repository persists accounts and their balances.
type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Deposit adds a positive amount to the balance.
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
	// Withdraw removes amount only when the balance covers it, returning
	// domain.ErrInsufficientFunds otherwise.
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
}
