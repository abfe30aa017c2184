package account

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"marketplace/internal/db"
	"marketplace/internal/domain"
	"marketplace/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const accountColumns = `id, email, firstname, lastname, balance::text, created_at`

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
INSERT INTO accounts (email, firstname, lastname, balance)
VALUES ($1, $2, $3, $4::numeric)
RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, q,
		strings.ToLower(strings.TrimSpace(a.Email)),
		a.FirstName,
		a.LastName,
		a.Balance.String(),
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error) {
	const q = `
UPDATE accounts
SET balance = balance + $2::numeric
WHERE id = $1
RETURNING ` + accountColumns
	a, err := r.scanAccount(r.pool.QueryRow(ctx, q, id, amount.String()))
	if err != nil {
		return nil, err
	}
	r.logger.Info("account deposit", zap.Int64("account_id", id), zap.String("amount", amount.StringFixed(domain.MoneyPlaces)))
	return a, nil
}

func (r *postgresRepo) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error) {
	const q = `
UPDATE accounts
SET balance = balance - $2::numeric
WHERE id = $1 AND balance >= $2::numeric
RETURNING ` + accountColumns
	a, err := r.scanAccount(r.pool.QueryRow(ctx, q, id, amount.String()))
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("account withdrawal", zap.Int64("account_id", id), zap.String("amount", amount.StringFixed(domain.MoneyPlaces)))
	return a, nil
}

func (r *postgresRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		balance string
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.HasCode(err, db.CodeUniqueViolation) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("account repo: scan", zap.Error(err))
		return nil, err
	}
	if a.Balance, err = domain.ParseMoney(balance); err != nil {
		return nil, err
	}
	return &a, nil
}
