package inventory

import (
	"context"
	"errors"

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

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const selectInventory = `
SELECT i.seller_id, i.product_id, i.quantity, i.seller_price::text, p.base_price::text
FROM inventory i
JOIN products p ON p.id = i.product_id
`

func (r *postgresRepo) Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error) {
	const q = `
INSERT INTO inventory (seller_id, product_id, quantity, seller_price)
VALUES ($1, $2, $3, $4::numeric)
ON CONFLICT (seller_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    seller_price = EXCLUDED.seller_price
`
	if _, err := r.pool.Exec(ctx, q, rec.SellerID, rec.ProductID, rec.Quantity, priceArg(rec.SellerPrice)); err != nil {
		if db.HasCode(err, db.CodeForeignKey) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("inventory repo: upsert",
			zap.Int64("seller_id", rec.SellerID), zap.Int64("product_id", rec.ProductID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("inventory repo: upserted",
		zap.Int64("seller_id", rec.SellerID), zap.Int64("product_id", rec.ProductID), zap.Int("quantity", rec.Quantity))
	return r.Get(ctx, rec.SellerID, rec.ProductID)
}

func (r *postgresRepo) Get(ctx context.Context, sellerID, productID int64) (*domain.InventoryRecord, error) {
	rows, err := r.query(ctx, selectInventory+`WHERE i.seller_id = $1 AND i.product_id = $2`, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

func (r *postgresRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.InventoryRecord, error) {
	return r.query(ctx, selectInventory+`WHERE i.seller_id = $1 ORDER BY i.product_id ASC`, sellerID)
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error) {
	return r.query(ctx, selectInventory+`WHERE i.product_id = $1 ORDER BY i.seller_id ASC`, productID)
}

func (r *postgresRepo) Remove(ctx context.Context, sellerID, productID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM inventory WHERE seller_id = $1 AND product_id = $2`, sellerID, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.InventoryRecord, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InventoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (domain.InventoryRecord, error) {
	var (
		rec         domain.InventoryRecord
		sellerPrice *string
		basePrice   string
	)
	if err := row.Scan(&rec.SellerID, &rec.ProductID, &rec.Quantity, &sellerPrice, &basePrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, domain.ErrNotFound
		}
		return rec, err
	}
	var err error
	if rec.SellerPrice, err = domain.ParseOptionalMoney(sellerPrice); err != nil {
		return rec, err
	}
	if rec.BasePrice, err = domain.ParseMoney(basePrice); err != nil {
		return rec, err
	}
	return rec, nil
}

func priceArg(p *decimal.Decimal) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}
