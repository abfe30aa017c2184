package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"marketplace/internal/db"
	"marketplace/internal/domain"
	"marketplace/internal/logging"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Store backed by Postgres. Units of work run at READ
// COMMITTED: contended rows are serialized by row locks taken by the
// conditional UPDATEs and SELECT ... FOR UPDATE, and Postgres re-evaluates the
// quantity predicate after waiting on a lock.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Store {
	return &postgresStore{pool: pool, logger: logging.OrNop(logger)}
}

func (s *postgresStore) CartSnapshot(ctx context.Context, buyerID int64) ([]domain.CartLine, error) {
	const q = `
SELECT c.id, c.buyer_id, c.product_id, p.name, c.seller_id, c.quantity,
       COALESCE(i.seller_price, r.seller_price, p.base_price)::text, c.saved_for_later, c.added_at
FROM cart_lines c
JOIN products p ON p.id = c.product_id
LEFT JOIN inventory i ON i.seller_id = c.seller_id AND i.product_id = c.product_id
LEFT JOIN LATERAL (
    SELECT COALESCE(x.seller_price, p.base_price) AS seller_price
    FROM inventory x
    WHERE c.seller_id IS NULL AND x.product_id = c.product_id AND x.quantity >= c.quantity
    ORDER BY x.seller_id ASC
    LIMIT 1
) r ON TRUE
WHERE c.buyer_id = $1 AND NOT c.saved_for_later
ORDER BY c.product_id ASC, c.seller_id ASC NULLS FIRST, c.id ASC
`
	rows, err := s.pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var (
			line  domain.CartLine
			price string
		)
		if err := rows.Scan(&line.ID, &line.BuyerID, &line.ProductID, &line.ProductName, &line.SellerID,
			&line.Quantity, &price, &line.SavedForLater, &line.AddedAt); err != nil {
			return nil, err
		}
		if line.UnitPriceHint, err = domain.ParseMoney(price); err != nil {
			return nil, fmt.Errorf("parse price for cart line %d: %w", line.ID, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("ledger: cart snapshot", zap.Int64("buyer_id", buyerID), zap.Int("lines", len(lines)))
	return lines, nil
}

func (s *postgresStore) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return scanBalance(s.pool.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE id = $1`, accountID))
}

func (s *postgresStore) ListSellers(ctx context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error) {
	return listSellers(ctx, s.pool, productID, minQty)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx, logger: s.logger})
	})
}

type pgTx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

func (t *pgTx) ListSellers(ctx context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error) {
	return listSellers(ctx, t.tx, productID, minQty)
}

func (t *pgTx) ConditionalDecrement(ctx context.Context, sellerID, productID int64, qty int) (decimal.Decimal, bool, error) {
	const q = `
UPDATE inventory AS i
SET quantity = i.quantity - $3
FROM products AS p
WHERE i.seller_id = $1 AND i.product_id = $2 AND i.quantity >= $3 AND p.id = i.product_id
RETURNING COALESCE(i.seller_price, p.base_price)::text
`
	var price string
	if err := t.tx.QueryRow(ctx, q, sellerID, productID, qty).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			t.logger.Debug("ledger: decrement missed",
				zap.Int64("seller_id", sellerID), zap.Int64("product_id", productID), zap.Int("qty", qty))
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	d, err := domain.ParseMoney(price)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse realized price: %w", err)
	}
	return d, true, nil
}

func (t *pgTx) ClaimCart(ctx context.Context, buyerID int64, lineIDs []int64) (int, error) {
	const q = `
DELETE FROM cart_lines
WHERE buyer_id = $1 AND id = ANY($2) AND NOT saved_for_later
`
	tag, err := t.tx.Exec(ctx, q, buyerID, lineIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (t *pgTx) LockAccounts(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	const q = `
SELECT id, balance::text
FROM accounts
WHERE id = ANY($1)
ORDER BY id ASC
FOR UPDATE
`
	rows, err := t.tx.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]decimal.Decimal, len(ids))
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		if out[id], err = domain.ParseMoney(raw); err != nil {
			return nil, fmt.Errorf("parse balance of account %d: %w", id, err)
		}
	}
	return out, rows.Err()
}

func (t *pgTx) AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	const q = `
UPDATE accounts
SET balance = balance + $2::numeric
WHERE id = $1
RETURNING balance::text
`
	return scanBalance(t.tx.QueryRow(ctx, q, accountID, delta.String()))
}

func (t *pgTx) CreateOrder(ctx context.Context, in NewOrder) (int64, error) {
	const q = `
INSERT INTO orders (buyer_id, total_amount, discount, coupon_code)
VALUES ($1, $2::numeric, $3::numeric, NULLIF($4, ''))
RETURNING id
`
	var id int64
	if err := t.tx.QueryRow(ctx, q, in.BuyerID, in.Total.String(), in.Discount.String(), in.CouponCode).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *pgTx) AddOrderLine(ctx context.Context, line domain.OrderLine) (int64, error) {
	const q = `
INSERT INTO order_lines (order_id, product_id, seller_id, quantity, price, fulfillment_status)
VALUES ($1, $2, $3, $4, $5::numeric, $6)
RETURNING id
`
	status := line.FulfillmentStatus
	if status == "" {
		status = domain.FulfillmentPending
	}
	var id int64
	if err := t.tx.QueryRow(ctx, q, line.OrderID, line.ProductID, line.SellerID, line.Quantity, line.Price.String(), string(status)).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func listSellers(ctx context.Context, q db.Querier, productID int64, minQty int) ([]domain.InventoryRecord, error) {
	const sql = `
SELECT i.seller_id, i.product_id, i.quantity, i.seller_price::text, p.base_price::text
FROM inventory i
JOIN products p ON p.id = i.product_id
WHERE i.product_id = $1 AND i.quantity >= $2
ORDER BY i.seller_id ASC
`
	rows, err := q.Query(ctx, sql, productID, minQty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InventoryRecord
	for rows.Next() {
		var (
			rec         domain.InventoryRecord
			sellerPrice *string
			basePrice   string
		)
		if err := rows.Scan(&rec.SellerID, &rec.ProductID, &rec.Quantity, &sellerPrice, &basePrice); err != nil {
			return nil, err
		}
		if rec.SellerPrice, err = domain.ParseOptionalMoney(sellerPrice); err != nil {
			return nil, fmt.Errorf("parse seller price: %w", err)
		}
		if rec.BasePrice, err = domain.ParseMoney(basePrice); err != nil {
			return nil, fmt.Errorf("parse base price: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanBalance(row pgx.Row) (decimal.Decimal, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, err
	}
	return domain.ParseMoney(raw)
}
