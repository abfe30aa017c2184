package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
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

const orderColumns = `o.id, o.buyer_id, o.total_amount::text, o.discount::text, COALESCE(o.coupon_code, ''), o.order_date`

const lineColumns = `l.id, l.order_id, l.product_id, p.name, l.seller_id, l.quantity, l.price::text, l.fulfillment_status, l.fulfilled_at`

func (r *postgresRepo) GetForBuyer(ctx context.Context, buyerID, orderID int64) (*domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1 AND o.buyer_id = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, buyerID))
	if err != nil {
		return nil, err
	}

	const linesQuery = `
SELECT ` + lineColumns + `
FROM order_lines l
JOIN products p ON p.id = l.product_id
WHERE l.order_id = $1
ORDER BY l.id ASC
`
	if o.Lines, err = r.queryLines(ctx, linesQuery, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

var historySort = map[domain.OrderSort]string{
	"":                     "o.order_date",
	domain.OrderSortDate:   "o.order_date",
	domain.OrderSortAmount: "o.total_amount",
}

func (r *postgresRepo) ListForBuyer(ctx context.Context, buyerID int64, f domain.OrderFilter) ([]domain.Order, error) {
	col, ok := historySort[f.Sort]
	if !ok {
		return nil, fmt.Errorf("unknown order sort %q", f.Sort)
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	q := `
SELECT ` + orderColumns + `
FROM orders o
WHERE o.buyer_id = $1
  AND ($2::timestamptz IS NULL OR o.order_date >= $2)
  AND ($3::timestamptz IS NULL OR o.order_date <= $3)
  AND (($4 = '' AND $5 = '' AND $6::bigint = 0) OR EXISTS (
      SELECT 1
      FROM order_lines l
      JOIN products p ON p.id = l.product_id
      WHERE l.order_id = o.id
        AND ($4 = '' OR l.fulfillment_status = $4)
        AND ($5 = '' OR p.name ILIKE '%' || $5 || '%')
        AND ($6 = 0 OR l.seller_id = $6)
  ))
ORDER BY ` + col + ` ` + dir + `, o.id ` + dir

	rows, err := r.pool.Query(ctx, q, buyerID, f.From, f.To, string(f.Status), likeEscape(f.Product), f.SellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ListLinesForSeller(ctx context.Context, sellerID int64, status domain.FulfillmentStatus) ([]domain.OrderLine, error) {
	const q = `
SELECT ` + lineColumns + `
FROM order_lines l
JOIN products p ON p.id = l.product_id
WHERE l.seller_id = $1 AND ($2 = '' OR l.fulfillment_status = $2)
ORDER BY l.id ASC
`
	return r.queryLines(ctx, q, sellerID, string(status))
}

func (r *postgresRepo) FulfillLine(ctx context.Context, sellerID, lineID int64) (*domain.OrderLine, error) {
	const q = `
WITH updated AS (
    UPDATE order_lines
    SET fulfillment_status = 'fulfilled', fulfilled_at = now()
    WHERE id = $1 AND seller_id = $2 AND fulfillment_status = 'pending'
    RETURNING *
)
SELECT ` + lineColumns + `
FROM updated l
JOIN products p ON p.id = l.product_id
`
	lines, err := r.queryLines(ctx, q, lineID, sellerID)
	if err != nil {
		r.logger.Error("order repo: fulfill", zap.Int64("line_id", lineID), zap.Error(err))
		return nil, err
	}
	if len(lines) == 1 {
		r.logger.Info("order line fulfilled", zap.Int64("line_id", lineID), zap.Int64("seller_id", sellerID))
		return &lines[0], nil
	}

	var status string
	err = r.pool.QueryRow(ctx, `SELECT fulfillment_status FROM order_lines WHERE id = $1 AND seller_id = $2`, lineID, sellerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return nil, domain.ErrAlreadyFulfilled
}

func (r *postgresRepo) queryLines(ctx context.Context, q string, args ...any) ([]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderLine
	for rows.Next() {
		var (
			l      domain.OrderLine
			price  string
			status string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.SellerID, &l.Quantity, &price, &status, &l.FulfilledAt); err != nil {
			return nil, err
		}
		if l.Price, err = domain.ParseMoney(price); err != nil {
			return nil, err
		}
		l.FulfillmentStatus = domain.FulfillmentStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o               domain.Order
		total, discount string
	)
	if err := row.Scan(&o.ID, &o.BuyerID, &total, &discount, &o.CouponCode, &o.OrderDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var err error
	if o.TotalAmount, err = domain.ParseMoney(total); err != nil {
		return nil, err
	}
	if o.Discount, err = domain.ParseMoney(discount); err != nil {
		return nil, err
	}
	return &o, nil
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape makes s match literally inside an ILIKE pattern.
func likeEscape(s string) string {
	return likeReplacer.Replace(s)
}
