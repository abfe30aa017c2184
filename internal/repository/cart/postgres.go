package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"marketplace/internal/db"
	"marketplace/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const linesQuery = `
SELECT c.id, c.buyer_id, c.product_id, p.name, c.seller_id, c.quantity,
       COALESCE(i.seller_price, p.base_price)::text, c.saved_for_later, c.added_at
FROM cart_lines c
JOIN products p ON p.id = c.product_id
LEFT JOIN inventory i ON i.seller_id = c.seller_id AND i.product_id = c.product_id
`

func (r *postgresRepo) AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error) {
	const q = `
INSERT INTO cart_lines (buyer_id, product_id, seller_id, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (buyer_id, product_id, COALESCE(seller_id, 0)) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
RETURNING id
`
	var id int64
	if err := r.pool.QueryRow(ctx, q, in.BuyerID, in.ProductID, in.SellerID, in.Quantity).Scan(&id); err != nil {
		if db.HasCode(err, db.CodeForeignKey) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	lines, err := r.query(ctx, linesQuery+`WHERE c.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrNotFound
	}
	return &lines[0], nil
}

func (r *postgresRepo) List(ctx context.Context, buyerID int64) ([]domain.CartLine, error) {
	return r.query(ctx, linesQuery+`
WHERE c.buyer_id = $1
ORDER BY c.saved_for_later ASC, c.added_at ASC, c.id ASC
`, buyerID)
}

func (r *postgresRepo) ChangeQuantity(ctx context.Context, buyerID, lineID int64, quantity int) error {
	if quantity <= 0 {
		return r.Remove(ctx, buyerID, lineID)
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE id = $2 AND buyer_id = $3
`, quantity, lineID, buyerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetSavedForLater(ctx context.Context, buyerID, lineID int64, saved bool) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET saved_for_later = $1
WHERE id = $2 AND buyer_id = $3
`, saved, lineID, buyerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, buyerID, lineID int64) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_lines
WHERE id = $1 AND buyer_id = $2
`, lineID, buyerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.CartLine, error) {
	rows, err := r.pool.Query(ctx, q, args...)
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
		if err := rows.Scan(
			&line.ID,
			&line.BuyerID,
			&line.ProductID,
			&line.ProductName,
			&line.SellerID,
			&line.Quantity,
			&price,
			&line.SavedForLater,
			&line.AddedAt,
		); err != nil {
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
	return lines, nil
}
