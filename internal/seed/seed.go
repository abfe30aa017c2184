package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type accountSeed struct {
	Email     string
	FirstName string
	LastName  string
	Balance   string
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	BasePrice   string
	Creator     string
}

type stockSeed struct {
	Seller  string
	Product string
	Qty     int
	Price   string
}

type cartSeed struct {
	Buyer   string
	Product string
	Seller  string
	Qty     int
	Saved   bool
}

// Result holds the ids the seed ended up with, keyed by email or product name.
type Result struct {
	Accounts map[string]int64
	Products map[string]int64
}

var (
	accounts = []accountSeed{
		{Email: "buyer@example.com", FirstName: "Demo", LastName: "Buyer", Balance: "250.00"},
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Seller", Balance: "0"},
		{Email: "bob@example.com", FirstName: "Bob", LastName: "Seller", Balance: "0"},
	}
	products = []productSeed{
		{Name: "Demo T-Shirt", Description: "Soft cotton tee", Category: "Apparel", BasePrice: "19.99", Creator: "alice@example.com"},
		{Name: "Demo Mug", Description: "Ceramic mug with logo", Category: "Kitchen", BasePrice: "12.99", Creator: "bob@example.com"},
		{Name: "Demo Poster", Description: "A2 matte print", Category: "Decor", BasePrice: "8.50", Creator: "alice@example.com"},
	}
	stock = []stockSeed{
		{Seller: "alice@example.com", Product: "Demo T-Shirt", Qty: 20},
		{Seller: "bob@example.com", Product: "Demo T-Shirt", Qty: 5, Price: "17.50"},
		{Seller: "bob@example.com", Product: "Demo Mug", Qty: 12},
		{Seller: "alice@example.com", Product: "Demo Poster", Qty: 1, Price: "9.00"},
	}
	cart = []cartSeed{
		{Buyer: "buyer@example.com", Product: "Demo T-Shirt", Qty: 2},
		{Buyer: "buyer@example.com", Product: "Demo Mug", Seller: "bob@example.com", Qty: 1},
		{Buyer: "buyer@example.com", Product: "Demo Poster", Qty: 1, Saved: true},
	}
)

// Apply inserts demo accounts, catalog, stock and a cart for manual testing.
// It is idempotent: existing rows are left as they are.
func Apply(ctx context.Context, pool *pgxpool.Pool) (*Result, error) {
	res := &Result{Accounts: map[string]int64{}, Products: map[string]int64{}}

	for _, a := range accounts {
		id, err := ensureAccount(ctx, pool, a)
		if err != nil {
			return nil, fmt.Errorf("ensure account %s: %w", a.Email, err)
		}
		res.Accounts[a.Email] = id
	}

	for _, p := range products {
		catID, err := ensureCategory(ctx, pool, p.Category)
		if err != nil {
			return nil, fmt.Errorf("ensure category %s: %w", p.Category, err)
		}
		id, err := ensureProduct(ctx, pool, p, catID, res.Accounts[p.Creator])
		if err != nil {
			return nil, fmt.Errorf("ensure product %s: %w", p.Name, err)
		}
		res.Products[p.Name] = id
	}

	for _, s := range stock {
		if err := ensureStock(ctx, pool, res.Accounts[s.Seller], res.Products[s.Product], s); err != nil {
			return nil, fmt.Errorf("ensure stock %s/%s: %w", s.Seller, s.Product, err)
		}
	}

	for _, c := range cart {
		var seller *int64
		if c.Seller != "" {
			id := res.Accounts[c.Seller]
			seller = &id
		}
		if err := ensureCartLine(ctx, pool, res.Accounts[c.Buyer], res.Products[c.Product], seller, c); err != nil {
			return nil, fmt.Errorf("ensure cart line %s/%s: %w", c.Buyer, c.Product, err)
		}
	}

	return res, nil
}

func ensureAccount(ctx context.Context, pool *pgxpool.Pool, a accountSeed) (int64, error) {
	const q = `
INSERT INTO accounts (email, firstname, lastname, balance)
VALUES ($1, $2, $3, $4::numeric)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, a.Email, a.FirstName, a.LastName, a.Balance).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ensureProduct matches on (name, creator) since products have no natural key.
func ensureProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed, categoryID, creatorID int64) (int64, error) {
	const q = `
WITH existing AS (
    SELECT id FROM products WHERE name = $1 AND creator_id = $5
), inserted AS (
    INSERT INTO products (name, description, category_id, base_price, creator_id)
    SELECT $1, $2, $3, $4::numeric, $5
    WHERE NOT EXISTS (SELECT 1 FROM existing)
    RETURNING id
)
SELECT id FROM existing
UNION ALL
SELECT id FROM inserted
LIMIT 1
`
	var id int64
	if err := pool.QueryRow(ctx, q, p.Name, p.Description, categoryID, p.BasePrice, creatorID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureStock(ctx context.Context, pool *pgxpool.Pool, sellerID, productID int64, s stockSeed) error {
	const q = `
INSERT INTO inventory (seller_id, product_id, quantity, seller_price)
VALUES ($1, $2, $3, NULLIF($4, '')::numeric)
ON CONFLICT (seller_id, product_id) DO NOTHING
`
	_, err := pool.Exec(ctx, q, sellerID, productID, s.Qty, s.Price)
	return err
}

func ensureCartLine(ctx context.Context, pool *pgxpool.Pool, buyerID, productID int64, sellerID *int64, c cartSeed) error {
	const q = `
INSERT INTO cart_lines (buyer_id, product_id, seller_id, quantity, saved_for_later)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (buyer_id, product_id, COALESCE(seller_id, 0)) DO NOTHING
`
	_, err := pool.Exec(ctx, q, buyerID, productID, sellerID, c.Qty, c.Saved)
	return err
}
