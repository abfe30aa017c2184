//go:build integration

// Package pgtest provides a migrated Postgres for integration tests. TEST_DB_DSN
// points the tests at an existing database; otherwise a disposable container
// is started once per test binary and reaped when the binary exits.
package pgtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"marketplace/internal/migrate"
)

var (
	once   sync.Once
	dsn    string
	dsnErr error
)

func containerDSN(ctx context.Context) (string, error) {
	if v := os.Getenv("TEST_DB_DSN"); v != "" {
		return v, nil
	}
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("market_test"),
		tcpostgres.WithUsername("market"),
		tcpostgres.WithPassword("market"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", err
	}
	return container.ConnectionString(ctx, "sslmode=disable")
}

// Pool returns a pool on a freshly migrated, empty schema. The pool is closed
// when t finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	once.Do(func() { dsn, dsnErr = containerDSN(ctx) })
	require.NoError(t, dsnErr, "start postgres")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool), "apply migrations")
	Reset(t, pool)
	return pool
}

// Reset empties every table and restarts identities.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE order_lines, orders, cart_lines, inventory, products, categories, accounts RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
}

// Account inserts an account and returns its id.
func Account(t *testing.T, pool *pgxpool.Pool, email, balance string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO accounts (email, balance) VALUES ($1, $2::numeric) RETURNING id`, email, balance).Scan(&id)
	require.NoError(t, err, "insert account")
	return id
}

// Product inserts an available product and returns its id.
func Product(t *testing.T, pool *pgxpool.Pool, name, basePrice string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, base_price) VALUES ($1, $2::numeric) RETURNING id`, name, basePrice).Scan(&id)
	require.NoError(t, err, "insert product")
	return id
}

// Stock upserts an inventory row. An empty price leaves seller_price NULL.
func Stock(t *testing.T, pool *pgxpool.Pool, sellerID, productID int64, qty int, price string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
INSERT INTO inventory (seller_id, product_id, quantity, seller_price)
VALUES ($1, $2, $3, NULLIF($4, '')::numeric)
ON CONFLICT (seller_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, seller_price = EXCLUDED.seller_price
`, sellerID, productID, qty, price)
	require.NoError(t, err, "upsert inventory")
}

// CartLine adds a cart line and returns its id.
func CartLine(t *testing.T, pool *pgxpool.Pool, buyerID, productID int64, sellerID *int64, qty int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO cart_lines (buyer_id, product_id, seller_id, quantity)
VALUES ($1, $2, $3, $4)
RETURNING id
`, buyerID, productID, sellerID, qty).Scan(&id)
	require.NoError(t, err, "insert cart line")
	return id
}
