//go:build integration

package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace/internal/domain"
	"marketplace/internal/pgtest"
)

func TestPostgres_CartSnapshotOrderingAndHints(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)

	buyer := pgtest.Account(t, pool, "buyer@example.com", "100.00")
	sellerA := pgtest.Account(t, pool, "a@example.com", "0")
	sellerB := pgtest.Account(t, pool, "b@example.com", "0")
	p1 := pgtest.Product(t, pool, "Kettle", "20.00")
	p2 := pgtest.Product(t, pool, "Mug", "4.00")
	pgtest.Stock(t, pool, sellerA, p2, 3, "3.50")
	pgtest.Stock(t, pool, sellerB, p2, 3, "")

	pgtest.CartLine(t, pool, buyer, p2, &sellerB, 1)
	pgtest.CartLine(t, pool, buyer, p2, &sellerA, 2)
	pgtest.CartLine(t, pool, buyer, p1, nil, 1)
	saved := pgtest.CartLine(t, pool, buyer, p2, nil, 5)
	_, err := pool.Exec(ctx, `UPDATE cart_lines SET saved_for_later = TRUE WHERE id = $1`, saved)
	require.NoError(t, err)

	lines, err := NewPostgres(pool, nil).CartSnapshot(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, p1, lines[0].ProductID)
	assert.Nil(t, lines[0].SellerID)
	assert.True(t, lines[0].UnitPriceHint.Equal(decimal.RequireFromString("20.00")))

	assert.Equal(t, sellerA, *lines[1].SellerID)
	assert.True(t, lines[1].UnitPriceHint.Equal(decimal.RequireFromString("3.50")))
	assert.Equal(t, "Mug", lines[1].ProductName)

	assert.Equal(t, sellerB, *lines[2].SellerID)
	assert.True(t, lines[2].UnitPriceHint.Equal(decimal.RequireFromString("4.00")))
}

func TestPostgres_ConditionalDecrement(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	seller := pgtest.Account(t, pool, "s@example.com", "0")
	p := pgtest.Product(t, pool, "Lamp", "12.00")
	pgtest.Stock(t, pool, seller, p, 3, "")

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		price, ok, err := tx.ConditionalDecrement(ctx, seller, p, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, price.Equal(decimal.RequireFromString("12.00")))

		_, ok, err = tx.ConditionalDecrement(ctx, seller, p, 2)
		require.NoError(t, err)
		assert.False(t, ok, "only one unit left")

		_, ok, err = tx.ConditionalDecrement(ctx, seller+100, p, 1)
		require.NoError(t, err)
		assert.False(t, ok, "missing row")

		rows, err := tx.ListSellers(ctx, p, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Quantity)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgres_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	buyer := pgtest.Account(t, pool, "b@example.com", "50.00")
	seller := pgtest.Account(t, pool, "s@example.com", "0")
	p := pgtest.Product(t, pool, "Lamp", "12.00")
	pgtest.Stock(t, pool, seller, p, 3, "")
	lineID := pgtest.CartLine(t, pool, buyer, p, nil, 1)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, ok, err := tx.ConditionalDecrement(ctx, seller, p, 1)
		require.NoError(t, err)
		require.True(t, ok)
		orderID, err := tx.CreateOrder(ctx, NewOrder{BuyerID: buyer, Total: decimal.RequireFromString("12.00")})
		require.NoError(t, err)
		_, err = tx.AddOrderLine(ctx, domain.OrderLine{OrderID: orderID, ProductID: p, SellerID: seller, Quantity: 1, Price: decimal.RequireFromString("12.00")})
		require.NoError(t, err)
		_, err = tx.AdjustBalance(ctx, buyer, decimal.RequireFromString("-12.00"))
		require.NoError(t, err)
		claimed, err := tx.ClaimCart(ctx, buyer, []int64{lineID})
		require.NoError(t, err)
		require.Equal(t, 1, claimed)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var qty, orders, cart int
	require.NoError(t, pool.QueryRow(ctx, `SELECT quantity FROM inventory WHERE seller_id = $1 AND product_id = $2`, seller, p).Scan(&qty))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&orders))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM cart_lines`).Scan(&cart))
	assert.Equal(t, 3, qty)
	assert.Zero(t, orders)
	assert.Equal(t, 1, cart)

	bal, err := store.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("50.00")))
}

func TestPostgres_BalanceMissingAccount(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	_, err := store.Balance(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		balances, err := tx.LockAccounts(ctx, []int64{999})
		require.NoError(t, err)
		assert.Empty(t, balances)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgres_LockAccounts(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	a := pgtest.Account(t, pool, "a@example.com", "7.25")
	b := pgtest.Account(t, pool, "b@example.com", "0")

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		balances, err := tx.LockAccounts(ctx, []int64{a, b})
		require.NoError(t, err)
		require.Len(t, balances, 2)
		assert.True(t, balances[a].Equal(decimal.RequireFromString("7.25")))
		assert.True(t, balances[b].IsZero())

		// a second transaction cannot take the row while it is held
		var skipped int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM (SELECT id FROM accounts WHERE id = $1 FOR UPDATE SKIP LOCKED) x`, a).Scan(&skipped))
		assert.Zero(t, skipped)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgres_ClaimCart(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	buyer := pgtest.Account(t, pool, "b@example.com", "50.00")
	other := pgtest.Account(t, pool, "o@example.com", "50.00")
	p := pgtest.Product(t, pool, "Lamp", "12.00")
	q := pgtest.Product(t, pool, "Bulb", "2.00")
	first := pgtest.CartLine(t, pool, buyer, p, nil, 1)
	second := pgtest.CartLine(t, pool, buyer, q, nil, 2)
	foreign := pgtest.CartLine(t, pool, other, p, nil, 1)
	added := pgtest.CartLine(t, pool, buyer, q, &other, 1)

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.ClaimCart(ctx, buyer, []int64{first, second, foreign})
		require.NoError(t, err)
		assert.Equal(t, 2, n, "another buyer's line is never claimed")
		return nil
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.ClaimCart(ctx, buyer, []int64{first, second})
		require.NoError(t, err)
		assert.Zero(t, n, "lines already consumed")
		return nil
	})
	require.NoError(t, err)

	var left []int64
	rows, err := pool.Query(ctx, `SELECT id FROM cart_lines ORDER BY id`)
	require.NoError(t, err)
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		left = append(left, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{foreign, added}, left, "lines added after the snapshot survive")
}

func TestPostgres_CartSnapshotHintForUnpinnedLine(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)

	buyer := pgtest.Account(t, pool, "buyer@example.com", "6.00")
	sellerA := pgtest.Account(t, pool, "a@example.com", "0")
	sellerB := pgtest.Account(t, pool, "b@example.com", "0")
	sellerC := pgtest.Account(t, pool, "c@example.com", "0")
	cheap := pgtest.Product(t, pool, "Mug", "10.00")
	bulk := pgtest.Product(t, pool, "Plate", "9.00")
	pgtest.Stock(t, pool, sellerA, cheap, 2, "5.00")
	pgtest.Stock(t, pool, sellerA, bulk, 1, "1.00")
	pgtest.Stock(t, pool, sellerB, bulk, 4, "")
	pgtest.Stock(t, pool, sellerC, bulk, 4, "2.00")

	pgtest.CartLine(t, pool, buyer, cheap, nil, 1)
	pgtest.CartLine(t, pool, buyer, bulk, nil, 3)

	lines, err := NewPostgres(pool, nil).CartSnapshot(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, cheap, lines[0].ProductID)
	assert.True(t, lines[0].UnitPriceHint.Equal(decimal.RequireFromString("5.00")), "hint %s", lines[0].UnitPriceHint)
	// sellerA holds too few units; sellerB is the lowest id covering 3 and sells at base
	assert.True(t, lines[1].UnitPriceHint.Equal(decimal.RequireFromString("9.00")), "hint %s", lines[1].UnitPriceHint)
}

func TestPostgres_OrderLinePriceIsFrozen(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	store := NewPostgres(pool, nil)

	buyer := pgtest.Account(t, pool, "b@example.com", "50.00")
	seller := pgtest.Account(t, pool, "s@example.com", "0")
	p := pgtest.Product(t, pool, "Lamp", "12.00")

	var lineID int64
	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		orderID, err := tx.CreateOrder(ctx, NewOrder{BuyerID: buyer, Total: decimal.RequireFromString("12.00")})
		if err != nil {
			return err
		}
		lineID, err = tx.AddOrderLine(ctx, domain.OrderLine{OrderID: orderID, ProductID: p, SellerID: seller, Quantity: 1, Price: decimal.RequireFromString("12.00")})
		return err
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE order_lines SET price = 1 WHERE id = $1`, lineID)
	require.Error(t, err)

	_, err = pool.Exec(ctx, `UPDATE order_lines SET fulfillment_status = 'fulfilled', fulfilled_at = now() WHERE id = $1`, lineID)
	require.NoError(t, err)
}
