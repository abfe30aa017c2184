package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
	"marketplace/internal/repository/ledger"
)

type invKey struct {
	seller  int64
	product int64
}

type invRow struct {
	qty   int
	price *decimal.Decimal
}

type memState struct {
	balances  map[int64]decimal.Decimal
	products  map[int64]decimal.Decimal
	inventory map[invKey]invRow
	cart      []domain.CartLine
	orders    []domain.Order
	lines     []domain.OrderLine
	nextID    int64
}

func (s memState) clone() memState {
	out := memState{
		balances:  make(map[int64]decimal.Decimal, len(s.balances)),
		products:  make(map[int64]decimal.Decimal, len(s.products)),
		inventory: make(map[invKey]invRow, len(s.inventory)),
		cart:      append([]domain.CartLine(nil), s.cart...),
		orders:    append([]domain.Order(nil), s.orders...),
		lines:     append([]domain.OrderLine(nil), s.lines...),
		nextID:    s.nextID,
	}
	for k, v := range s.balances {
		out.balances[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.inventory {
		out.inventory[k] = v
	}
	return out
}

var errInjected = errors.New("injected storage failure")

// memStore is a ledger.Store whose units of work are serialized by a mutex and
// undone by restoring a snapshot.
type memStore struct {
	mu sync.Mutex
	st memState

	// failOn maps a Tx operation name to the 1-based call that fails.
	failOn     map[string]int
	calls      map[string]int
	failCommit bool
	snapErr    error
	balanceErr error
	// locked records every id passed to LockAccounts, in call order.
	locked []int64

	// beforeTx runs with the lock held before the unit of work starts, like a
	// concurrent commit that landed after the advisory checks.
	beforeTx func(st *memState)
	// beforeDecrement runs before every conditional decrement.
	beforeDecrement func(st *memState, seller, product int64)
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			balances:  map[int64]decimal.Decimal{},
			products:  map[int64]decimal.Decimal{},
			inventory: map[invKey]invRow{},
			nextID:    1,
		},
		calls: map[string]int{},
	}
}

func (m *memStore) account(id int64, balance string) *memStore {
	m.st.balances[id] = decimal.RequireFromString(balance)
	return m
}

func (m *memStore) product(id int64, base string) *memStore {
	m.st.products[id] = decimal.RequireFromString(base)
	return m
}

func (m *memStore) stock(seller, product int64, qty int, price string) *memStore {
	row := invRow{qty: qty}
	if price != "" {
		p := decimal.RequireFromString(price)
		row.price = &p
	}
	m.st.inventory[invKey{seller, product}] = row
	return m
}

func (m *memStore) addToCart(buyer, product int64, seller *int64, qty int) *memStore {
	m.st.cart = append(m.st.cart, domain.CartLine{
		ID:        m.st.nextID,
		BuyerID:   buyer,
		ProductID: product,
		SellerID:  seller,
		Quantity:  qty,
	})
	m.st.nextID++
	return m
}

func (m *memStore) saveForLater(buyer, product int64, qty int) *memStore {
	m.addToCart(buyer, product, nil, qty)
	m.st.cart[len(m.st.cart)-1].SavedForLater = true
	return m
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *memStore) qty(seller, product int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.inventory[invKey{seller, product}].qty
}

func (m *memStore) balance(id int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.balances[id]
}

func (m *memStore) CartSnapshot(_ context.Context, buyerID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapErr != nil {
		return nil, m.snapErr
	}
	var out []domain.CartLine
	for _, l := range m.st.cart {
		if l.BuyerID != buyerID || l.SavedForLater {
			continue
		}
		l.UnitPriceHint = m.st.products[l.ProductID]
		if l.SellerID != nil {
			if row, ok := m.st.inventory[invKey{*l.SellerID, l.ProductID}]; ok && row.price != nil {
				l.UnitPriceHint = *row.price
			}
		} else if recs := m.st.listSellers(l.ProductID, l.Quantity); len(recs) > 0 {
			l.UnitPriceHint = recs[0].UnitPrice()
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return sellerOrZero(out[i].SellerID) < sellerOrZero(out[j].SellerID)
	})
	return out, nil
}

func sellerOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func (m *memStore) Balance(_ context.Context, id int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceErr != nil {
		return decimal.Zero, m.balanceErr
	}
	b, ok := m.st.balances[id]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListSellers(_ context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.listSellers(productID, minQty), nil
}

func (s *memState) listSellers(productID int64, minQty int) []domain.InventoryRecord {
	var out []domain.InventoryRecord
	for k, row := range s.inventory {
		if k.product != productID || row.qty < minQty {
			continue
		}
		out = append(out, domain.InventoryRecord{
			SellerID:    k.seller,
			ProductID:   k.product,
			Quantity:    row.qty,
			SellerPrice: row.price,
			BasePrice:   s.products[k.product],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SellerID < out[j].SellerID })
	return out
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.beforeTx != nil {
		m.beforeTx(&m.st)
	}
	saved := m.st.clone()
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.st = saved
		return err
	}
	if m.failCommit {
		m.st = saved
		return fmt.Errorf("commit tx: %w", errInjected)
	}
	return nil
}

type memTx struct {
	m *memStore
}

func (t *memTx) fail(op string) error {
	t.m.calls[op]++
	if n, ok := t.m.failOn[op]; ok && n == t.m.calls[op] {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (t *memTx) ListSellers(_ context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error) {
	if err := t.fail("ListSellers"); err != nil {
		return nil, err
	}
	return t.m.st.listSellers(productID, minQty), nil
}

func (t *memTx) ConditionalDecrement(_ context.Context, sellerID, productID int64, qty int) (decimal.Decimal, bool, error) {
	if err := t.fail("ConditionalDecrement"); err != nil {
		return decimal.Zero, false, err
	}
	if t.m.beforeDecrement != nil {
		t.m.beforeDecrement(&t.m.st, sellerID, productID)
	}
	k := invKey{sellerID, productID}
	row, ok := t.m.st.inventory[k]
	if !ok || row.qty < qty {
		return decimal.Zero, false, nil
	}
	row.qty -= qty
	t.m.st.inventory[k] = row
	return domain.EffectivePrice(row.price, t.m.st.products[productID]), true, nil
}

func (t *memTx) ClaimCart(_ context.Context, buyerID int64, lineIDs []int64) (int, error) {
	if err := t.fail("ClaimCart"); err != nil {
		return 0, err
	}
	want := make(map[int64]bool, len(lineIDs))
	for _, id := range lineIDs {
		want[id] = true
	}
	claimed := 0
	kept := t.m.st.cart[:0:0]
	for _, l := range t.m.st.cart {
		if l.BuyerID == buyerID && !l.SavedForLater && want[l.ID] {
			claimed++
			continue
		}
		kept = append(kept, l)
	}
	t.m.st.cart = kept
	return claimed, nil
}

func (t *memTx) LockAccounts(_ context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	if err := t.fail("LockAccounts"); err != nil {
		return nil, err
	}
	if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
		return nil, fmt.Errorf("accounts locked out of order: %v", ids)
	}
	t.m.locked = append(t.m.locked, ids...)
	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if b, ok := t.m.st.balances[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (t *memTx) AdjustBalance(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.fail("AdjustBalance"); err != nil {
		return decimal.Zero, err
	}
	b, ok := t.m.st.balances[id]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	nb := b.Add(delta)
	if nb.IsNegative() {
		return decimal.Zero, errors.New("balance check violation")
	}
	t.m.st.balances[id] = nb
	return nb, nil
}

func (t *memTx) CreateOrder(_ context.Context, in ledger.NewOrder) (int64, error) {
	if err := t.fail("CreateOrder"); err != nil {
		return 0, err
	}
	id := t.m.st.nextID
	t.m.st.nextID++
	t.m.st.orders = append(t.m.st.orders, domain.Order{
		ID:          id,
		BuyerID:     in.BuyerID,
		TotalAmount: in.Total,
		Discount:    in.Discount,
		CouponCode:  in.CouponCode,
	})
	return id, nil
}

func (t *memTx) AddOrderLine(_ context.Context, line domain.OrderLine) (int64, error) {
	if err := t.fail("AddOrderLine"); err != nil {
		return 0, err
	}
	line.ID = t.m.st.nextID
	t.m.st.nextID++
	t.m.st.lines = append(t.m.st.lines, line)
	return line.ID, nil
}

func ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
