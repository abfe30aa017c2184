package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

// Store is the durable state the settlement core runs against.
type Store interface {
	// CartSnapshot returns the buyer's checkout-eligible lines ordered by
	// product id then seller id. The price hint of a line without a pinned
	// seller comes from the lowest seller id stocking the full quantity.
	CartSnapshot(ctx context.Context, buyerID int64) ([]domain.CartLine, error)
	// Balance is an unlocked read of an account balance.
	Balance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	// ListSellers is an unlocked read of inventory rows for a product.
	ListSellers(ctx context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error)
	// WithinTx runs fn in one atomic unit of work. A non-nil error from fn
	// rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the handle for a single unit of work. It must not outlive the
// WithinTx call that produced it.
type Tx interface {
	// ListSellers returns inventory rows for productID holding at least
	// minQty units, ordered by seller id ascending.
	ListSellers(ctx context.Context, productID int64, minQty int) ([]domain.InventoryRecord, error)
	// ConditionalDecrement removes qty units from the (seller, product) row
	// only when at least qty remain. ok is false when no row qualified; price
	// is the realized unit price of the row that was decremented.
	ConditionalDecrement(ctx context.Context, sellerID, productID int64, qty int) (price decimal.Decimal, ok bool, err error)
	// ClaimCart deletes the listed cart lines of buyerID and reports how many
	// it removed. A line already consumed by a concurrent unit of work is
	// not counted.
	ClaimCart(ctx context.Context, buyerID int64, lineIDs []int64) (int, error)
	// LockAccounts reads the balances of ids and holds every row until the
	// unit of work ends. Rows are locked in ascending id order; missing ids
	// are absent from the result.
	LockAccounts(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
	// AdjustBalance adds delta (possibly negative) and returns the new balance.
	AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error)
	CreateOrder(ctx context.Context, in NewOrder) (int64, error)
	AddOrderLine(ctx context.Context, line domain.OrderLine) (int64, error)
}

// NewOrder is the order header written by checkout. Discount is funded by
// the platform: sellers are credited Total + Discount.
type NewOrder struct {
	BuyerID    int64
	Total      decimal.Decimal
	Discount   decimal.Decimal
	CouponCode string
}
