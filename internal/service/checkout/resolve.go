package checkout

import (
	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

// Resolution is the seller chosen for a cart line.
type Resolution struct {
	SellerID int64
	// UnitPrice is the effective price of the chosen row. It is zero for a
	// pinned seller absent from candidates; the decrement reports the
	// realized price in that case.
	UnitPrice decimal.Decimal
}

// Resolve picks the inventory row that should fulfill qty units of productID.
//
// A preferred seller is returned without checking stock. Otherwise the
// candidate with the lowest seller id holding at least qty units wins.
// candidates must be ordered by seller id and include drained rows: an empty
// list means no seller lists the product at all, while rows that are all too
// small mean the stock exists but cannot cover qty.
func Resolve(productID int64, candidates []domain.InventoryRecord, preferred *int64, qty int) (Resolution, error) {
	if preferred != nil {
		res := Resolution{SellerID: *preferred}
		for _, c := range candidates {
			if c.SellerID == *preferred {
				res.UnitPrice = c.UnitPrice()
				break
			}
		}
		return res, nil
	}

	for _, c := range candidates {
		if c.Quantity >= qty {
			return Resolution{SellerID: c.SellerID, UnitPrice: c.UnitPrice()}, nil
		}
	}
	if len(candidates) == 0 {
		return Resolution{}, &Error{Kind: KindNoSellerAvailable, ProductID: productID}
	}
	return Resolution{}, &Error{Kind: KindInsufficientStock, ProductID: productID}
}
