package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is keyed by (buyer, product, seller). SellerID is nil when the buyer
// did not pin a seller and one is chosen at checkout.
type CartLine struct {
	ID            int64           `json:"id"`
	BuyerID       int64           `json:"buyerId"`
	ProductID     int64           `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	SellerID      *int64          `json:"sellerId,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPriceHint decimal.Decimal `json:"unitPrice"`
	SavedForLater bool            `json:"savedForLater"`
	AddedAt       time.Time       `json:"addedAt"`
}

// LineTotal is the unrounded hint price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPriceHint.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
