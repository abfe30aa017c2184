package domain

import "github.com/shopspring/decimal"

// InventoryRecord is one seller's stock of one product.
type InventoryRecord struct {
	SellerID    int64            `json:"sellerId"`
	ProductID   int64            `json:"productId"`
	Quantity    int              `json:"quantity"`
	SellerPrice *decimal.Decimal `json:"sellerPrice,omitempty"`
	BasePrice   decimal.Decimal  `json:"-"`
}

// UnitPrice is the price a buyer pays per unit when this record fulfills a line.
func (r InventoryRecord) UnitPrice() decimal.Decimal {
	return EffectivePrice(r.SellerPrice, r.BasePrice)
}
