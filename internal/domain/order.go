package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
)

// Order is a settled checkout. Discount is paid by the platform, not the
// sellers: their credits for the order sum to TotalAmount + Discount.
type Order struct {
	ID          int64           `json:"id"`
	BuyerID     int64           `json:"buyerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Discount    decimal.Decimal `json:"discount"`
	CouponCode  string          `json:"couponCode,omitempty"`
	OrderDate   time.Time       `json:"orderDate"`
	Lines       []OrderLine     `json:"lines,omitempty"`
}

// OrderLine freezes the realized seller and unit price of a settled cart line.
// Price never changes after creation.
type OrderLine struct {
	ID                int64             `json:"id"`
	OrderID           int64             `json:"orderId"`
	ProductID         int64             `json:"productId"`
	ProductName       string            `json:"productName,omitempty"`
	SellerID          int64             `json:"sellerId"`
	Quantity          int               `json:"quantity"`
	Price             decimal.Decimal   `json:"price"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillmentStatus"`
	FulfilledAt       *time.Time        `json:"fulfilledAt,omitempty"`
}

// Amount is price times quantity.
func (l OrderLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderSort names the column a buyer's order history is sorted by.
type OrderSort string

const (
	OrderSortDate   OrderSort = "date"
	OrderSortAmount OrderSort = "amount"
)

// OrderFilter narrows a buyer's order history. Zero fields match everything.
// Status, Product and SellerID match an order when any of its lines does.
type OrderFilter struct {
	Status   FulfillmentStatus
	From     *time.Time
	To       *time.Time
	Product  string
	SellerID int64
	Sort     OrderSort
	Asc      bool
}
