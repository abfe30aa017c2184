package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a marketplace participant. The same account buys and sells.
type Account struct {
	ID        int64           `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"firstName,omitempty"`
	LastName  string          `json:"lastName,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}
