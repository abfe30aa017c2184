package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  *int64          `json:"categoryId,omitempty"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Available   bool            `json:"available"`
	CreatorID   *int64          `json:"creatorId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
