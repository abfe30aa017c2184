package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits carried by every monetary amount.
const MoneyPlaces = 2

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// EffectivePrice returns the seller's price when set, otherwise the product base price.
func EffectivePrice(sellerPrice *decimal.Decimal, basePrice decimal.Decimal) decimal.Decimal {
	if sellerPrice != nil {
		return *sellerPrice
	}
	return basePrice
}

// ParseMoney parses a NUMERIC value scanned as text.
func ParseMoney(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// ParseOptionalMoney parses a nullable NUMERIC value scanned as text.
func ParseOptionalMoney(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
