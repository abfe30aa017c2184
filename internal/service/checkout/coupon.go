package checkout

import (
	"strings"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

// CouponSave10 takes 10% off the pre-discount subtotal.
const CouponSave10 = "SAVE10"

var save10Rate = decimal.RequireFromString("0.10")

// NormalizeCoupon returns the canonical form of a recognized code and ok=false
// for anything else.
func NormalizeCoupon(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == CouponSave10 {
		return c, true
	}
	return "", false
}

// ApplyCoupon returns the discount and the final total for subtotal.
// Unknown codes yield a zero discount.
func ApplyCoupon(subtotal decimal.Decimal, code string) (discount, total decimal.Decimal) {
	subtotal = domain.RoundMoney(subtotal)
	if _, ok := NormalizeCoupon(code); !ok {
		return decimal.Zero, subtotal
	}
	discount = domain.RoundMoney(subtotal.Mul(save10Rate))
	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return discount, total
}
