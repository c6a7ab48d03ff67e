package money

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// All monetary amounts are integer cents of the smallest currency unit.
// Prices are gross, VAT-inclusive; the tax share is extracted, never added.

// DefaultVATRate is the Swiss standard VAT rate expressed as a fraction.
// Discount percentages elsewhere are whole numbers; the two representations
// must never be conflated.
var DefaultVATRate = decimal.RequireFromString("0.081")

// CartTTL is how long a cart stays valid after creation. Expiry is advisory;
// the cart store enforces it by evicting stale carts.
const CartTTL = 7 * 24 * time.Hour

// TaxFromGross extracts the VAT share already contained in a gross amount:
// round(gross * rate / (1 + rate)), rounded half-up on the final cents value.
func TaxFromGross(grossCents int, rate decimal.Decimal) int {
	if grossCents == 0 || rate.IsZero() {
		return 0
	}
	gross := decimal.NewFromInt(int64(grossCents))
	tax := gross.Mul(rate).Div(decimal.NewFromInt(1).Add(rate))
	return int(tax.Round(0).IntPart())
}

// ValidVATRate reports whether a rate is a plausible fraction. Whole-number
// percentages (8.1 instead of 0.081) are rejected at the boundary.
func ValidVATRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(decimal.NewFromInt(1))
}

// Format renders cents as a Swiss franc amount, e.g. "CHF 108.10".
func Format(cents int) string {
	return fmt.Sprintf("CHF %s", decimal.New(int64(cents), -2).StringFixed(2))
}

// CartExpiry returns when a cart created at the given time stops being valid.
func CartExpiry(createdAt time.Time) time.Time {
	return createdAt.Add(CartTTL)
}
