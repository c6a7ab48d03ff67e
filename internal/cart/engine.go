package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mbruegger/salora-backend/pkg/enums"
	"github.com/mbruegger/salora-backend/pkg/money"
)

// AddItemInput carries the catalog snapshot for the line being added. Prices
// are the gross, VAT-inclusive catalog prices at the time of the call.
type AddItemInput struct {
	Type           enums.CartItemType
	ProductID      *uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int

	VoucherValueCents *int
	RecipientEmail    *string
	RecipientName     *string
	PersonalMessage   *string
}

// NewCart builds an empty cart for the salon. Expiry is advisory; the store
// enforces it via TTL and staleness checks.
func NewCart(salonID uuid.UUID, now time.Time) Cart {
	return Cart{
		ID:        uuid.New(),
		SalonID:   salonID,
		Items:     []Item{},
		Discounts: []Discount{},
		CreatedAt: now,
		ExpiresAt: money.CartExpiry(now),
	}
}

// AddItem appends or merges a line and returns a new cart. Product lines with
// the same product and variant identity merge by summing quantities; voucher
// lines always append.
func AddItem(cart Cart, input AddItemInput) Cart {
	next := cart.clone()

	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	if input.Type == enums.CartItemTypeProduct {
		for i := range next.Items {
			if mergeable(next.Items[i], input) {
				next.Items[i].Quantity += quantity
				next.Items[i].TotalPriceCents = next.Items[i].UnitPriceCents * next.Items[i].Quantity
				next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
				return next
			}
		}
	}

	item := Item{
		ID:                uuid.New(),
		Type:              input.Type,
		ProductID:         input.ProductID,
		VariantID:         input.VariantID,
		Name:              input.Name,
		Quantity:          quantity,
		UnitPriceCents:    input.UnitPriceCents,
		TotalPriceCents:   input.UnitPriceCents * quantity,
		VoucherValueCents: input.VoucherValueCents,
		RecipientEmail:    input.RecipientEmail,
		RecipientName:     input.RecipientName,
		PersonalMessage:   input.PersonalMessage,
	}
	next.Items = append(next.Items, item)
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

func mergeable(existing Item, input AddItemInput) bool {
	if existing.Type != enums.CartItemTypeProduct {
		return false
	}
	if !uuidPtrEqual(existing.ProductID, input.ProductID) {
		return false
	}
	return uuidPtrEqual(existing.VariantID, input.VariantID)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UpdateItemQuantity sets a line's quantity, removing the line when the new
// quantity is zero or negative. Unknown item ids leave the cart unchanged.
func UpdateItemQuantity(cart Cart, itemID uuid.UUID, quantity int) Cart {
	if quantity <= 0 {
		return RemoveItem(cart, itemID)
	}

	next := cart.clone()
	for i := range next.Items {
		if next.Items[i].ID == itemID {
			next.Items[i].Quantity = quantity
			next.Items[i].TotalPriceCents = next.Items[i].UnitPriceCents * quantity
			next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
			return next
		}
	}
	return next
}

// RemoveItem drops the line with the given id; absent ids are a no-op.
func RemoveItem(cart Cart, itemID uuid.UUID) Cart {
	next := cart.clone()
	filtered := next.Items[:0]
	for _, item := range next.Items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	next.Items = filtered
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

// Clear empties items and discounts and resets the shipping method.
func Clear(cart Cart) Cart {
	next := cart
	next.Items = []Item{}
	next.Discounts = []Discount{}
	next.ShippingMethod = ""
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

// ApplyDiscount adds a discount code, replacing any prior application of the
// same code.
func ApplyDiscount(cart Cart, discount Discount) Cart {
	next := RemoveDiscount(cart, discount.Code)
	next.Discounts = append(next.Discounts, discount)
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

// RemoveDiscount drops the discount with the given code; absent codes are a
// no-op.
func RemoveDiscount(cart Cart, code string) Cart {
	next := cart.clone()
	filtered := next.Discounts[:0]
	for _, d := range next.Discounts {
		if !strings.EqualFold(d.Code, code) {
			filtered = append(filtered, d)
		}
	}
	next.Discounts = filtered
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

// SetShippingMethod records the chosen delivery method and reprices.
func SetShippingMethod(cart Cart, method enums.ShippingMethod) Cart {
	next := cart.clone()
	next.ShippingMethod = method
	next.Totals = ComputeTotals(next.Items, next.Discounts, next.ShippingMethod)
	return next
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives totals from scratch. The discount sum is clamped to
// the subtotal so it never produces a negative line, and VAT is extracted
// from the final payable amount because catalog prices are gross.
func ComputeTotals(items []Item, discounts []Discount, method enums.ShippingMethod) Totals {
	subtotal := 0
	itemCount := 0
	for _, item := range items {
		subtotal += item.TotalPriceCents
		itemCount += item.Quantity
	}

	discount := 0
	for _, d := range discounts {
		switch d.Kind {
		case enums.DiscountKindPercentage:
			amount := decimal.NewFromInt(int64(subtotal)).
				Mul(d.Value).
				Div(oneHundred).
				Round(0)
			discount += int(amount.IntPart())
		case enums.DiscountKindFixed:
			discount += d.AmountCents
		}
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	shipping := 0
	if method != "" {
		shipping = method.PriceCents()
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	total += shipping

	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discount,
		ShippingCents: shipping,
		TaxCents:      money.TaxFromGross(total, money.DefaultVATRate),
		TotalCents:    total,
		ItemCount:     itemCount,
	}
}

// ValidateForCheckout reports whether the cart can be handed to checkout.
// Failures are business outcomes, not errors.
func ValidateForCheckout(cart Cart) ValidationResult {
	var errs []string
	if len(cart.Items) == 0 {
		errs = append(errs, "cart is empty")
	}
	for _, item := range cart.Items {
		if item.Type != enums.CartItemTypeVoucher {
			continue
		}
		if item.RecipientEmail == nil || strings.TrimSpace(*item.RecipientEmail) == "" {
			errs = append(errs, "voucher item requires a recipient email")
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// IsDigitalOnly reports whether every line is a voucher. Digital-only carts
// skip the shipping step and ship free with the "none" method.
func IsDigitalOnly(cart Cart) bool {
	if len(cart.Items) == 0 {
		return false
	}
	for _, item := range cart.Items {
		if item.Type != enums.CartItemTypeVoucher {
			return false
		}
	}
	return true
}
