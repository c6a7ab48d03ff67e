package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mbruegger/salora-backend/pkg/enums"
)

// Item is one line in a cart. Product lines merge by product and variant
// identity; voucher lines are always distinct instances because each one
// results in its own emailed code.
type Item struct {
	ID              uuid.UUID          `json:"id"`
	Type            enums.CartItemType `json:"type"`
	ProductID       *uuid.UUID         `json:"productId,omitempty"`
	VariantID       *uuid.UUID         `json:"variantId,omitempty"`
	Name            string             `json:"name"`
	Quantity        int                `json:"quantity"`
	UnitPriceCents  int                `json:"unitPriceCents"`
	TotalPriceCents int                `json:"totalPriceCents"`

	VoucherValueCents *int    `json:"voucherValueCents,omitempty"`
	RecipientEmail    *string `json:"recipientEmail,omitempty"`
	RecipientName     *string `json:"recipientName,omitempty"`
	PersonalMessage   *string `json:"personalMessage,omitempty"`
}

// Discount is a cart-level reduction. Percentage discounts are evaluated
// against the subtotal at totals time; fixed discounts carry a precomputed
// cents amount.
type Discount struct {
	Code        string             `json:"code"`
	Kind        enums.DiscountKind `json:"kind"`
	Value       decimal.Decimal    `json:"value"`
	AmountCents int                `json:"amountCents"`
}

// Totals is always derived from items, discounts and shipping method. It is
// never stored independently of the inputs it was computed from.
type Totals struct {
	SubtotalCents int `json:"subtotalCents"`
	DiscountCents int `json:"discountCents"`
	ShippingCents int `json:"shippingCents"`
	TaxCents      int `json:"taxCents"`
	TotalCents    int `json:"totalCents"`
	ItemCount     int `json:"itemCount"`
}

// Cart is the checkout-session working set. It lives in Redis with a TTL
// matching ExpiresAt and is owned by a single browser session.
type Cart struct {
	ID             uuid.UUID            `json:"id"`
	SalonID        uuid.UUID            `json:"salonId"`
	Items          []Item               `json:"items"`
	Discounts      []Discount           `json:"discounts"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod,omitempty"`
	Totals         Totals               `json:"totals"`
	CreatedAt      time.Time            `json:"createdAt"`
	ExpiresAt      time.Time            `json:"expiresAt"`
}

// ValidationResult reports recoverable checkout-readiness failures as values.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func cloneDiscounts(discounts []Discount) []Discount {
	if discounts == nil {
		return nil
	}
	out := make([]Discount, len(discounts))
	copy(out, discounts)
	return out
}

func (c Cart) clone() Cart {
	next := c
	next.Items = cloneItems(c.Items)
	next.Discounts = cloneDiscounts(c.Discounts)
	return next
}
