package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	"github.com/mbruegger/salora-backend/pkg/money"
	"github.com/mbruegger/salora-backend/pkg/types"
)

// FreeShippingThresholdCents waives the shipping charge for carted orders of
// CHF 50.00 and up.
const FreeShippingThresholdCents = 5000

// ItemInput is one priced line handed to order creation. Prices are gross,
// VAT-inclusive cents snapshotted from the cart.
type ItemInput struct {
	Type           enums.CartItemType
	ProductID      *uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int
	DiscountCents  int

	// TaxRate overrides the default 8.1% when the item is taxed at a
	// reduced rate. Fraction, not percent.
	TaxRate *decimal.Decimal

	VoucherValueCents *int
	RecipientEmail    *string
	RecipientName     *string
	PersonalMessage   *string
}

// CreateInput is everything needed to build an order aggregate.
type CreateInput struct {
	SalonID       uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Items           []ItemInput
	DiscountCents   int
	ShippingMethod  enums.ShippingMethod
	ShippingAddress *types.Address
	PaymentMethod   enums.PaymentMethod
	Currency        enums.Currency
}

// Totals is the order-level pricing summary.
type Totals struct {
	SubtotalCents int
	DiscountCents int
	ShippingCents int
	TaxCents      int
	TotalCents    int
}

// ShippingCents returns the list price for a delivery method. Unknown
// methods price at zero.
func ShippingCents(method enums.ShippingMethod) int {
	return method.PriceCents()
}

// CalculateTotals prices an order from its item snapshots. Shipping is
// waived above the free-shipping threshold unless the method is inherently
// free (pickup, none), which always costs zero regardless of subtotal.
// The voucher discount can never push the total negative.
func CalculateTotals(items []models.OrderItem, discountCents, voucherDiscountCents int, method enums.ShippingMethod) Totals {
	subtotal := 0
	tax := 0
	for _, item := range items {
		subtotal += item.TotalCents
		tax += item.TaxCents
	}

	if discountCents < 0 {
		discountCents = 0
	}
	if discountCents > subtotal {
		discountCents = subtotal
	}

	shipping := 0
	if !method.IsFree() && subtotal < FreeShippingThresholdCents {
		shipping = method.PriceCents()
	}

	// The cart discount is capped at the subtotal; the voucher may consume
	// the shipping charge as well, so it applies after shipping.
	total := subtotal - discountCents + shipping - voucherDiscountCents
	if total < 0 {
		total = 0
	}

	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discountCents,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    total,
	}
}

// BuildOrder maps validated input to a new order aggregate. It performs no
// I/O; the caller persists the result. Pay-at-venue orders start in
// processing since there is nothing to wait for online.
func BuildOrder(input CreateInput, orderNumber string, now time.Time) models.Order {
	orderID := uuid.New()

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, buildItem(orderID, in))
	}

	status := enums.OrderStatusPending
	if input.PaymentMethod == enums.PaymentMethodPayAtVenue {
		status = enums.OrderStatusProcessing
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyCHF
	}

	totals := CalculateTotals(items, input.DiscountCents, 0, input.ShippingMethod)

	return models.Order{
		ID:            orderID,
		SalonID:       input.SalonID,
		OrderNumber:   orderNumber,
		Status:        status,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,

		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,

		SubtotalCents:        totals.SubtotalCents,
		DiscountCents:        totals.DiscountCents,
		ShippingCents:        totals.ShippingCents,
		TaxCents:             totals.TaxCents,
		VoucherDiscountCents: 0,
		TotalCents:           totals.TotalCents,

		ShippingMethod:  input.ShippingMethod,
		ShippingAddress: input.ShippingAddress,
		Currency:        currency,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func buildItem(orderID uuid.UUID, in ItemInput) models.OrderItem {
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	discount := in.DiscountCents
	if discount < 0 {
		discount = 0
	}

	total := in.UnitPriceCents*quantity - discount
	if total < 0 {
		total = 0
	}

	rate := money.DefaultVATRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}

	return models.OrderItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		Type:           in.Type,
		ProductID:      in.ProductID,
		VariantID:      in.VariantID,
		Name:           in.Name,
		Quantity:       quantity,
		UnitPriceCents: in.UnitPriceCents,
		DiscountCents:  discount,
		TotalCents:     total,
		TaxRate:        rate,
		TaxCents:       money.TaxFromGross(total, rate),

		VoucherValueCents: in.VoucherValueCents,
		RecipientEmail:    in.RecipientEmail,
		RecipientName:     in.RecipientName,
		PersonalMessage:   in.PersonalMessage,
	}
}

// IsDigitalOnly reports whether every order line is a voucher.
func IsDigitalOnly(order *models.Order) bool {
	if order == nil || len(order.Items) == 0 {
		return false
	}
	for _, item := range order.Items {
		if item.Type != enums.CartItemTypeVoucher {
			return false
		}
	}
	return true
}
