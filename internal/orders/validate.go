package orders

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
)

var fieldValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidationResult reports recoverable business-rule failures as values.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func validEmail(email string) bool {
	return fieldValidator.Var(email, "required,email") == nil
}

// ValidateInput checks an order creation payload. A salon id is always
// required; there is no default tenant. Physical lines need a shipping
// method, and unless the method is pickup or none, a complete address.
func ValidateInput(input CreateInput) ValidationResult {
	var errs []string

	if input.SalonID == uuid.Nil {
		errs = append(errs, "salon id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		errs = append(errs, "customer name is required")
	}
	if !validEmail(input.CustomerEmail) {
		errs = append(errs, "a valid customer email is required")
	}
	if len(input.Items) == 0 {
		errs = append(errs, "order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		errs = append(errs, "unknown payment method")
	}

	hasPhysical := false
	for _, item := range input.Items {
		switch item.Type {
		case enums.CartItemTypeProduct:
			hasPhysical = true
			if item.ProductID == nil || *item.ProductID == uuid.Nil {
				errs = append(errs, "product line is missing its product id")
			}
		case enums.CartItemTypeVoucher:
			if item.RecipientEmail == nil || !validEmail(*item.RecipientEmail) {
				errs = append(errs, "voucher line requires a valid recipient email")
			}
			if item.RecipientName == nil || strings.TrimSpace(*item.RecipientName) == "" {
				errs = append(errs, "voucher line requires a recipient name")
			}
		default:
			errs = append(errs, "unknown item type")
		}
		if item.UnitPriceCents < 0 {
			errs = append(errs, "item prices must be non-negative")
		}
	}

	if hasPhysical {
		if !input.ShippingMethod.IsValid() {
			errs = append(errs, "a shipping method is required for physical items")
		} else if input.ShippingMethod.RequiresAddress() {
			if input.ShippingAddress == nil || !input.ShippingAddress.Complete() {
				errs = append(errs, "a complete shipping address is required")
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateForPayment is the stricter pre-payment gate over the persisted
// order. It re-checks the creation rules against the stored aggregate and
// refuses orders that already left the pending stage or price at zero
// through inconsistent totals.
func ValidateForPayment(order *models.Order) ValidationResult {
	var errs []string

	if order == nil {
		return ValidationResult{Errors: []string{"order is required"}}
	}
	if order.Status != enums.OrderStatusPending {
		errs = append(errs, "order is no longer awaiting payment")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		errs = append(errs, "payment is already settled")
	}
	if !order.PaymentMethod.RequiresSession() {
		errs = append(errs, "payment method is settled at the venue")
	}
	if len(order.Items) == 0 {
		errs = append(errs, "order has no items")
	}
	if !validEmail(order.CustomerEmail) {
		errs = append(errs, "a valid customer email is required")
	}
	if order.TotalCents < 0 {
		errs = append(errs, "order total is negative")
	}

	expected := CalculateTotals(order.Items, order.DiscountCents, order.VoucherDiscountCents, order.ShippingMethod)
	if expected.TotalCents != order.TotalCents {
		errs = append(errs, "order totals are inconsistent")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
