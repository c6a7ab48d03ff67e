package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

// VoucherApplication is an already-validated discount to attach. Validity
// checks (lookup, balance, expiry) happen in the voucher validator before
// this is built.
type VoucherApplication struct {
	VoucherID     uuid.UUID
	VoucherCode   string
	DiscountCents int
}

// ApplyVoucher attaches the voucher and recomputes the total. The applied
// discount is capped at subtotal plus shipping so the total never goes
// negative. Re-applying the same voucher with the same amount is a no-op,
// which keeps retried calls idempotent.
func ApplyVoucher(order models.Order, application VoucherApplication) (models.Order, error) {
	if application.VoucherID == uuid.Nil {
		return order, pkgerrors.New(pkgerrors.CodeValidation, "voucher id is required")
	}
	if strings.TrimSpace(application.VoucherCode) == "" {
		return order, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required")
	}
	if application.DiscountCents <= 0 {
		return order, pkgerrors.New(pkgerrors.CodeValidation, "voucher discount must be positive")
	}
	if order.Status.IsTerminal() {
		return order, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot apply a voucher to a closed order")
	}

	capped := application.DiscountCents
	if ceiling := order.SubtotalCents + order.ShippingCents; capped > ceiling {
		capped = ceiling
	}

	if order.VoucherID != nil && *order.VoucherID == application.VoucherID && order.VoucherDiscountCents == capped {
		return order, nil
	}
	if order.VoucherID != nil && *order.VoucherID != application.VoucherID {
		return order, pkgerrors.New(pkgerrors.CodeStateConflict, "order already carries a different voucher")
	}

	next := order
	voucherID := application.VoucherID
	code := application.VoucherCode
	next.VoucherID = &voucherID
	next.VoucherCode = &code
	next.VoucherDiscountCents = capped

	totals := CalculateTotals(next.Items, next.DiscountCents, capped, next.ShippingMethod)
	next.TotalCents = totals.TotalCents
	return next, nil
}
