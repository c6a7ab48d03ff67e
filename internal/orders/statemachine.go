package orders

import (
	"fmt"
	"time"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

// IsValidTransition implements the status table. Same-status re-application
// is always allowed so retried updates stay idempotent. On the fulfillment
// path only forward movement is valid; skipping intermediate states is fine.
// Cancellation is open until fulfillment work starts (pending, paid,
// processing). Terminal states permit no exit.
func IsValidTransition(from, to enums.OrderStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if to == enums.OrderStatusCancelled {
		switch from {
		case enums.OrderStatusPending, enums.OrderStatusPaid, enums.OrderStatusProcessing:
			return true
		}
		return false
	}

	fromRank, fromOnPath := from.HappyPathRank()
	toRank, toOnPath := to.HappyPathRank()
	if fromOnPath && toOnPath {
		return toRank > fromRank
	}
	return false
}

// ApplyTransition returns a copy of the order moved to the new status, with
// the matching timestamp stamped at transition time. Invalid transitions
// fail with a state-conflict error and leave the input untouched; the
// function never coerces the status. An unrecognized status value is a
// programming error and panics.
func ApplyTransition(order models.Order, to enums.OrderStatus, now time.Time) (models.Order, error) {
	if !order.Status.IsValid() {
		panic(fmt.Sprintf("order %s carries unknown status %q", order.ID, order.Status))
	}
	if !to.IsValid() {
		return order, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if !IsValidTransition(order.Status, to) {
		return order, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, to),
		)
	}
	if order.Status == to {
		return order, nil
	}

	next := order
	next.Status = to
	next.UpdatedAt = now

	switch to {
	case enums.OrderStatusPaid:
		next.PaidAt = &now
	case enums.OrderStatusShipped:
		next.ShippedAt = &now
	case enums.OrderStatusDelivered:
		next.DeliveredAt = &now
	case enums.OrderStatusCompleted:
		next.CompletedAt = &now
	case enums.OrderStatusCancelled:
		next.CancelledAt = &now
	case enums.OrderStatusRefunded:
		next.RefundedAt = &now
	}
	return next, nil
}

// CanCancel reports whether the order may still be called off.
func CanCancel(order *models.Order) bool {
	if order == nil {
		return false
	}
	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusPaid, enums.OrderStatusProcessing:
		return true
	default:
		return false
	}
}

// CanRefund reports whether a refund is possible: money must have changed
// hands and must not already be on its way back.
func CanRefund(order *models.Order) bool {
	if order == nil {
		return false
	}
	return order.PaymentStatus == enums.PaymentStatusSucceeded &&
		order.Status != enums.OrderStatusRefunded
}

// ApplyRefund moves the order to its refunded terminal state. Refunds are
// gated by CanRefund rather than the transition table, since a paid order
// may be refunded from any non-refunded status.
func ApplyRefund(order models.Order, now time.Time) (models.Order, error) {
	if !CanRefund(&order) {
		return order, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be refunded")
	}
	next := order
	next.Status = enums.OrderStatusRefunded
	next.PaymentStatus = enums.PaymentStatusRefunded
	next.RefundedAt = &now
	next.UpdatedAt = now
	return next, nil
}
