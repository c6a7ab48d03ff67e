package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/api/middleware"
	"github.com/mbruegger/salora-backend/api/responses"
	"github.com/mbruegger/salora-backend/api/validators"
	checkoutsvc "github.com/mbruegger/salora-backend/internal/checkout"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/types"
)

type checkoutRequest struct {
	CartID uuid.UUID `json:"cartId" validate:"required"`

	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone,omitempty"`

	ShippingMethod  string         `json:"shippingMethod,omitempty"`
	ShippingAddress *types.Address `json:"shippingAddress,omitempty"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required"`
}

// Checkout submits the session cart as an order. Card payments come back
// with a hosted payment URL; everything else confirms immediately.
func Checkout(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}
		var shippingMethod enums.ShippingMethod
		if payload.ShippingMethod != "" {
			shippingMethod, err = enums.ParseShippingMethod(payload.ShippingMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown shipping method"))
				return
			}
		}

		result, err := svc.Submit(r.Context(), checkoutsvc.SubmitInput{
			CartID:          payload.CartID,
			SalonID:         middleware.SalonIDFromContext(r.Context()),
			CustomerName:    payload.CustomerName,
			CustomerEmail:   payload.CustomerEmail,
			CustomerPhone:   payload.CustomerPhone,
			ShippingMethod:  shippingMethod,
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   paymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentSucceeded is the payment callback for a settled session. It is
// idempotent; replays confirm the already-paid order again.
func PaymentSucceeded(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.HandlePaymentSucceeded(r.Context(), middleware.SalonIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PaymentFailed records a failed payment attempt; the order stays pending
// so the customer can retry.
func PaymentFailed(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.HandlePaymentFailed(r.Context(), middleware.SalonIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
