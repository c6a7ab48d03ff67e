package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mbruegger/salora-backend/api/middleware"
	"github.com/mbruegger/salora-backend/api/responses"
	"github.com/mbruegger/salora-backend/api/validators"
	cartsvc "github.com/mbruegger/salora-backend/internal/cart"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

// CartCreate opens a fresh session cart for the salon.
func CartCreate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		salonID := middleware.SalonIDFromContext(r.Context())

		record, err := svc.CreateCart(r.Context(), salonID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// CartFetch returns the cart snapshot with derived totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartDelete evicts the cart from the session store.
func CartDelete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCart(r.Context(), record.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type addItemRequest struct {
	Type           string     `json:"type" validate:"required,oneof=product voucher"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Quantity       int        `json:"quantity" validate:"required,min=1"`
	UnitPriceCents int        `json:"unitPriceCents" validate:"min=0"`

	VoucherValueCents *int    `json:"voucherValueCents,omitempty" validate:"omitempty,min=1"`
	RecipientEmail    *string `json:"recipientEmail,omitempty" validate:"omitempty,email"`
	RecipientName     *string `json:"recipientName,omitempty"`
	PersonalMessage   *string `json:"personalMessage,omitempty"`
}

// CartAddItem appends or merges a line into the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, err := enums.ParseCartItemType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown item type"))
			return
		}

		updated, err := svc.AddItem(r.Context(), record.ID, cartsvc.AddItemInput{
			Type:              itemType,
			ProductID:         payload.ProductID,
			VariantID:         payload.VariantID,
			Name:              payload.Name,
			Quantity:          payload.Quantity,
			UnitPriceCents:    payload.UnitPriceCents,
			VoucherValueCents: payload.VoucherValueCents,
			RecipientEmail:    payload.RecipientEmail,
			RecipientName:     payload.RecipientName,
			PersonalMessage:   payload.PersonalMessage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type updateItemRequest struct {
	// Zero or negative removes the line.
	Quantity int `json:"quantity"`
}

// CartUpdateItem changes a line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateItem(r.Context(), record.ID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemoveItem(r.Context(), record.ID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CartClear removes every line while keeping the cart alive.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ClearCart(r.Context(), record.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type applyDiscountRequest struct {
	Code  string          `json:"code" validate:"required"`
	Kind  string          `json:"kind" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

// CartApplyDiscount attaches a discount; re-applying a code replaces it.
func CartApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseDiscountKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount kind"))
			return
		}

		updated, err := svc.ApplyDiscount(r.Context(), record.ID, cartsvc.Discount{
			Code:  payload.Code,
			Kind:  kind,
			Value: payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CartRemoveDiscount detaches a discount by code.
func CartRemoveDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required"))
			return
		}

		updated, err := svc.RemoveDiscount(r.Context(), record.ID, code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type shippingMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

// CartSetShippingMethod selects the delivery option priced into totals.
func CartSetShippingMethod(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := scopedCart(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shippingMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParseShippingMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown shipping method"))
			return
		}

		updated, err := svc.SetShippingMethod(r.Context(), record.ID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// scopedCart loads the cart named in the route and hides carts that belong
// to another salon.
func scopedCart(r *http.Request, svc cartsvc.Service) (cartsvc.Cart, error) {
	if svc == nil {
		return cartsvc.Cart{}, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	cartID, err := pathUUID(r, "cartId")
	if err != nil {
		return cartsvc.Cart{}, err
	}
	record, err := svc.GetCart(r.Context(), cartID)
	if err != nil {
		return cartsvc.Cart{}, err
	}
	if record.SalonID != middleware.SalonIDFromContext(r.Context()) {
		return cartsvc.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return record, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return value, nil
}
