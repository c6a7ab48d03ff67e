package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

type cartStore interface {
	Save(ctx context.Context, c Cart) error
	Load(ctx context.Context, cartID uuid.UUID) (Cart, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}

// Service exposes session cart operations backed by the Redis store.
type Service interface {
	CreateCart(ctx context.Context, salonID uuid.UUID) (Cart, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (Cart, error)
	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (Cart, error)
	UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (Cart, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) (Cart, error)
	ApplyDiscount(ctx context.Context, cartID uuid.UUID, discount Discount) (Cart, error)
	RemoveDiscount(ctx context.Context, cartID uuid.UUID, code string) (Cart, error)
	SetShippingMethod(ctx context.Context, cartID uuid.UUID, method enums.ShippingMethod) (Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

type service struct {
	store cartStore
	now   func() time.Time
}

// NewService builds the cart service.
func NewService(store cartStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) CreateCart(ctx context.Context, salonID uuid.UUID) (Cart, error) {
	if salonID == uuid.Nil {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "salon id is required")
	}
	c := NewCart(salonID, s.now())
	if err := s.store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (s *service) GetCart(ctx context.Context, cartID uuid.UUID) (Cart, error) {
	return s.store.Load(ctx, cartID)
}

func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (Cart, error) {
	if err := validateAddItemInput(input); err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return AddItem(c, input)
	})
}

func (s *service) UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return UpdateItemQuantity(c, itemID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return RemoveItem(c, itemID)
	})
}

func (s *service) ClearCart(ctx context.Context, cartID uuid.UUID) (Cart, error) {
	return s.mutate(ctx, cartID, Clear)
}

func (s *service) ApplyDiscount(ctx context.Context, cartID uuid.UUID, discount Discount) (Cart, error) {
	if strings.TrimSpace(discount.Code) == "" {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	if !discount.Kind.IsValid() {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount kind")
	}
	if discount.Kind == enums.DiscountKindFixed && discount.AmountCents < 0 {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be non-negative")
	}
	if discount.Kind == enums.DiscountKindPercentage && (discount.Value.IsNegative() || discount.Value.GreaterThan(oneHundred)) {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 0 and 100")
	}
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return ApplyDiscount(c, discount)
	})
}

func (s *service) RemoveDiscount(ctx context.Context, cartID uuid.UUID, code string) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return RemoveDiscount(c, code)
	})
}

func (s *service) SetShippingMethod(ctx context.Context, cartID uuid.UUID, method enums.ShippingMethod) (Cart, error) {
	if !method.IsValid() {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}
	return s.mutate(ctx, cartID, func(c Cart) Cart {
		return SetShippingMethod(c, method)
	})
}

func (s *service) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return s.store.Delete(ctx, cartID)
}

func (s *service) mutate(ctx context.Context, cartID uuid.UUID, fn func(Cart) Cart) (Cart, error) {
	current, err := s.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	next := fn(current)
	if err := s.store.Save(ctx, next); err != nil {
		return Cart{}, err
	}
	return next, nil
}

func validateAddItemInput(input AddItemInput) error {
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown cart item type")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.UnitPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}
	switch input.Type {
	case enums.CartItemTypeProduct:
		if input.ProductID == nil || *input.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
	case enums.CartItemTypeVoucher:
		if input.VoucherValueCents == nil || *input.VoucherValueCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "voucher value must be positive")
		}
		if input.RecipientEmail == nil || strings.TrimSpace(*input.RecipientEmail) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "voucher recipient email is required")
		}
	}
	return nil
}
