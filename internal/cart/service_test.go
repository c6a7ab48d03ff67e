package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

type memoryStore struct {
	carts map[uuid.UUID]Cart
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: map[uuid.UUID]Cart{}}
}

func (m *memoryStore) Save(_ context.Context, c Cart) error {
	m.carts[c.ID] = c
	return nil
}

func (m *memoryStore) Load(_ context.Context, cartID uuid.UUID) (Cart, error) {
	c, ok := m.carts[cartID]
	if !ok {
		return Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return c, nil
}

func (m *memoryStore) Delete(_ context.Context, cartID uuid.UUID) error {
	delete(m.carts, cartID)
	return nil
}

func newTestService(t *testing.T) (Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	svc, err := NewService(store)
	require.NoError(t, err)
	return svc, store
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestServiceCreateCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("requires salon id", func(t *testing.T) {
		_, err := svc.CreateCart(ctx, uuid.Nil)
		assertValidationError(t, err)
	})

	t.Run("persists a fresh cart", func(t *testing.T) {
		c, err := svc.CreateCart(ctx, uuid.New())
		require.NoError(t, err)
		assert.Contains(t, store.carts, c.ID)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), c.ExpiresAt, time.Minute)
	})
}

func TestServiceAddItemValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.CreateCart(ctx, uuid.New())
	require.NoError(t, err)

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := svc.AddItem(ctx, c.ID, AddItemInput{Type: "bundle", Name: "x", Quantity: 1})
		assertValidationError(t, err)
	})

	t.Run("rejects product without id", func(t *testing.T) {
		_, err := svc.AddItem(ctx, c.ID, AddItemInput{Type: enums.CartItemTypeProduct, Name: "Shampoo", Quantity: 1, UnitPriceCents: 2500})
		assertValidationError(t, err)
	})

	t.Run("rejects voucher without recipient email", func(t *testing.T) {
		value := 5000
		_, err := svc.AddItem(ctx, c.ID, AddItemInput{
			Type:              enums.CartItemTypeVoucher,
			Name:              "Gutschein",
			Quantity:          1,
			UnitPriceCents:    5000,
			VoucherValueCents: &value,
		})
		assertValidationError(t, err)
	})

	t.Run("accepts valid product line", func(t *testing.T) {
		updated, err := svc.AddItem(ctx, c.ID, productInput(uuid.New(), 2, 2500))
		require.NoError(t, err)
		assert.Equal(t, 5000, updated.Totals.SubtotalCents)
	})
}

func TestServiceMutationsPersist(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCart(ctx, uuid.New())
	require.NoError(t, err)

	c, err = svc.AddItem(ctx, c.ID, productInput(uuid.New(), 2, 2500))
	require.NoError(t, err)

	c, err = svc.ApplyDiscount(ctx, c.ID, Discount{Code: "SAVE5", Kind: enums.DiscountKindFixed, AmountCents: 500})
	require.NoError(t, err)
	assert.Equal(t, 4500, c.Totals.TotalCents)

	c, err = svc.SetShippingMethod(ctx, c.ID, enums.ShippingMethodStandard)
	require.NoError(t, err)
	assert.Equal(t, 790, c.Totals.ShippingCents)

	persisted := store.carts[c.ID]
	assert.Equal(t, c.Totals, persisted.Totals)

	c, err = svc.ClearCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Empty(t, store.carts[c.ID].Items)
}

func TestServiceApplyDiscountValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.CreateCart(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ApplyDiscount(ctx, c.ID, Discount{Kind: enums.DiscountKindFixed, AmountCents: 100})
	assertValidationError(t, err)

	_, err = svc.ApplyDiscount(ctx, c.ID, Discount{Code: "X", Kind: "stacked"})
	assertValidationError(t, err)

	_, err = svc.ApplyDiscount(ctx, c.ID, Discount{Code: "X", Kind: enums.DiscountKindFixed, AmountCents: -10})
	assertValidationError(t, err)

	_, err = svc.ApplyDiscount(ctx, c.ID, Discount{Code: "X", Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(150)})
	assertValidationError(t, err)
}

func TestServiceSetShippingMethodValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.CreateCart(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.SetShippingMethod(ctx, c.ID, "drone")
	assertValidationError(t, err)
}

func TestServiceUnknownCart(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetCart(context.Background(), uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
