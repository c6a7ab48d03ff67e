package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbruegger/salora-backend/internal/cart"
	"github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/stripepay"
	"github.com/mbruegger/salora-backend/pkg/types"
)

type stubCarts struct {
	carts   map[uuid.UUID]cart.Cart
	deleted []uuid.UUID
}

func (s *stubCarts) GetCart(_ context.Context, cartID uuid.UUID) (cart.Cart, error) {
	c, ok := s.carts[cartID]
	if !ok {
		return cart.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return c, nil
}

func (s *stubCarts) DeleteCart(_ context.Context, cartID uuid.UUID) error {
	s.deleted = append(s.deleted, cartID)
	return nil
}

type stubOrders struct {
	created      *models.Order
	lastInput    orders.CreateInput
	paySucceeded int
	payFailed    int
	createErr    error
}

func (s *stubOrders) Create(_ context.Context, input orders.CreateInput) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.lastInput = input
	order := orders.BuildOrder(input, "SO-2026-000001", time.Now())
	s.created = &order
	return s.created, nil
}

func (s *stubOrders) Get(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	return s.created, nil
}

func (s *stubOrders) MarkPaymentSucceeded(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	s.paySucceeded++
	s.created.PaymentStatus = enums.PaymentStatusSucceeded
	return s.created, nil
}

func (s *stubOrders) MarkPaymentFailed(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	s.payFailed++
	s.created.PaymentStatus = enums.PaymentStatusFailed
	return s.created, nil
}

type stubSessions struct {
	lastInput stripepay.SessionInput
	err       error
	calls     int
}

func (s *stubSessions) CreateCheckoutSession(_ context.Context, input stripepay.SessionInput) (*stripepay.Session, error) {
	s.calls++
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &stripepay.Session{SessionID: "cs_test_123", CheckoutURL: "https://pay.example/cs_test_123"}, nil
}

type stubVouchers struct {
	issued   int
	redeemed map[uuid.UUID]int
}

func (s *stubVouchers) IssueForOrder(_ context.Context, _ *models.Order) ([]models.Voucher, error) {
	s.issued++
	return nil, nil
}

func (s *stubVouchers) Redeem(_ context.Context, voucherID uuid.UUID, amountCents int) error {
	if s.redeemed == nil {
		s.redeemed = map[uuid.UUID]int{}
	}
	s.redeemed[voucherID] += amountCents
	return nil
}

type stubNotifier struct {
	created int
}

func (s *stubNotifier) NotifyOrderCreated(_ context.Context, _ *models.Order, _ []models.Voucher) {
	s.created++
}

type checkoutFixture struct {
	svc      *Service
	carts    *stubCarts
	orders   *stubOrders
	sessions *stubSessions
	vouchers *stubVouchers
	notify   *stubNotifier
	salonID  uuid.UUID
	cartID   uuid.UUID
}

func newFixture(t *testing.T, build func(cart.Cart) cart.Cart) *checkoutFixture {
	t.Helper()

	salonID := uuid.New()
	c := cart.NewCart(salonID, time.Now())
	if build != nil {
		c = build(c)
	}

	f := &checkoutFixture{
		carts:    &stubCarts{carts: map[uuid.UUID]cart.Cart{c.ID: c}},
		orders:   &stubOrders{},
		sessions: &stubSessions{},
		vouchers: &stubVouchers{},
		notify:   &stubNotifier{},
		salonID:  salonID,
		cartID:   c.ID,
	}
	svc, err := NewService(f.carts, f.orders, f.sessions, f.vouchers, f.notify, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *checkoutFixture) submitInput() SubmitInput {
	return SubmitInput{
		CartID:         f.cartID,
		SalonID:        f.salonID,
		CustomerName:   "Anna Keller",
		CustomerEmail:  "anna@example.ch",
		ShippingMethod: enums.ShippingMethodStandard,
		ShippingAddress: &types.Address{
			Name:       "Anna Keller",
			Street:     "Bahnhofstrasse 12",
			PostalCode: "8001",
			City:       "Zürich",
			Country:    "CH",
		},
		PaymentMethod: enums.PaymentMethodCard,
	}
}

func withProduct(qty, unitCents int) func(cart.Cart) cart.Cart {
	return func(c cart.Cart) cart.Cart {
		productID := uuid.New()
		return cart.AddItem(c, cart.AddItemInput{
			Type:           enums.CartItemTypeProduct,
			ProductID:      &productID,
			Name:           "Repair Shampoo",
			Quantity:       qty,
			UnitPriceCents: unitCents,
		})
	}
}

func TestSubmitCardOrderOpensPaymentSession(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))

	result, err := f.svc.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", result.SessionID)
	assert.Equal(t, "https://pay.example/cs_test_123", result.PaymentURL)
	require.NotNil(t, result.Order)
	assert.Equal(t, enums.OrderStatusPending, result.Order.Status)

	assert.Equal(t, []uuid.UUID{f.cartID}, f.carts.deleted, "cart evicted after conversion")
	assert.Zero(t, f.notify.created, "confirmation waits for payment")
	assert.Zero(t, f.vouchers.issued)

	require.Len(t, f.sessions.lastInput.LineItems, 2, "product plus shipping")
	assert.Equal(t, result.Order.ID.String(), f.sessions.lastInput.OrderID)
}

func TestSubmitPayAtVenueSkipsSessionAndConfirms(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))
	input := f.submitInput()
	input.PaymentMethod = enums.PaymentMethodPayAtVenue

	result, err := f.svc.Submit(context.Background(), input)
	require.NoError(t, err)

	assert.Empty(t, result.PaymentURL)
	assert.Zero(t, f.sessions.calls)
	assert.Equal(t, enums.OrderStatusProcessing, result.Order.Status)
	assert.Equal(t, 1, f.notify.created)
	assert.Equal(t, 1, f.vouchers.issued)
}

func TestSubmitDigitalOnlyCartForcesNoneShipping(t *testing.T) {
	f := newFixture(t, func(c cart.Cart) cart.Cart {
		value := 5000
		email := "empfaenger@example.ch"
		name := "Lea Muster"
		return cart.AddItem(c, cart.AddItemInput{
			Type:              enums.CartItemTypeVoucher,
			Name:              "Gutschein",
			Quantity:          1,
			UnitPriceCents:    value,
			VoucherValueCents: &value,
			RecipientEmail:    &email,
			RecipientName:     &name,
		})
	})

	input := f.submitInput()
	input.ShippingAddress = nil

	result, err := f.svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.ShippingMethodNone, result.Order.ShippingMethod)
	assert.Zero(t, result.Order.ShippingCents)
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Submit(context.Background(), f.submitInput())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSubmitRejectsForeignSalonCart(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))
	input := f.submitInput()
	input.SalonID = uuid.New()

	_, err := f.svc.Submit(context.Background(), input)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestSubmitSessionFailureSurfacesDependencyError(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))
	f.sessions.err = errors.New("stripe down")

	_, err := f.svc.Submit(context.Background(), f.submitInput())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestSubmitDiscountedOrderChargesAggregateLine(t *testing.T) {
	f := newFixture(t, func(c cart.Cart) cart.Cart {
		c = withProduct(2, 2500)(c)
		return cart.ApplyDiscount(c, cart.Discount{
			Code: "SAVE5", Kind: enums.DiscountKindFixed, AmountCents: 500,
		})
	})

	result, err := f.svc.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	require.Len(t, f.sessions.lastInput.LineItems, 1)
	assert.Equal(t, result.Order.TotalCents, f.sessions.lastInput.LineItems[0].AmountCents)
}

func TestHandlePaymentSucceeded(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))
	_, err := f.svc.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	voucherID := uuid.New()
	f.orders.created.VoucherID = &voucherID
	f.orders.created.VoucherDiscountCents = 1000

	order, err := f.svc.HandlePaymentSucceeded(context.Background(), f.salonID, f.orders.created.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSucceeded, order.PaymentStatus)
	assert.Equal(t, 1, f.orders.paySucceeded)
	assert.Equal(t, 1000, f.vouchers.redeemed[voucherID])
	assert.Equal(t, 1, f.vouchers.issued)
	assert.Equal(t, 1, f.notify.created)
}

func TestHandlePaymentFailed(t *testing.T) {
	f := newFixture(t, withProduct(1, 2500))
	_, err := f.svc.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	order, err := f.svc.HandlePaymentFailed(context.Background(), f.salonID, f.orders.created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, 1, f.orders.payFailed)
}
