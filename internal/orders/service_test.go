package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mbruegger/salora-backend/internal/vouchers"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type countingAllocator struct {
	next int64
}

func (a *countingAllocator) Next(_ context.Context, _ *gorm.DB) (string, error) {
	a.next++
	return FormatOrderNumber("SO", 2026, a.next), nil
}

type stubVoucherValidator struct {
	outcome vouchers.Outcome
	err     error
}

func (s *stubVoucherValidator) Validate(_ context.Context, _ uuid.UUID, _ string) (vouchers.Outcome, error) {
	return s.outcome, s.err
}

func newTestOrderService(t *testing.T, validator vouchers.Validator) (Service, *gorm.DB) {
	t.Helper()
	conn := setupOrdersTestDB(t)
	if validator == nil {
		validator = &stubVoucherValidator{}
	}
	svc, err := NewService(NewRepository(conn), &gormTxRunner{db: conn}, &countingAllocator{}, validator, nil, nil)
	require.NoError(t, err)
	return svc, conn
}

func TestServiceCreate(t *testing.T) {
	svc, conn := newTestOrderService(t, nil)
	ctx := context.Background()

	t.Run("invalid input carries the violation list", func(t *testing.T) {
		input := baseCreateInput(productItemInput(1, 2500))
		input.CustomerEmail = "nope"

		_, err := svc.Create(ctx, input)
		require.Error(t, err)

		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	})

	t.Run("persists order with items and allocated number", func(t *testing.T) {
		created, err := svc.Create(ctx, baseCreateInput(productItemInput(2, 2500)))
		require.NoError(t, err)
		assert.Equal(t, "SO-2026-000001", created.OrderNumber)
		assert.Equal(t, enums.OrderStatusPending, created.Status)

		var itemCount int64
		require.NoError(t, conn.Table("order_items").Where("order_id = ?", created.ID).Count(&itemCount).Error)
		assert.EqualValues(t, 1, itemCount)
	})

	t.Run("numbers keep increasing", func(t *testing.T) {
		second, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)
		assert.Equal(t, "SO-2026-000002", second.OrderNumber)
	})
}

func TestServiceCreateRetriesNumberCollision(t *testing.T) {
	conn := setupOrdersTestDB(t)
	allocator := &countingAllocator{}
	svc, err := NewService(NewRepository(conn), &gormTxRunner{db: conn}, allocator, &stubVoucherValidator{}, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// occupy the first number so the allocator collides once
	persistOrder(t, conn, uuid.New(), FormatOrderNumber("SO", 2026, 1), enums.OrderStatusPending, time.Now())

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-000002", created.OrderNumber)
}

func TestServiceTenantScoping(t *testing.T) {
	svc, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), created.ID)
	require.Error(t, err, "foreign salon must not see the order")

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	found, err := svc.Get(ctx, created.SalonID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestServiceTransitionStatus(t *testing.T) {
	svc, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)

	t.Run("marks paid and settles payment status", func(t *testing.T) {
		paid, err := svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusPaid, paid.Status)
		assert.Equal(t, enums.PaymentStatusSucceeded, paid.PaymentStatus)
		assert.NotNil(t, paid.PaidAt)
	})

	t.Run("same-status transition is a no-op", func(t *testing.T) {
		again, err := svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusPaid, again.Status)
	})

	t.Run("backward transition is a state conflict", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusPending)
		require.Error(t, err)

		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	})
}

func TestServiceCancel(t *testing.T) {
	svc, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, created.SalonID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	t.Run("cancelled order cannot be cancelled again into fulfillment", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusShipped)
		require.Error(t, err)
	})
}

func TestServiceCancelAfterShipment(t *testing.T) {
	svc, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusShipped)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, created.SalonID, created.ID)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestServiceRefund(t *testing.T) {
	svc, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
	require.NoError(t, err)

	t.Run("unpaid order cannot be refunded", func(t *testing.T) {
		_, err := svc.Refund(ctx, created.SalonID, created.ID)
		require.Error(t, err)
	})

	t.Run("paid order refunds from any non-refunded status", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusPaid)
		require.NoError(t, err)
		_, err = svc.TransitionStatus(ctx, created.SalonID, created.ID, enums.OrderStatusDelivered)
		require.NoError(t, err)

		refunded, err := svc.Refund(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusRefunded, refunded.Status)
		assert.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
		assert.NotNil(t, refunded.RefundedAt)
	})

	t.Run("double refund is rejected", func(t *testing.T) {
		_, err := svc.Refund(ctx, created.SalonID, created.ID)
		require.Error(t, err)
	})
}

func TestServiceMarkPaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order advances to paid", func(t *testing.T) {
		svc, _ := newTestOrderService(t, nil)
		created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)

		paid, err := svc.MarkPaymentSucceeded(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusPaid, paid.Status)
		assert.Equal(t, enums.PaymentStatusSucceeded, paid.PaymentStatus)
	})

	t.Run("pay-at-venue order keeps processing status", func(t *testing.T) {
		svc, _ := newTestOrderService(t, nil)
		input := baseCreateInput(productItemInput(1, 2500))
		input.PaymentMethod = enums.PaymentMethodPayAtVenue
		created, err := svc.Create(ctx, input)
		require.NoError(t, err)
		require.Equal(t, enums.OrderStatusProcessing, created.Status)

		settled, err := svc.MarkPaymentSucceeded(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusProcessing, settled.Status)
		assert.Equal(t, enums.PaymentStatusSucceeded, settled.PaymentStatus)
	})

	t.Run("repeat settlement is idempotent", func(t *testing.T) {
		svc, _ := newTestOrderService(t, nil)
		created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)

		_, err = svc.MarkPaymentSucceeded(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		again, err := svc.MarkPaymentSucceeded(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentStatusSucceeded, again.PaymentStatus)
	})
}

func TestServiceApplyVoucher(t *testing.T) {
	ctx := context.Background()
	voucherID := uuid.New()

	t.Run("valid voucher attaches and reprices", func(t *testing.T) {
		svc, _ := newTestOrderService(t, &stubVoucherValidator{outcome: vouchers.Outcome{
			Valid:        true,
			VoucherID:    &voucherID,
			Code:         "GS-GOOD-AAAA",
			BalanceCents: 1000,
		}})

		created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)

		applied, err := svc.ApplyVoucher(ctx, created.SalonID, created.ID, "GS-GOOD-AAAA")
		require.NoError(t, err)
		assert.Equal(t, 1000, applied.VoucherDiscountCents)
		assert.Equal(t, created.TotalCents-1000, applied.TotalCents)

		reloaded, err := svc.Get(ctx, created.SalonID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, applied.TotalCents, reloaded.TotalCents)
	})

	t.Run("invalid voucher surfaces the reason", func(t *testing.T) {
		svc, _ := newTestOrderService(t, &stubVoucherValidator{outcome: vouchers.Outcome{
			InvalidReason: "voucher has expired",
		}})

		created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)

		_, err = svc.ApplyVoucher(ctx, created.SalonID, created.ID, "GS-EXPD-BBBB")
		require.Error(t, err)

		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		assert.Contains(t, appErr.Error(), "voucher has expired")
	})

	t.Run("validator failure propagates", func(t *testing.T) {
		svc, _ := newTestOrderService(t, &stubVoucherValidator{err: fmt.Errorf("db down")})

		created, err := svc.Create(ctx, baseCreateInput(productItemInput(1, 2500)))
		require.NoError(t, err)

		_, err = svc.ApplyVoucher(ctx, created.SalonID, created.ID, "GS-GOOD-AAAA")
		require.Error(t, err)
	})
}
