package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mbruegger/salora-backend/internal/vouchers"
	"github.com/mbruegger/salora-backend/pkg/db"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/metrics"
	"github.com/mbruegger/salora-backend/pkg/pagination"
)

const maxNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle: creation, status transitions,
// cancellation, refunds and voucher application.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, salonID uuid.UUID, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
	TransitionStatus(ctx context.Context, salonID, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentSucceeded(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentFailed(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	ApplyVoucher(ctx context.Context, salonID, orderID uuid.UUID, code string) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	numbers  NumberAllocator
	vouchers vouchers.Validator
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, numbers NumberAllocator, voucherValidator vouchers.Validator, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("order number allocator required")
	}
	if voucherValidator == nil {
		return nil, fmt.Errorf("voucher validator required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		numbers:  numbers,
		vouchers: voucherValidator,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Create validates the payload, prices the order and persists it together
// with its item snapshots. Order number collisions are retried with a fresh
// number.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if result := ValidateInput(input); !result.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order input is invalid").
			WithDetails(map[string]any{"errors": result.Errors})
	}

	// A duplicate order number aborts the whole transaction, so each
	// attempt runs in its own.
	var created *models.Order
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			number, err := s.numbers.Next(ctx, tx)
			if err != nil {
				return err
			}

			order := BuildOrder(input, number, s.now())
			persisted, err := s.repo.WithTx(tx).Create(ctx, &order)
			if err != nil {
				return err
			}
			created = persisted
			return nil
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "could not allocate a unique order number")
	}

	s.metrics.IncCreated(created.PaymentMethod.String())
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, created.ID.String())
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_number": created.OrderNumber,
			"total_cents":  created.TotalCents,
		})
		s.logg.Info(ctx, "order created")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, salonID, orderID)
}

func (s *service) GetByNumber(ctx context.Context, salonID uuid.UUID, orderNumber string) (*models.Order, error) {
	if salonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salon id is required")
	}
	if strings.TrimSpace(orderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	return s.repo.FindByNumber(ctx, salonID, orderNumber)
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter")
	}
	return s.repo.List(ctx, filter, params)
}

// TransitionStatus applies the lifecycle table and persists the winner of
// any concurrent race.
func (s *service) TransitionStatus(ctx context.Context, salonID, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	next, err := ApplyTransition(*order, to, s.now())
	if err != nil {
		return nil, err
	}
	if next.Status == from {
		return order, nil
	}
	if to == enums.OrderStatusPaid {
		next.PaymentStatus = enums.PaymentStatusSucceeded
	}

	if err := s.repo.UpdateStatus(ctx, &next, from); err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), to.String())
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, next.ID.String())
		ctx = s.logg.WithFields(ctx, map[string]any{"from": from.String(), "to": to.String()})
		s.logg.Info(ctx, "order status transitioned")
	}
	return &next, nil
}

// Cancel calls off an order that has not entered fulfillment.
func (s *service) Cancel(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanCancel(order) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s can no longer be cancelled", order.Status),
		)
	}
	return s.TransitionStatus(ctx, salonID, orderID, enums.OrderStatusCancelled)
}

// Refund moves a settled order to its refunded terminal state.
func (s *service) Refund(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	next, err := ApplyRefund(*order, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, &next, from); err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), enums.OrderStatusRefunded.String())
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, next.ID.String())
		s.logg.Info(ctx, "order refunded")
	}
	return &next, nil
}

// MarkPaymentSucceeded records a settled payment. Pending orders advance to
// paid; pay-at-venue orders already in processing keep their status and only
// the payment flag moves.
func (s *service) MarkPaymentSucceeded(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusSucceeded {
		return order, nil
	}

	if order.Status == enums.OrderStatusPending {
		return s.TransitionStatus(ctx, salonID, orderID, enums.OrderStatusPaid)
	}

	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusSucceeded); err != nil {
		return nil, err
	}
	order.PaymentStatus = enums.PaymentStatusSucceeded
	return order, nil
}

func (s *service) MarkPaymentFailed(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusFailed {
		return order, nil
	}
	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusFailed); err != nil {
		return nil, err
	}
	order.PaymentStatus = enums.PaymentStatusFailed
	return order, nil
}

// ApplyVoucher validates the code via the voucher subsystem and attaches
// the resulting discount. The balance is deducted later, when payment
// settles, not at application time.
func (s *service) ApplyVoucher(ctx context.Context, salonID, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.load(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.vouchers.Validate(ctx, salonID, code)
	if err != nil {
		return nil, err
	}
	if !outcome.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, outcome.InvalidReason)
	}

	next, err := ApplyVoucher(*order, VoucherApplication{
		VoucherID:     *outcome.VoucherID,
		VoucherCode:   outcome.Code,
		DiscountCents: outcome.BalanceCents,
	})
	if err != nil {
		return nil, err
	}
	if next.VoucherDiscountCents == order.VoucherDiscountCents && order.VoucherID != nil {
		return order, nil
	}

	if err := s.repo.AttachVoucher(ctx, &next); err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, next.ID.String())
		ctx = s.logg.WithField(ctx, "voucher_discount_cents", next.VoucherDiscountCents)
		s.logg.Info(ctx, "voucher applied to order")
	}
	return &next, nil
}

func (s *service) load(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	if salonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salon id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SalonID != salonID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
