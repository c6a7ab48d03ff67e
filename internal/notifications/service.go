package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

const sendTimeout = 30 * time.Second

// Service fans order events out to the configured channels. Dispatch is
// fire-and-forget: the caller's request never waits on a provider, and a
// failed send only produces a log line.
type Service struct {
	email EmailSender
	logg  *logger.Logger
	wg    sync.WaitGroup
}

// NewService builds the notification dispatcher.
func NewService(email EmailSender, logg *logger.Logger) (*Service, error) {
	if email == nil {
		return nil, fmt.Errorf("email sender required")
	}
	return &Service{email: email, logg: logg}, nil
}

// NotifyOrderCreated queues the confirmation mail plus one delivery mail per
// minted voucher.
func (s *Service) NotifyOrderCreated(ctx context.Context, order *models.Order, vouchers []models.Voucher) {
	event := OrderEvent{Order: order, Vouchers: vouchers}
	s.dispatch(ctx, order, func(ctx context.Context) error {
		err := s.email.SendOrderConfirmation(ctx, event)
		for _, voucher := range vouchers {
			err = multierr.Append(err, s.email.SendVoucherDelivery(ctx, voucher))
		}
		return err
	})
}

// NotifyOrderShipped queues the shipping notice.
func (s *Service) NotifyOrderShipped(ctx context.Context, order *models.Order) {
	s.dispatch(ctx, order, func(ctx context.Context) error {
		return s.email.SendOrderShipped(ctx, OrderEvent{Order: order})
	})
}

// NotifyOrderCancelled queues the cancellation notice.
func (s *Service) NotifyOrderCancelled(ctx context.Context, order *models.Order) {
	s.dispatch(ctx, order, func(ctx context.Context) error {
		return s.email.SendOrderCancelled(ctx, OrderEvent{Order: order})
	})
}

// NotifyRefundIssued queues the refund notice.
func (s *Service) NotifyRefundIssued(ctx context.Context, order *models.Order) {
	s.dispatch(ctx, order, func(ctx context.Context) error {
		return s.email.SendRefundIssued(ctx, OrderEvent{Order: order})
	})
}

func (s *Service) dispatch(ctx context.Context, order *models.Order, send func(context.Context) error) {
	if order == nil {
		return
	}

	// Detach from the request context so an early response does not cancel
	// the send; logger fields survive the detach.
	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		sendCtx, cancel := context.WithTimeout(detached, sendTimeout)
		defer cancel()

		if err := send(sendCtx); err != nil && s.logg != nil {
			logCtx := s.logg.WithOrderID(sendCtx, order.ID.String())
			s.logg.Error(logCtx, "notification delivery failed", err)
		}
	}()
}

// Wait blocks until all queued sends are done. Used by shutdown and tests.
func (s *Service) Wait() {
	s.wg.Wait()
}
