package notifications

import (
	"context"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

// LogSender writes notifications to the log instead of delivering them.
// Used in development and wherever no mail provider is configured.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds the log-backed sender.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) log(ctx context.Context, kind, recipient string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"notification": kind,
		"recipient":    recipient,
	})
	s.logg.Info(ctx, "notification logged")
}

func (s *LogSender) SendOrderConfirmation(ctx context.Context, event OrderEvent) error {
	s.log(ctx, "order_confirmation", event.Order.CustomerEmail)
	return nil
}

func (s *LogSender) SendVoucherDelivery(ctx context.Context, voucher models.Voucher) error {
	s.log(ctx, "voucher_delivery", voucher.RecipientEmail)
	return nil
}

func (s *LogSender) SendOrderShipped(ctx context.Context, event OrderEvent) error {
	s.log(ctx, "order_shipped", event.Order.CustomerEmail)
	return nil
}

func (s *LogSender) SendOrderCancelled(ctx context.Context, event OrderEvent) error {
	s.log(ctx, "order_cancelled", event.Order.CustomerEmail)
	return nil
}

func (s *LogSender) SendRefundIssued(ctx context.Context, event OrderEvent) error {
	s.log(ctx, "refund_issued", event.Order.CustomerEmail)
	return nil
}
