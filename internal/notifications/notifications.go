package notifications

import (
	"context"

	"github.com/mbruegger/salora-backend/pkg/db/models"
)

// OrderEvent carries everything a channel needs to render a customer
// message. Senders must not reach back into storage.
type OrderEvent struct {
	Order    *models.Order
	Vouchers []models.Voucher
}

// EmailSender delivers customer emails. Implementations wrap the actual
// provider; failures are logged, never surfaced to the request path.
type EmailSender interface {
	SendOrderConfirmation(ctx context.Context, event OrderEvent) error
	SendVoucherDelivery(ctx context.Context, voucher models.Voucher) error
	SendOrderShipped(ctx context.Context, event OrderEvent) error
	SendOrderCancelled(ctx context.Context, event OrderEvent) error
	SendRefundIssued(ctx context.Context, event OrderEvent) error
}
