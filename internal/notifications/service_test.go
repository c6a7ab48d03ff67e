package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbruegger/salora-backend/pkg/db/models"
)

type recordingSender struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (r *recordingSender) record(kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, kind)
	if r.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (r *recordingSender) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingSender) SendOrderConfirmation(context.Context, OrderEvent) error {
	return r.record("confirmation")
}

func (r *recordingSender) SendVoucherDelivery(context.Context, models.Voucher) error {
	return r.record("voucher")
}

func (r *recordingSender) SendOrderShipped(context.Context, OrderEvent) error {
	return r.record("shipped")
}

func (r *recordingSender) SendOrderCancelled(context.Context, OrderEvent) error {
	return r.record("cancelled")
}

func (r *recordingSender) SendRefundIssued(context.Context, OrderEvent) error {
	return r.record("refund")
}

func testOrder() *models.Order {
	return &models.Order{ID: uuid.New(), CustomerEmail: "anna@example.ch"}
}

func TestNotifyOrderCreatedFansOut(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender, nil)
	require.NoError(t, err)

	vouchers := []models.Voucher{
		{ID: uuid.New(), RecipientEmail: "a@example.ch"},
		{ID: uuid.New(), RecipientEmail: "b@example.ch"},
	}
	svc.NotifyOrderCreated(context.Background(), testOrder(), vouchers)
	svc.Wait()

	calls := sender.recorded()
	assert.Len(t, calls, 3)
	assert.Contains(t, calls, "confirmation")
	assert.Equal(t, 2, countOf(calls, "voucher"))
}

func TestNotifyNeverFailsTheCaller(t *testing.T) {
	sender := &recordingSender{fail: true}
	svc, err := NewService(sender, nil)
	require.NoError(t, err)

	// A failing provider must not panic or propagate.
	svc.NotifyOrderShipped(context.Background(), testOrder())
	svc.NotifyOrderCancelled(context.Background(), testOrder())
	svc.NotifyRefundIssued(context.Background(), testOrder())
	svc.Wait()

	assert.Len(t, sender.recorded(), 3)
}

func TestNotifySurvivesCancelledRequestContext(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.NotifyOrderShipped(ctx, testOrder())
	svc.Wait()

	assert.Len(t, sender.recorded(), 1)
}

func TestNotifyNilOrderIsIgnored(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender, nil)
	require.NoError(t, err)

	svc.NotifyOrderShipped(context.Background(), nil)
	svc.Wait()

	assert.Empty(t, sender.recorded())
}

func countOf(values []string, needle string) int {
	count := 0
	for _, v := range values {
		if v == needle {
			count++
		}
	}
	return count
}
