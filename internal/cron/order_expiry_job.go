package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

const (
	defaultPendingOrderTTL = 10 * 24 * time.Hour
	defaultExpiryBatchSize = 100
)

// staleOrderStore is the slice of the order repository the expiry job needs.
type staleOrderStore interface {
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order, expected enums.OrderStatus) error
}

// cancellationNotifier delivers cancellation mails for expired orders.
type cancellationNotifier interface {
	NotifyOrderCancelled(ctx context.Context, order *models.Order)
}

// OrderExpiryJobParams configure the pending order expiry job.
type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    staleOrderStore
	Notifier  cancellationNotifier
	TTL       time.Duration
	BatchSize int
}

// NewOrderExpiryJob builds the cron job that cancels pending orders whose
// payment never arrived.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatchSize
	}
	return &orderExpiryJob{
		logg:     params.Logger,
		orders:   params.Orders,
		notifier: params.Notifier,
		ttl:      ttl,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg     *logger.Logger
	orders   staleOrderStore
	notifier cancellationNotifier
	ttl      time.Duration
	batch    int
	now      func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

// Run cancels one batch of stale pending orders per cycle. A batch that is
// larger than the backlog drains it; otherwise the next cycle continues.
func (j *orderExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.ttl)
	stale, err := j.orders.FindStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order, now); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"found":     len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return errs
}

func (j *orderExpiryJob) expireOrder(ctx context.Context, order models.Order, now time.Time) error {
	next, err := orders.ApplyTransition(order, enums.OrderStatusCancelled, now)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", order.OrderNumber, err)
	}
	if err := j.orders.UpdateStatus(ctx, &next, enums.OrderStatusPending); err != nil {
		// Losing the status race means someone paid or cancelled in the
		// meantime; the order is no longer stale.
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeStateConflict {
			return nil
		}
		return fmt.Errorf("cancel order %s: %w", order.OrderNumber, err)
	}
	if j.notifier != nil {
		j.notifier.NotifyOrderCancelled(ctx, &next)
	}
	return nil
}
