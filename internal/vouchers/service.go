package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mbruegger/salora-backend/pkg/db"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/metrics"
)

// voucherValidity follows the house policy of five years from purchase.
const voucherValidity = 5 * 365 * 24 * time.Hour

const maxCodeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service mints vouchers for paid orders and redeems balances against new
// payments.
type Service interface {
	IssueForOrder(ctx context.Context, order *models.Order) ([]models.Voucher, error)
	Redeem(ctx context.Context, voucherID uuid.UUID, amountCents int) error
	GetByCode(ctx context.Context, salonID uuid.UUID, code string) (*models.Voucher, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Voucher, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewService builds the voucher service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// IssueForOrder mints one voucher per voucher line on the order. Each line
// gets its own code even when parameters are identical. Safe to re-invoke:
// already-minted vouchers for the order are returned as-is.
func (s *service) IssueForOrder(ctx context.Context, order *models.Order) ([]models.Voucher, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	existing, err := s.repo.FindByPurchaseOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	var minted []models.Voucher
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, item := range order.Items {
			if item.Type != enums.CartItemTypeVoucher {
				continue
			}
			if item.VoucherValueCents == nil || *item.VoucherValueCents <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "voucher line is missing its value")
			}

			voucher, err := s.mintVoucher(ctx, repo, order, item)
			if err != nil {
				return err
			}
			minted = append(minted, *voucher)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil && len(minted) > 0 {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		ctx = s.logg.WithField(ctx, "count", len(minted))
		s.logg.Info(ctx, "vouchers issued")
	}
	return minted, nil
}

func (s *service) mintVoucher(ctx context.Context, repo Repository, order *models.Order, item models.OrderItem) (*models.Voucher, error) {
	expiresAt := s.now().Add(voucherValidity)
	orderID := order.ID

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		voucher := &models.Voucher{
			ID:                uuid.New(),
			SalonID:           order.SalonID,
			Code:              code,
			InitialValueCents: *item.VoucherValueCents,
			BalanceCents:      *item.VoucherValueCents,
			RecipientEmail:    derefString(item.RecipientEmail),
			RecipientName:     derefString(item.RecipientName),
			PersonalMessage:   derefString(item.PersonalMessage),
			PurchaseOrderID:   &orderID,
			ExpiresAt:         &expiresAt,
		}

		created, err := repo.Create(ctx, voucher)
		if err != nil {
			if db.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return created, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique voucher code")
}

// Redeem deducts the applied amount from the voucher balance.
func (s *service) Redeem(ctx context.Context, voucherID uuid.UUID, amountCents int) error {
	if voucherID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "voucher id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeductBalance(ctx, voucherID, amountCents)
	})
	if err != nil {
		return err
	}

	s.metrics.IncRedemption()
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"voucher_id":   voucherID.String(),
			"amount_cents": amountCents,
		})
		s.logg.Info(ctx, "voucher redeemed")
	}
	return nil
}

func (s *service) GetByCode(ctx context.Context, salonID uuid.UUID, code string) (*models.Voucher, error) {
	if salonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salon id is required")
	}
	return s.repo.FindByCode(ctx, salonID, code)
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Voucher, error) {
	return s.repo.FindByPurchaseOrder(ctx, orderID)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
