package vouchers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

// Repository persists gift vouchers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindByCode(ctx context.Context, salonID uuid.UUID, code string) (*models.Voucher, error)
	FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]models.Voucher, error)
	DeductBalance(ctx context.Context, id uuid.UUID, amountCents int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a voucher repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) FindByCode(ctx context.Context, salonID uuid.UUID, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("salon_id = ? AND code = ?", salonID, strings.ToUpper(strings.TrimSpace(code))).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]models.Voucher, error) {
	var list []models.Voucher
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DeductBalance decrements the remaining balance with a guard against
// concurrent redemptions overdrawing the voucher. A zero remaining balance
// marks the voucher redeemed.
func (r *repository) DeductBalance(ctx context.Context, id uuid.UUID, amountCents int) error {
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "deduction amount must be positive")
	}

	result := r.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("id = ? AND balance_cents >= ?", id, amountCents).
		Updates(map[string]any{
			"balance_cents": gorm.Expr("balance_cents - ?", amountCents),
			"redeemed_at": gorm.Expr(
				"CASE WHEN balance_cents - ? = 0 THEN CURRENT_TIMESTAMP ELSE redeemed_at END", amountCents,
			),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "voucher balance insufficient")
	}
	return nil
}
