package vouchers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
)

// Outcome reports the result of a voucher check. Invalid vouchers are a
// business outcome, not an error.
type Outcome struct {
	Valid         bool       `json:"valid"`
	VoucherID     *uuid.UUID `json:"voucherId,omitempty"`
	Code          string     `json:"code,omitempty"`
	BalanceCents  int        `json:"balanceCents"`
	InvalidReason string     `json:"invalidReason,omitempty"`
}

// Validator checks whether a voucher code can cover part of a payment.
type Validator interface {
	Validate(ctx context.Context, salonID uuid.UUID, code string) (Outcome, error)
}

type repoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator builds a validator backed by the voucher repository.
func NewValidator(repo Repository) Validator {
	return &repoValidator{repo: repo, now: time.Now}
}

func (v *repoValidator) Validate(ctx context.Context, salonID uuid.UUID, code string) (Outcome, error) {
	if salonID == uuid.Nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "salon id is required")
	}
	if code == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required")
	}

	voucher, err := v.repo.FindByCode(ctx, salonID, code)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return Outcome{InvalidReason: "voucher not found"}, nil
		}
		return Outcome{}, err
	}

	return outcomeFor(voucher, v.now()), nil
}

func outcomeFor(voucher *models.Voucher, now time.Time) Outcome {
	if voucher.ExpiresAt != nil && now.After(*voucher.ExpiresAt) {
		return Outcome{Code: voucher.Code, InvalidReason: "voucher has expired"}
	}
	if voucher.BalanceCents <= 0 {
		return Outcome{Code: voucher.Code, InvalidReason: "voucher has no remaining balance"}
	}
	id := voucher.ID
	return Outcome{
		Valid:        true,
		VoucherID:    &id,
		Code:         voucher.Code,
		BalanceCents: voucher.BalanceCents,
	}
}
