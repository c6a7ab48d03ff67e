package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a purchasable gift voucher. Each sold voucher item mints a
// distinct record with its own code, even when parameters are identical.
type Voucher struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalonID uuid.UUID `gorm:"column:salon_id;type:uuid;not null"`
	Code    string    `gorm:"column:code;uniqueIndex;not null"`

	InitialValueCents int `gorm:"column:initial_value_cents;not null"`
	BalanceCents      int `gorm:"column:balance_cents;not null"`

	RecipientEmail  string `gorm:"column:recipient_email;not null"`
	RecipientName   string `gorm:"column:recipient_name"`
	PersonalMessage string `gorm:"column:personal_message"`

	// PurchaseOrderID links back to the order that sold this voucher.
	PurchaseOrderID *uuid.UUID `gorm:"column:purchase_order_id;type:uuid"`

	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	RedeemedAt *time.Time `gorm:"column:redeemed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
