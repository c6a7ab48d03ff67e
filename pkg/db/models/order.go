package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/pkg/enums"
	"github.com/mbruegger/salora-backend/pkg/types"
)

// Order is the immutable-header aggregate created once at checkout submission.
// After creation it changes only through the status transition and voucher
// application functions; it is never deleted.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalonID     uuid.UUID `gorm:"column:salon_id;type:uuid;not null"`
	OrderNumber string    `gorm:"column:order_number;uniqueIndex;not null"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerEmail string `gorm:"column:customer_email;not null"`
	CustomerPhone string `gorm:"column:customer_phone"`

	SubtotalCents        int `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents        int `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents        int `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents             int `gorm:"column:tax_cents;not null;default:0"`
	VoucherDiscountCents int `gorm:"column:voucher_discount_cents;not null;default:0"`
	TotalCents           int `gorm:"column:total_cents;not null;default:0"`

	VoucherID   *uuid.UUID `gorm:"column:voucher_id;type:uuid"`
	VoucherCode *string    `gorm:"column:voucher_code"`

	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;not null;default:'none'"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	Currency enums.Currency `gorm:"column:currency;not null;default:'CHF'"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	RefundedAt  *time.Time `gorm:"column:refunded_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
