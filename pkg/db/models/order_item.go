package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mbruegger/salora-backend/pkg/enums"
)

// OrderItem is the snapshot of a cart line at order-creation time. Catalog
// price changes must never retroactively affect a placed order, so all
// pricing fields are copied, not referenced.
type OrderItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null"`

	Type      enums.CartItemType `gorm:"column:type;not null"`
	ProductID *uuid.UUID         `gorm:"column:product_id;type:uuid"`
	VariantID *uuid.UUID         `gorm:"column:variant_id;type:uuid"`
	Name      string             `gorm:"column:name;not null"`

	Quantity       int `gorm:"column:quantity;not null"`
	UnitPriceCents int `gorm:"column:unit_price_cents;not null"`
	DiscountCents  int `gorm:"column:discount_cents;not null;default:0"`
	TotalCents     int `gorm:"column:total_cents;not null"`

	// TaxRate is a fraction (0.081 for 8.1%), never a whole-number percent.
	TaxRate  decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0.081"`
	TaxCents int             `gorm:"column:tax_cents;not null;default:0"`

	// Voucher purchase fields; set only when Type is voucher.
	VoucherValueCents *int    `gorm:"column:voucher_value_cents"`
	RecipientEmail    *string `gorm:"column:recipient_email"`
	RecipientName     *string `gorm:"column:recipient_name"`
	PersonalMessage   *string `gorm:"column:personal_message"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
