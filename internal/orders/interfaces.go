package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	"github.com/mbruegger/salora-backend/pkg/pagination"
)

// ListFilter narrows admin order listings. SalonID is mandatory; listings
// never cross tenants.
type ListFilter struct {
	SalonID       uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// Repository persists order aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, salonID uuid.UUID, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
	// UpdateStatus persists a transition with a guard on the expected
	// current status, so exactly one of two concurrent updates wins.
	UpdateStatus(ctx context.Context, order *models.Order, expected enums.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	AttachVoucher(ctx context.Context, order *models.Order) error
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}
