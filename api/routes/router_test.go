package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/internal/cart"
	checkoutsvc "github.com/mbruegger/salora-backend/internal/checkout"
	internalorders "github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/pkg/config"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCartService struct{}

func (stubCartService) CreateCart(_ context.Context, salonID uuid.UUID) (cart.Cart, error) {
	return cart.Cart{ID: uuid.New(), SalonID: salonID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubCartService) GetCart(context.Context, uuid.UUID) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) AddItem(context.Context, uuid.UUID, cart.AddItemInput) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) UpdateItem(context.Context, uuid.UUID, uuid.UUID, int) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) ClearCart(context.Context, uuid.UUID) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) ApplyDiscount(context.Context, uuid.UUID, cart.Discount) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) RemoveDiscount(context.Context, uuid.UUID, string) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) SetShippingMethod(context.Context, uuid.UUID, enums.ShippingMethod) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (stubCartService) DeleteCart(context.Context, uuid.UUID) error { return nil }

type stubOrderService struct{}

func (stubOrderService) Create(context.Context, internalorders.CreateInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) Get(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, SalonID: salonID}, nil
}

func (stubOrderService) GetByNumber(context.Context, uuid.UUID, string) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) List(context.Context, internalorders.ListFilter, pagination.Params) (*internalorders.Page, error) {
	return &internalorders.Page{}, nil
}

func (stubOrderService) TransitionStatus(context.Context, uuid.UUID, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) Cancel(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) Refund(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) MarkPaymentSucceeded(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) MarkPaymentFailed(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) ApplyVoucher(context.Context, uuid.UUID, uuid.UUID, string) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubVoucherService struct{}

func (stubVoucherService) IssueForOrder(context.Context, *models.Order) ([]models.Voucher, error) {
	return nil, nil
}

func (stubVoucherService) Redeem(context.Context, uuid.UUID, int) error { return nil }

func (stubVoucherService) GetByCode(context.Context, uuid.UUID, string) (*models.Voucher, error) {
	return &models.Voucher{}, nil
}

func (stubVoucherService) ListForOrder(context.Context, uuid.UUID) ([]models.Voucher, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	checkoutService, err := checkoutsvc.NewService(stubCartService{}, stubOrderService{}, nil, stubVoucherService{}, nil, logg)
	if err != nil {
		t.Fatalf("construct checkout service: %v", err)
	}
	return NewRouter(
		&config.Config{App: config.AppConfig{Env: "test"}},
		logg,
		stubPinger{},
		stubPinger{},
		nil,
		stubCartService{},
		checkoutService,
		stubOrderService{},
		stubVoucherService{},
	)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterRequiresSalonHeader(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without salon header, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil)
	req.Header.Set("X-Salon-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 with salon header, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterAdminRoutesWired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("X-Salon-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+uuid.NewString()+"/cancel", nil)
	req.Header.Set("X-Salon-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterRejectsUnknownCheckoutFields(t *testing.T) {
	router := newTestRouter(t)

	body := `{"cartId":"` + uuid.NewString() + `","customerName":"A","customerEmail":"a@b.ch","paymentMethod":"card","bogus":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("X-Salon-Id", uuid.NewString())
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
