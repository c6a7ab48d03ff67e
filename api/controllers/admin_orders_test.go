package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/api/middleware"
	internalorders "github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/pagination"
)

type stubOrderService struct {
	listFn       func(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.Page, error)
	getFn        func(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	transitionFn func(ctx context.Context, salonID, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	cancelFn     func(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	voucherFn    func(ctx context.Context, salonID, orderID uuid.UUID, code string) (*models.Order, error)
}

func (s stubOrderService) Create(context.Context, internalorders.CreateInput) (*models.Order, error) {
	return nil, nil
}

func (s stubOrderService) Get(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, salonID, orderID)
	}
	return &models.Order{ID: orderID, SalonID: salonID}, nil
}

func (s stubOrderService) GetByNumber(context.Context, uuid.UUID, string) (*models.Order, error) {
	return nil, nil
}

func (s stubOrderService) List(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.Page, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter, params)
	}
	return &internalorders.Page{}, nil
}

func (s stubOrderService) TransitionStatus(ctx context.Context, salonID, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, salonID, orderID, to)
	}
	return &models.Order{ID: orderID, SalonID: salonID, Status: to}, nil
}

func (s stubOrderService) Cancel(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, salonID, orderID)
	}
	return &models.Order{ID: orderID, SalonID: salonID, Status: enums.OrderStatusCancelled}, nil
}

func (s stubOrderService) Refund(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, SalonID: salonID, Status: enums.OrderStatusRefunded}, nil
}

func (s stubOrderService) MarkPaymentSucceeded(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s stubOrderService) MarkPaymentFailed(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s stubOrderService) ApplyVoucher(ctx context.Context, salonID, orderID uuid.UUID, code string) (*models.Order, error) {
	if s.voucherFn != nil {
		return s.voucherFn(ctx, salonID, orderID, code)
	}
	return &models.Order{ID: orderID, SalonID: salonID}, nil
}

func adminRequest(t *testing.T, salonID uuid.UUID, method, target string, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithSalonID(req.Context(), salonID))
}

func adminOrderRouter(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders", AdminOrderList(svc, nil))
	r.Get("/orders/{orderId}", AdminOrderDetail(svc, nil))
	r.Post("/orders/{orderId}/transition", AdminOrderTransition(svc, nil))
	r.Post("/orders/{orderId}/cancel", AdminOrderCancel(svc, nil))
	r.Post("/orders/{orderId}/voucher", AdminOrderApplyVoucher(svc, nil))
	return r
}

func TestAdminOrderListPassesFilters(t *testing.T) {
	salonID := uuid.New()
	svc := stubOrderService{
		listFn: func(_ context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.Page, error) {
			if filter.SalonID != salonID {
				t.Fatalf("unexpected salon %s", filter.SalonID)
			}
			if filter.Status == nil || *filter.Status != enums.OrderStatusPaid {
				t.Fatalf("unexpected status filter %v", filter.Status)
			}
			if params.Limit != 5 || params.Cursor != "abc" {
				t.Fatalf("unexpected pagination %+v", params)
			}
			return &internalorders.Page{NextCursor: "next"}, nil
		},
	}

	resp := httptest.NewRecorder()
	adminOrderRouter(svc).ServeHTTP(resp, adminRequest(t, salonID, http.MethodGet, "/orders?status=paid&limit=5&cursor=abc", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data internalorders.Page `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	adminOrderRouter(stubOrderService{}).ServeHTTP(resp, adminRequest(t, uuid.New(), http.MethodGet, "/orders?status=bogus", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderDetailParsesOrderID(t *testing.T) {
	salonID := uuid.New()
	orderID := uuid.New()

	resp := httptest.NewRecorder()
	adminOrderRouter(stubOrderService{}).ServeHTTP(resp, adminRequest(t, salonID, http.MethodGet, "/orders/"+orderID.String(), ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	adminOrderRouter(stubOrderService{}).ServeHTTP(resp, adminRequest(t, salonID, http.MethodGet, "/orders/not-a-uuid", ""))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.Code)
	}
}

func TestAdminOrderTransition(t *testing.T) {
	salonID := uuid.New()
	orderID := uuid.New()
	svc := stubOrderService{
		transitionFn: func(_ context.Context, gotSalon, gotOrder uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
			if gotSalon != salonID || gotOrder != orderID {
				t.Fatalf("unexpected identifiers %s %s", gotSalon, gotOrder)
			}
			if to != enums.OrderStatusShipped {
				t.Fatalf("unexpected target status %s", to)
			}
			return &models.Order{ID: orderID, Status: to}, nil
		},
	}

	resp := httptest.NewRecorder()
	adminOrderRouter(svc).ServeHTTP(resp, adminRequest(t, salonID, http.MethodPost,
		"/orders/"+orderID.String()+"/transition", `{"status":"shipped"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminOrderTransitionConflictMapsTo422(t *testing.T) {
	svc := stubOrderService{
		transitionFn: func(context.Context, uuid.UUID, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot transition order from delivered to paid")
		},
	}

	resp := httptest.NewRecorder()
	adminOrderRouter(svc).ServeHTTP(resp, adminRequest(t, uuid.New(), http.MethodPost,
		"/orders/"+uuid.NewString()+"/transition", `{"status":"paid"}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminOrderApplyVoucher(t *testing.T) {
	svc := stubOrderService{
		voucherFn: func(_ context.Context, _, orderID uuid.UUID, code string) (*models.Order, error) {
			if code != "GS-ABCD-2345" {
				t.Fatalf("unexpected code %s", code)
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	resp := httptest.NewRecorder()
	adminOrderRouter(svc).ServeHTTP(resp, adminRequest(t, uuid.New(), http.MethodPost,
		"/orders/"+uuid.NewString()+"/voucher", `{"code":"GS-ABCD-2345"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
