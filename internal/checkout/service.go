package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/internal/cart"
	"github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/pkg/db/models"
	"github.com/mbruegger/salora-backend/pkg/enums"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/stripepay"
	"github.com/mbruegger/salora-backend/pkg/types"
)

type cartLoader interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (cart.Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

type orderService interface {
	Create(ctx context.Context, input orders.CreateInput) (*models.Order, error)
	Get(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentSucceeded(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentFailed(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error)
}

type sessionCreator interface {
	CreateCheckoutSession(ctx context.Context, input stripepay.SessionInput) (*stripepay.Session, error)
}

type voucherIssuer interface {
	IssueForOrder(ctx context.Context, order *models.Order) ([]models.Voucher, error)
	Redeem(ctx context.Context, voucherID uuid.UUID, amountCents int) error
}

type notifier interface {
	NotifyOrderCreated(ctx context.Context, order *models.Order, vouchers []models.Voucher)
}

// SubmitInput is the checkout form handed in with the cart.
type SubmitInput struct {
	CartID  uuid.UUID
	SalonID uuid.UUID

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ShippingMethod  enums.ShippingMethod
	ShippingAddress *types.Address
	PaymentMethod   enums.PaymentMethod
}

// Result is the checkout outcome. PaymentURL is set only when an online
// payment session was opened.
type Result struct {
	Order      *models.Order `json:"order"`
	SessionID  string        `json:"sessionId,omitempty"`
	PaymentURL string        `json:"paymentUrl,omitempty"`
}

// Service turns a session cart into a persisted order and, for online
// payment methods, opens the hosted payment session.
type Service struct {
	carts    cartLoader
	orders   orderService
	sessions sessionCreator
	vouchers voucherIssuer
	notify   notifier
	logg     *logger.Logger
}

// NewService builds the checkout orchestrator. The session creator may be
// nil when online payments are not configured; submitting a card order then
// fails with a dependency error.
func NewService(carts cartLoader, orderSvc orderService, sessions sessionCreator, vouchers voucherIssuer, notify notifier, logg *logger.Logger) (*Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if vouchers == nil {
		return nil, fmt.Errorf("voucher service required")
	}
	return &Service{
		carts:    carts,
		orders:   orderSvc,
		sessions: sessions,
		vouchers: vouchers,
		notify:   notify,
		logg:     logg,
	}, nil
}

// Submit converts the cart into an order. The cart is evicted once the
// order exists; a failed eviction is logged, not surfaced, since the order
// is already placed.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	current, err := s.carts.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if current.SalonID != input.SalonID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if result := cart.ValidateForCheckout(current); !result.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is not ready for checkout").
			WithDetails(map[string]any{"errors": result.Errors})
	}

	order, err := s.orders.Create(ctx, buildOrderInput(current, input))
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteCart(ctx, input.CartID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "evict converted cart", err)
	}

	result := &Result{Order: order}

	if order.PaymentMethod.RequiresSession() && order.TotalCents > 0 {
		session, err := s.openPaymentSession(ctx, order)
		if err != nil {
			return nil, err
		}
		result.SessionID = session.SessionID
		result.PaymentURL = session.CheckoutURL
		return result, nil
	}

	// Nothing left to collect online; confirm right away.
	s.finalizePaid(ctx, order)
	return result, nil
}

func buildOrderInput(current cart.Cart, input SubmitInput) orders.CreateInput {
	method := input.ShippingMethod
	if method == "" {
		method = current.ShippingMethod
	}
	if cart.IsDigitalOnly(current) {
		method = enums.ShippingMethodNone
	}

	items := make([]orders.ItemInput, 0, len(current.Items))
	for _, item := range current.Items {
		items = append(items, orders.ItemInput{
			Type:              item.Type,
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			Name:              item.Name,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			VoucherValueCents: item.VoucherValueCents,
			RecipientEmail:    item.RecipientEmail,
			RecipientName:     item.RecipientName,
			PersonalMessage:   item.PersonalMessage,
		})
	}

	return orders.CreateInput{
		SalonID:         input.SalonID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		Items:           items,
		DiscountCents:   current.Totals.DiscountCents,
		ShippingMethod:  method,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Currency:        enums.CurrencyCHF,
	}
}

func (s *Service) openPaymentSession(ctx context.Context, order *models.Order) (*stripepay.Session, error) {
	if s.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments are not configured")
	}
	if result := orders.ValidateForPayment(order); !result.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable").
			WithDetails(map[string]any{"errors": result.Errors})
	}

	lineItems := sessionLineItems(order)

	session, err := s.sessions.CreateCheckoutSession(ctx, stripepay.SessionInput{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Currency:    order.Currency.String(),
		LineItems:   lineItems,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open payment session")
	}
	return session, nil
}

// sessionLineItems itemizes the hosted payment page. Orders carrying a
// discount are collapsed into a single line so the charged amount always
// matches the order total exactly.
func sessionLineItems(order *models.Order) []stripepay.SessionLineItem {
	if order.DiscountCents > 0 || order.VoucherDiscountCents > 0 {
		return []stripepay.SessionLineItem{{
			Name:        "Bestellung " + order.OrderNumber,
			AmountCents: order.TotalCents,
			Quantity:    1,
		}}
	}

	lineItems := make([]stripepay.SessionLineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, stripepay.SessionLineItem{
			Name:        item.Name,
			AmountCents: item.UnitPriceCents,
			Quantity:    item.Quantity,
		})
	}
	if order.ShippingCents > 0 {
		lineItems = append(lineItems, stripepay.SessionLineItem{
			Name:        "Versand",
			AmountCents: order.ShippingCents,
			Quantity:    1,
		})
	}
	return lineItems
}

// HandlePaymentSucceeded settles the payment: the order advances, an
// attached voucher balance is deducted, purchased vouchers are minted and
// the customer is notified.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.MarkPaymentSucceeded(ctx, salonID, orderID)
	if err != nil {
		return nil, err
	}

	if order.VoucherID != nil && order.VoucherDiscountCents > 0 {
		if err := s.vouchers.Redeem(ctx, *order.VoucherID, order.VoucherDiscountCents); err != nil {
			// The payment already settled; a redemption conflict must not
			// unsettle the order.
			if s.logg != nil {
				s.logg.Error(ctx, "redeem voucher after payment", err)
			}
		}
	}

	s.finalizePaid(ctx, order)
	return order, nil
}

// HandlePaymentFailed flags the failed collection; the order stays pending
// so the customer can retry.
func (s *Service) HandlePaymentFailed(ctx context.Context, salonID, orderID uuid.UUID) (*models.Order, error) {
	return s.orders.MarkPaymentFailed(ctx, salonID, orderID)
}

func (s *Service) finalizePaid(ctx context.Context, order *models.Order) {
	minted, err := s.vouchers.IssueForOrder(ctx, order)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "issue purchased vouchers", err)
		}
	}
	if s.notify != nil {
		s.notify.NotifyOrderCreated(ctx, order, minted)
	}
}
