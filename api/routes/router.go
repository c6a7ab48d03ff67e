package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbruegger/salora-backend/api/controllers"
	"github.com/mbruegger/salora-backend/api/middleware"
	"github.com/mbruegger/salora-backend/internal/cart"
	checkoutsvc "github.com/mbruegger/salora-backend/internal/checkout"
	"github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/internal/vouchers"
	"github.com/mbruegger/salora-backend/pkg/config"
	"github.com/mbruegger/salora-backend/pkg/db"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	registry prometheus.Gatherer,
	cartService cart.Service,
	checkoutService *checkoutsvc.Service,
	orderService orders.Service,
	voucherService vouchers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SalonContext(logg))

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(cartService, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartDelete(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
				r.Post("/clear", controllers.CartClear(cartService, logg))
				r.Post("/discounts", controllers.CartApplyDiscount(cartService, logg))
				r.Delete("/discounts/{code}", controllers.CartRemoveDiscount(cartService, logg))
				r.Put("/shipping-method", controllers.CartSetShippingMethod(cartService, logg))
			})
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Route("/payments/{orderId}", func(r chi.Router) {
			r.Post("/succeeded", controllers.PaymentSucceeded(checkoutService, logg))
			r.Post("/failed", controllers.PaymentFailed(checkoutService, logg))
		})

		r.Get("/vouchers/{code}", controllers.VoucherLookup(voucherService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.SalonContext(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(orderService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderDetail(orderService, logg))
				r.Post("/transition", controllers.AdminOrderTransition(orderService, logg))
				r.Post("/cancel", controllers.AdminOrderCancel(orderService, logg))
				r.Post("/refund", controllers.AdminOrderRefund(orderService, logg))
				r.Post("/voucher", controllers.AdminOrderApplyVoucher(orderService, logg))
				r.Get("/vouchers", controllers.OrderVouchers(voucherService, logg))
			})
		})
	})

	return r
}
