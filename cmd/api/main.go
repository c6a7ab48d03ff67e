package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mbruegger/salora-backend/api/routes"
	"github.com/mbruegger/salora-backend/internal/cart"
	checkoutsvc "github.com/mbruegger/salora-backend/internal/checkout"
	"github.com/mbruegger/salora-backend/internal/notifications"
	"github.com/mbruegger/salora-backend/internal/orders"
	"github.com/mbruegger/salora-backend/internal/vouchers"
	"github.com/mbruegger/salora-backend/pkg/config"
	"github.com/mbruegger/salora-backend/pkg/db"
	"github.com/mbruegger/salora-backend/pkg/logger"
	"github.com/mbruegger/salora-backend/pkg/metrics"
	"github.com/mbruegger/salora-backend/pkg/migrate"
	"github.com/mbruegger/salora-backend/pkg/redis"
	"github.com/mbruegger/salora-backend/pkg/stripepay"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	cartStore, err := cart.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	voucherRepo := vouchers.NewRepository(dbClient.DB())

	voucherService, err := vouchers.NewService(voucherRepo, dbClient, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	numbers := orders.NewNumberAllocator(dbClient.DB(), cfg.Checkout.OrderNumberPrefix)
	orderService, err := orders.NewService(orderRepo, dbClient, numbers, vouchers.NewValidator(voucherRepo), logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	notifyService, err := notifications.NewService(notifications.NewLogSender(logg), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	var checkoutService *checkoutsvc.Service
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := stripepay.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		checkoutService, err = checkoutsvc.NewService(cartService, orderService, stripeClient, voucherService, notifyService, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create checkout service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key not set, card checkout disabled")
		checkoutService, err = checkoutsvc.NewService(cartService, orderService, nil, voucherService, notifyService, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create checkout service", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, cartService, checkoutService, orderService, voucherService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
