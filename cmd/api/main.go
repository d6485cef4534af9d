package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aminufarouk/kiosa-backend/api/routes"
	"github.com/aminufarouk/kiosa-backend/internal/cart"
	"github.com/aminufarouk/kiosa-backend/internal/catalog"
	"github.com/aminufarouk/kiosa-backend/internal/checkout"
	"github.com/aminufarouk/kiosa-backend/internal/customers"
	"github.com/aminufarouk/kiosa-backend/internal/notifications"
	"github.com/aminufarouk/kiosa-backend/internal/orders"
	"github.com/aminufarouk/kiosa-backend/internal/payments"
	"github.com/aminufarouk/kiosa-backend/internal/staff"
	"github.com/aminufarouk/kiosa-backend/internal/wishlist"
	"github.com/aminufarouk/kiosa-backend/pkg/auth/session"
	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/db"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/metrics"
	"github.com/aminufarouk/kiosa-backend/pkg/migrate"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox"
	"github.com/aminufarouk/kiosa-backend/pkg/paygate"
	"github.com/aminufarouk/kiosa-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	ordersRepo := orders.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)

	catalogService, err := catalog.NewService(catalogRepo, logg)
	if err != nil {
		fatal(logg, "create catalog service", err)
	}
	cartService, err := cart.NewService(cart.NewRepository(gormDB), logg)
	if err != nil {
		fatal(logg, "create cart service", err)
	}
	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), catalogService, logg)
	if err != nil {
		fatal(logg, "create wishlist service", err)
	}
	customersService, err := customers.NewService(customers.NewRepository(gormDB), logg)
	if err != nil {
		fatal(logg, "create customers service", err)
	}
	notificationsService, err := notifications.NewService(
		notifications.NewRepository(gormDB),
		notifications.NewLogSender(logg),
		logg,
	)
	if err != nil {
		fatal(logg, "create notifications service", err)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, logg)
	if err != nil {
		fatal(logg, "create orders service", err)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		OrdersRepo: ordersRepo,
		Products:   catalogRepo,
		Cart:       cartService,
		TxRunner:   dbClient,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "create checkout service", err)
	}
	staffService, err := staff.NewService(staff.ServiceParams{
		Repo:      staff.NewRepository(gormDB),
		Sessions:  sessionManager,
		JWT:       cfg.JWT,
		Passwords: cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		fatal(logg, "create staff service", err)
	}

	paymentsParams := payments.ServiceParams{
		Orders:        ordersService,
		Stats:         customersService,
		Notifications: notificationsService,
		Metrics:       metrics.NewPaymentMetrics(registry),
		Logger:        logg,
	}
	if cfg.Gateway.Configured() {
		gateway, err := paygate.NewClient(context.Background(), cfg.Gateway, logg)
		if err != nil {
			fatal(logg, "create payment gateway client", err)
		}
		paymentsParams.Gateway = gateway
	} else {
		logg.Warn(context.Background(), "payment gateway not configured, verify degrades to stored status")
	}
	paymentsService, err := payments.NewService(paymentsParams)
	if err != nil {
		fatal(logg, "create payments service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Payments:      paymentsService,
			Orders:        ordersService,
			Catalog:       catalogService,
			Cart:          cartService,
			Wishlist:      wishlistService,
			Checkout:      checkoutService,
			Customers:     customersService,
			Notifications: notificationsService,
			Staff:         staffService,
			Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
