package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnasmart/gateway-backend/api/routes"
	"github.com/bnasmart/gateway-backend/internal/checkout"
	"github.com/bnasmart/gateway-backend/internal/customers"
	"github.com/bnasmart/gateway-backend/internal/orders"
	"github.com/bnasmart/gateway-backend/internal/paymentmethods"
	"github.com/bnasmart/gateway-backend/internal/subscriptions"
	bnawebhook "github.com/bnasmart/gateway-backend/internal/webhooks/bna"
	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/metrics"
	"github.com/bnasmart/gateway-backend/pkg/migrate"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
	"github.com/bnasmart/gateway-backend/pkg/redis"
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

	dbClient, err := db.New(cfg.DB, logg)
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

	vendorClient, err := bna.NewClient(context.Background(), cfg.BNA, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap vendor client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:              orders.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	customersRepo := customers.NewRepository(dbClient.DB())
	customersService, err := customers.NewService(customers.ServiceParams{
		Repo:              customersRepo,
		Vendor:            vendorClient,
		Features:          cfg.Features,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	paymentMethodsService, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		Repo:              paymentmethods.NewRepository(dbClient.DB()),
		Customers:         customersRepo,
		Vendor:            vendorClient,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment methods service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		OrdersRepo:        orders.NewRepository(dbClient.DB()),
		Customers:         customersService,
		Vendor:            vendorClient,
		Features:          cfg.Features,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	tokenSweeper, err := checkout.NewSweeper(checkout.SweeperParams{
		OrdersRepo: orders.NewRepository(dbClient.DB()),
		Config:     cfg.Checkout,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create token sweeper", err)
		os.Exit(1)
	}
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go tokenSweeper.Run(sweepCtx)

	webhookService, err := bnawebhook.NewService(bnawebhook.ServiceParams{
		Orders:         ordersService,
		Customers:      customersService,
		PaymentMethods: paymentMethodsService,
		Subscriptions:  subscriptionsService,
		Idempotency:    redisClient,
		Locks:          redisClient,
		Metrics:        metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		Logger:         logg,
		Config:         cfg.Webhook,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, checkoutService, paymentMethodsService, webhookService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
