package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nearbuy-labs/nearbuy-backend/api/routes"
	"github.com/nearbuy-labs/nearbuy-backend/internal/cart"
	"github.com/nearbuy-labs/nearbuy-backend/internal/checkout"
	"github.com/nearbuy-labs/nearbuy-backend/internal/delivery"
	"github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/internal/settlement"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/gateway"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/metrics"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/migrate"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	conn := dbClient.DB()

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		checkout.NewRepository(conn),
		cart.NewRepository(conn),
		gatewayClient,
		commerceMetrics,
		checkout.NewDistanceFeeFunc(cfg.Commerce),
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(conn), dbClient, commerceMetrics, cfg.Commerce.ReturnWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	deliveryService, err := delivery.NewService(delivery.NewRepository(conn), dbClient, redisClient, commerceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.NewRepository(conn), dbClient, commerceMetrics, cfg.Commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Gateway:     gatewayClient,
			Registry:    registry,
			Cart:        cartService,
			Checkout:    checkoutService,
			Orders:      orderService,
			Deliveries:  deliveryService,
			Settlements: settlementService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
