package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/httpserver"
	"marketplace/internal/idempotency"
	"marketplace/internal/logging"
	accountrepo "marketplace/internal/repository/account"
	cartrepo "marketplace/internal/repository/cart"
	categoryrepo "marketplace/internal/repository/category"
	inventoryrepo "marketplace/internal/repository/inventory"
	"marketplace/internal/repository/ledger"
	orderrepo "marketplace/internal/repository/order"
	productrepo "marketplace/internal/repository/product"
	accountsvc "marketplace/internal/service/account"
	cartsvc "marketplace/internal/service/cart"
	categorysvc "marketplace/internal/service/category"
	"marketplace/internal/service/checkout"
	inventorysvc "marketplace/internal/service/inventory"
	ordersvc "marketplace/internal/service/order"
	productsvc "marketplace/internal/service/product"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var guard idempotency.Guard = idempotency.Noop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		guard = idempotency.NewRedis(client, cfg.IdempotencyTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, checkout idempotency keys are ignored")
	}

	accountRepo := accountrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	inventoryRepo := inventoryrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	ledgerStore := ledger.NewPostgres(dbpool, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AccountRepo:        accountRepo,
		AccountSvc:         accountsvc.New(accountRepo),
		CartSvc:            cartsvc.New(cartRepo, productRepo),
		CheckoutSvc:        checkout.New(ledgerStore, logger.Named("checkout"), cfg.CheckoutTimeout),
		OrderSvc:           ordersvc.New(orderRepo),
		InventorySvc:       inventorysvc.New(inventoryRepo, productRepo),
		ProductSvc:         productsvc.New(productRepo),
		CategorySvc:        categorysvc.New(categoryRepo),
		Idempotency:        guard,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
