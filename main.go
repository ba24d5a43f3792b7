package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/pkg/logging"
	"storefront/internal/repositories"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	if cfg.SeedProducts {
		seedProducts(context.Background(), store.Products(), logger)
	}

	// Events are optional: without a broker orders are still taken.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
		} else {
			defer mqClient.Close()
			publisher = mqClient
			if err := mqClient.ConsumeOrderEvents(rabbitmq.LogOrderEvents(logger)); err != nil {
				logger.Warn("failed to start order event consumer", zap.Error(err))
			}
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := server.New(server.Deps{
		Store:     store,
		Publisher: publisher,
		Registry:  registry,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		AccessLog: true,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("driver", cfg.DBDriver))
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

// openStore selects the backend named by DB_DRIVER.
func openStore(cfg *config.Config) (repositories.Store, func(), error) {
	if cfg.DBDriver == "memory" {
		return repositories.NewMemoryStore(), func() {}, nil
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewGORMStore(db), func() { _ = sqlDB.Close() }, nil
}

// seedProducts adds a few demo products to an empty catalogue.
func seedProducts(ctx context.Context, repo repositories.ProductRepository, logger *zap.Logger) {
	_, total, err := repo.List(ctx, repositories.Page{Limit: 1})
	if err != nil {
		logger.Warn("failed to inspect catalogue for seeding", zap.Error(err))
		return
	}
	if total > 0 {
		return
	}

	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00"), Stock: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00"), Stock: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), Stock: 50},
	}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			logger.Warn("failed to seed product", zap.String("name", products[i].Name), zap.Error(err))
			continue
		}
		logger.Info("seeded product", zap.String("name", products[i].Name), zap.String("id", products[i].ID))
	}
}
