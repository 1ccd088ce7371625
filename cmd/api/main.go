package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atelier-commerce/internal/config"
	"atelier-commerce/internal/coupon"
	"atelier-commerce/internal/database"
	"atelier-commerce/internal/event"
	"atelier-commerce/internal/handler"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/payment"
	"atelier-commerce/internal/repository"
	"atelier-commerce/internal/router"
	"atelier-commerce/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting atelier-commerce API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	returnRepo := repository.NewReturnRepository(pool, logger)

	// Initialize event publisher
	var publisher event.Publisher
	if cfg.Kafka.Enabled {
		publisher = event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka event publishing enabled")
	} else {
		publisher = event.NopPublisher{}
		logger.Info().Msg("event publishing disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize metrics and domain collaborators
	commerceMetrics := metrics.NewCommerceMetrics()
	validator := coupon.NewValidator(orderRepo, logger)
	refunder := payment.NewMockRefunder(logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	couponService := service.NewCouponService(couponRepo, validator, commerceMetrics, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, couponRepo, validator, publisher, commerceMetrics, logger)
	returnService := service.NewReturnService(returnRepo, orderRepo, publisher, commerceMetrics, logger)
	refundService := service.NewRefundService(returnRepo, orderRepo, refunder, publisher, commerceMetrics, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	couponHandler := handler.NewCouponHandler(couponService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	returnHandler := handler.NewReturnHandler(returnService, refundService, logger)

	// Initialize router
	mux := router.New(productHandler, couponHandler, orderHandler, returnHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
