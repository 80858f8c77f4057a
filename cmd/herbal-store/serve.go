package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herbal_store/config"
	"herbal_store/internal/clients"
	"herbal_store/internal/delivery"
	"herbal_store/internal/domain"
	"herbal_store/internal/repository"
	"herbal_store/internal/session"
	"herbal_store/internal/usecase"
	"herbal_store/pkg/db"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront backend",
	Long: `Start the HTTP backend serving /auth, /orders and /payment.

Storage is selected by STORAGE_DRIVER (json or postgres). Run "herbal-store migrate"
once before serving from Postgres.`,
	RunE: runServe,
}

type repositories struct {
	users  domain.UserRepository
	orders domain.OrderRepository
	closer func()
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger("info")
	cfg := config.LoadConfig(logger)
	applyLogLevel(logger, cfg.LogLevel)
	logger.Info("Starting Herbal Store backend...")

	ctx := commandContext(cmd)

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.closer()

	sessions := session.NewMemoryStore[string]()
	sessions.StartJanitor(janitorInterval)
	defer sessions.Close()

	reservations := session.NewMemoryStore[domain.PaymentReservation]()
	reservations.StartJanitor(janitorInterval)
	defer reservations.Close()

	gateway := clients.NewGatewayHTTPClient(clients.GatewayConfig{
		BaseURL:     cfg.GatewayBaseURL,
		MerchantID:  cfg.GatewayMerchantID,
		SaltKey:     cfg.GatewaySaltKey,
		SaltIndex:   cfg.GatewaySaltIndex,
		Timeout:     cfg.GatewayTimeout,
		SiteBaseURL: cfg.SiteBaseURL,
		CallbackURL: cfg.CallbackURL,
	}, logger)

	userUseCase := usecase.NewUserUseCase(repos.users, sessions, cfg.SessionTTL, logger)
	orderUseCase := usecase.NewOrderUseCase(repos.orders, reservations, logger)
	paymentUseCase := usecase.NewPaymentUseCase(gateway, reservations, cfg.ReservationTTL, logger)

	if cfg.AdminEmail != "" {
		if _, err := userUseCase.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
		logger.Infof("Admin account %s is ready", cfg.AdminEmail)
	}

	router := delivery.NewRouter(delivery.Services{
		Users:    userUseCase,
		Orders:   orderUseCase,
		Payments: paymentUseCase,
	}, logger)

	return serveHTTP(cfg.HTTPPort, router, logger)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		logger.Info("Connecting to database...")
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Database connection established successfully.")
		return &repositories{
			users:  repository.NewPostgresUserRepository(conn, logger),
			orders: repository.NewPostgresOrderRepository(conn, logger),
			closer: func() { closeDB(conn, logger) },
		}, nil
	default:
		users, err := repository.NewJSONUserRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		orders, err := repository.NewJSONOrderRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Infof("Using JSON storage in %s", cfg.DataDir)
		return &repositories{users: users, orders: orders, closer: func() {}}, nil
	}
}

func closeDB(conn *sql.DB, logger *logrus.Logger) {
	if err := conn.Close(); err != nil {
		logger.Errorf("Error closing database connection: %v", err)
		return
	}
	logger.Info("Database connection closed.")
}

// serveHTTP runs handler on addr until SIGINT or SIGTERM, then drains connections.
func serveHTTP(addr string, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve HTTP on %s: %w", addr, err)
		}
		return nil
	case <-quit:
		logger.Warn("Shutdown signal received...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("HTTP server gracefully stopped.")
	return nil
}
