package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/resell-golang/internal/auth"
	"github.com/01moynul/resell-golang/internal/config"
	"github.com/01moynul/resell-golang/internal/database"
	"github.com/01moynul/resell-golang/internal/handlers"
	"github.com/01moynul/resell-golang/internal/middleware"
	"github.com/01moynul/resell-golang/internal/repository"
	"github.com/01moynul/resell-golang/internal/routes"
	"github.com/01moynul/resell-golang/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, dotenv, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := config.NewLogger(cfg)
	if !dotenv {
		log.Warn("Could not find or load .env file. Relying on system environment variables.")
	}

	// run returns only after its deferred cleanup, so exiting here never
	// skips closing the pool.
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("API server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage ---
	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. --- Services and HTTP ---
	services := service.New(repos, log)
	app := handlers.New(services, log)

	limiter := middleware.NewRateLimiter(cfg.PublicRate, cfg.PublicBurst, log)
	limiter.StartCleanup(ctx, time.Minute)

	router := routes.SetupRouter(app, auth.NewValidator(cfg.JWTSecret), limiter, cfg.CORSOrigin)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 3. --- Start Server ---
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", httpServer.Addr).Info("Starting resale back-office API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore builds the repositories for cfg.StoreDriver. The returned
// func releases whatever the store holds and is safe to call once.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*repository.Repositories, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("Using the in-memory store; data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := database.OpenDB(cfg.DSN, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to primary database: %w", err)
	}
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			closeDB(db, log)
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
		log.Info("Schema applied")
	}
	return repository.NewMySQL(db), func() { closeDB(db, log) }, nil
}

func closeDB(db *sql.DB, log logrus.FieldLogger) {
	if err := db.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}
