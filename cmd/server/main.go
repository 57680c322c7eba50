package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/bootstrap"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/migrations"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	flag.Parse()

	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start storefront: %v\n", err)
		os.Exit(1)
	}
	log := app.Logger

	if err := run(ctx, app, *migrate); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		_ = app.Close(context.Background())
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Close(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
	}
}

func run(ctx context.Context, app *bootstrap.App, migrate bool) error {
	cfg := app.Config
	log := app.Logger

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
	)

	if migrate {
		if err := migrateUp(app); err != nil {
			return err
		}
	}

	var sched interface{ Stop(context.Context) error }
	if cfg.Scheduler.Enabled {
		s, err := app.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		sched = s
	} else {
		log.Info("Scheduler disabled")
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        app.Engine(version),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully", zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))
	return nil
}

func migrateUp(app *bootstrap.App) error {
	sqlDB, err := app.Database.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, app.Logger)
	if err != nil {
		return err
	}
	// Not closed: closing the migrator closes the shared *sql.DB
	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
