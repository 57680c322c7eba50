package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/storefront/backend/internal/bootstrap"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/cli"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(load)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

func load(ctx context.Context) (*cli.Services, func(context.Context) error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// Keep stdout for command output
	cfg.Log.Output = "stderr"

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	s := app.Services
	return &cli.Services{
		Reconciliation:  s.Reconciliation,
		Shipments:       s.Shipping,
		Emails:          s.Emails,
		Orders:          s.Orders,
		Staff:           s.Staff,
		Catalog:         s.Imports,
		PendingOrderTTL: cfg.Checkout.PendingOrderTTL,
	}, app.Close, nil
}
