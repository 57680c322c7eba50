// Package cli implements shopctl, the operator command line for running
// storefront maintenance by hand.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	notificationapp "github.com/storefront/backend/internal/application/notification"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	staffapp "github.com/storefront/backend/internal/application/staff"
)

// Reconciler runs payment reconciliation
type Reconciler interface {
	SweepOrphans(ctx context.Context) (*paymentapp.SweepResult, error)
	ScanPayments(ctx context.Context, window time.Duration) (*paymentapp.ScanResult, error)
}

// ShipmentSyncer polls carriers for shipment status
type ShipmentSyncer interface {
	SyncShipments(ctx context.Context, limit int) (*shippingapp.SyncResult, error)
}

// EmailDispatcher delivers due outbox emails
type EmailDispatcher interface {
	DispatchDue(ctx context.Context, limit int) (*notificationapp.DispatchResult, error)
}

// OrderExpirer cancels stale pending orders
type OrderExpirer interface {
	ExpirePending(ctx context.Context, ttl time.Duration, limit int) (int, error)
}

// StaffCreator creates staff accounts
type StaffCreator interface {
	Create(ctx context.Context, req staffapp.CreateStaffRequest) (*staffapp.StaffResponse, error)
}

// CatalogImporter applies catalog import files
type CatalogImporter interface {
	Import(ctx context.Context, r io.Reader, dryRun bool) (*catalogapp.ImportResult, error)
}

// Services is what the commands operate on
type Services struct {
	Reconciliation Reconciler
	Shipments      ShipmentSyncer
	Emails         EmailDispatcher
	Orders         OrderExpirer
	Staff          StaffCreator
	Catalog        CatalogImporter
	// PendingOrderTTL is the configured age at which pending orders expire
	PendingOrderTTL time.Duration
}

// Loader connects the services. The returned function releases them.
type Loader func(ctx context.Context) (*Services, func(context.Context) error, error)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Format  string
	Timeout time.Duration
	load    Loader
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the shopctl root command
func NewRootCommand(load Loader) *cobra.Command {
	opts := &RootOptions{load: load}

	cmd := &cobra.Command{
		Use:   "shopctl",
		Short: "Storefront operations",
		Long: `Run storefront maintenance jobs on demand.

Every command connects with the same configuration as the server
(config.toml, SHOP_* environment variables and an optional .env file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Timeout <= 0 {
				return NewExitError(ExitCommandError, "timeout must be positive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "abort the command after this long")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewShipmentsCommand(opts))
	cmd.AddCommand(NewEmailsCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewStaffCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// run connects the services, runs fn under the command timeout and
// releases the services again
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, svc *Services, out *OutputFormatter) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	defer cancel()

	svc, release, err := o.load(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	defer func() {
		if release != nil {
			_ = release(context.Background())
		}
	}()

	out := &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
	return fn(ctx, svc, out)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
