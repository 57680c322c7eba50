package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// finish turns a partial run into exit code 1 after its report is written
func finish(what string, err error) error {
	if err != nil {
		return WrapExitError(ExitFailure, what+" finished with errors", err)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 0 {
		return NewExitError(ExitCommandError, "limit must not be negative")
	}
	return nil
}

// NewReconcileCommand creates the reconcile command group
func NewReconcileCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile captured payments with orders",
	}
	cmd.AddCommand(newSweepCommand(root))
	cmd.AddCommand(newScanCommand(root))
	return cmd
}

func newSweepCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Match or refund orphan payments past their grace period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				res, err := svc.Reconciliation.SweepOrphans(ctx)
				if res == nil {
					return WrapExitError(ExitFailure, "orphan sweep failed", err)
				}
				if werr := out.Report("Orphan sweep", res, err,
					Field{"checked", res.Checked},
					Field{"matched", res.Matched},
					Field{"refunded", res.Refunded},
					Field{"failed", res.Failed},
				); werr != nil {
					return werr
				}
				return finish("orphan sweep", err)
			})
		},
	}
}

func newScanCommand(root *RootOptions) *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Look for succeeded payments the webhooks missed",
		Long: `Ask the payment gateway for intents that succeeded within the window
and settle the orders they belong to. Payments with no matching order are
recorded as orphans. A zero window uses the configured default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if window < 0 {
				return NewExitError(ExitCommandError, "window must not be negative")
			}
			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				res, err := svc.Reconciliation.ScanPayments(ctx, window)
				if res == nil {
					return WrapExitError(ExitFailure, "payment scan failed", err)
				}
				if werr := out.Report("Payment scan", res, err,
					Field{"checked", res.Checked},
					Field{"paid", res.Paid},
					Field{"already paid", res.AlreadyPaid},
					Field{"orphaned", res.Orphaned},
				); werr != nil {
					return werr
				}
				return finish("payment scan", err)
			})
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "how far back to look, e.g. 48h")
	return cmd
}

// NewShipmentsCommand creates the shipments command group
func NewShipmentsCommand(root *RootOptions) *cobra.Command {
	var limit int
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Poll the carrier for shipments that have not updated recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLimit(limit); err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				res, err := svc.Shipments.SyncShipments(ctx, limit)
				if res == nil {
					return WrapExitError(ExitFailure, "shipment sync failed", err)
				}
				if werr := out.Report("Shipment sync", res, err,
					Field{"checked", res.Checked},
					Field{"updated", res.Updated},
					Field{"failed", res.Failed},
				); werr != nil {
					return werr
				}
				return finish("shipment sync", err)
			})
		},
	}
	sync.Flags().IntVar(&limit, "limit", 0, "maximum shipments to poll (0 uses the configured batch)")

	cmd := &cobra.Command{Use: "shipments", Short: "Shipment tracking"}
	cmd.AddCommand(sync)
	return cmd
}

// NewEmailsCommand creates the emails command group
func NewEmailsCommand(root *RootOptions) *cobra.Command {
	var limit int
	dispatch := &cobra.Command{
		Use:   "dispatch",
		Short: "Send outbox emails that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLimit(limit); err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				res, err := svc.Emails.DispatchDue(ctx, limit)
				if res == nil {
					return WrapExitError(ExitFailure, "email dispatch failed", err)
				}
				if werr := out.Report("Email dispatch", res, err,
					Field{"checked", res.Checked},
					Field{"sent", res.Sent},
					Field{"failed", res.Failed},
					Field{"dead", res.Dead},
				); werr != nil {
					return werr
				}
				return finish("email dispatch", err)
			})
		},
	}
	dispatch.Flags().IntVar(&limit, "limit", 0, "maximum emails to send (0 uses the configured batch)")

	cmd := &cobra.Command{Use: "emails", Short: "Email outbox"}
	cmd.AddCommand(dispatch)
	return cmd
}

// NewOrdersCommand creates the orders command group
func NewOrdersCommand(root *RootOptions) *cobra.Command {
	var (
		limit int
		ttl   time.Duration
	)
	expire := &cobra.Command{
		Use:   "expire",
		Short: "Cancel pending orders that were never paid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLimit(limit); err != nil {
				return err
			}
			if ttl < 0 {
				return NewExitError(ExitCommandError, "ttl must not be negative")
			}
			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				age := ttl
				if age == 0 {
					age = svc.PendingOrderTTL
				}
				n, err := svc.Orders.ExpirePending(ctx, age, limit)
				result := map[string]any{"expired": n, "ttl": age.String()}
				if werr := out.Report(fmt.Sprintf("Pending orders older than %s", age), result, err,
					Field{"expired", n},
				); werr != nil {
					return werr
				}
				return finish("order expiry", err)
			})
		},
	}
	expire.Flags().IntVar(&limit, "limit", 0, "maximum orders to expire (default 100)")
	expire.Flags().DurationVar(&ttl, "ttl", 0, "expire orders older than this (0 uses the configured TTL)")

	cmd := &cobra.Command{Use: "orders", Short: "Order maintenance"}
	cmd.AddCommand(expire)
	return cmd
}
