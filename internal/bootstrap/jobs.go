package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/scheduler"
)

// Jobs returns the background jobs with their configured intervals
func (a *App) Jobs() []scheduler.Job {
	cfg := a.Config
	s := a.Services
	log := a.Logger

	return []scheduler.Job{
		{
			Name:     scheduler.JobOrphanSweep,
			Interval: cfg.Scheduler.OrphanSweepInterval,
			Run: func(ctx context.Context) error {
				res, err := s.Reconciliation.SweepOrphans(ctx)
				if res != nil {
					log.Info("Orphan sweep finished",
						zap.Int("checked", res.Checked),
						zap.Int("matched", res.Matched),
						zap.Int("refunded", res.Refunded),
						zap.Int("failed", res.Failed))
				}
				return err
			},
		},
		{
			Name:     scheduler.JobPaymentScan,
			Interval: cfg.Scheduler.PaymentScanInterval,
			Run: func(ctx context.Context) error {
				res, err := s.Reconciliation.ScanPayments(ctx, 0)
				if res != nil {
					log.Info("Payment scan finished",
						zap.Int("checked", res.Checked),
						zap.Int("paid", res.Paid),
						zap.Int("orphaned", res.Orphaned))
				}
				return err
			},
		},
		{
			Name:     scheduler.JobShipmentSync,
			Interval: cfg.Scheduler.ShipmentSyncInterval,
			Run: func(ctx context.Context) error {
				res, err := s.Shipping.SyncShipments(ctx, 0)
				if res != nil && res.Checked > 0 {
					log.Info("Shipment sync finished",
						zap.Int("checked", res.Checked),
						zap.Int("updated", res.Updated),
						zap.Int("failed", res.Failed))
				}
				return err
			},
		},
		{
			Name:     scheduler.JobEmailDispatch,
			Interval: cfg.Scheduler.EmailDispatchInterval,
			Run: func(ctx context.Context) error {
				res, err := s.Emails.DispatchDue(ctx, 0)
				if res != nil && res.Checked > 0 {
					log.Info("Email dispatch finished",
						zap.Int("sent", res.Sent),
						zap.Int("failed", res.Failed),
						zap.Int("dead", res.Dead))
				}
				return err
			},
		},
		{
			Name:     scheduler.JobPendingOrderExpiry,
			Interval: cfg.Scheduler.OrderExpiryInterval,
			Run: func(ctx context.Context) error {
				n, err := s.Orders.ExpirePending(ctx, cfg.Checkout.PendingOrderTTL, cfg.Reconciliation.SweepBatchSize)
				if n > 0 {
					log.Info("Expired pending orders", zap.Int("count", n))
				}
				return err
			},
		},
	}
}

// NewScheduler returns a scheduler with every job registered. It is not
// started.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.Config{
		JobTimeout: a.Config.Scheduler.JobTimeout,
	}, a.Logger)
	for _, job := range a.Jobs() {
		if err := sched.Register(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
