// Package scheduler runs the storefront's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job names
const (
	JobOrphanSweep        = "orphan-sweep"
	JobPaymentScan        = "payment-scan"
	JobShipmentSync       = "shipment-sync"
	JobEmailDispatch      = "email-dispatch"
	JobPendingOrderExpiry = "pending-order-expiry"
)

// JobStatus represents the status of a job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger says what started a run
type Trigger string

const (
	TriggerInterval Trigger = "interval"
	TriggerManual   Trigger = "manual"
)

// JobFunc is the work of one run
type JobFunc func(ctx context.Context) error

// Job is a named unit of periodic work
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// Run records one execution of a job
type Run struct {
	ID          uuid.UUID
	Job         string
	Trigger     Trigger
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or zero while it is running
func (r Run) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

func (r *Run) start() {
	now := time.Now()
	r.Status = JobStatusRunning
	r.StartedAt = &now
}

func (r *Run) finish(err error) {
	now := time.Now()
	r.CompletedAt = &now
	if err != nil {
		r.Status = JobStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = JobStatusSuccess
}

// Config holds scheduler configuration
type Config struct {
	JobTimeout  time.Duration
	HistorySize int
	// RunOnStart runs every job once right after Start
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout:  5 * time.Minute,
		HistorySize: 20,
	}
}

type entry struct {
	job     Job
	running bool
	history []*Run
}

// Scheduler runs each registered job on its own goroutine and interval.
// A job never overlaps itself: a tick that arrives while the previous run
// is still going is skipped.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*entry
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a scheduler with no jobs
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultConfig().HistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*entry),
	}
}

// Register adds a job. Jobs registered after Start begin on the next Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, job.Name)
	}
	s.jobs[job.Name] = &entry{job: job}
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.jobs {
		s.wg.Add(1)
		go s.loop(s.ctx, e.job)
	}

	s.logger.Info("Scheduler started",
		zap.Strings("jobs", s.namesLocked()),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop cancels the loops and waits for in-flight runs or ctx expiry
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow starts a run of name immediately in the background and
// returns its record. It fails with ErrJobRunning if a run is in flight.
func (s *Scheduler) TriggerNow(name string) (Run, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return Run{}, ErrSchedulerNotRunning
	}
	e, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	run, ok := s.beginLocked(e, TriggerManual)
	if !ok {
		s.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.execute(ctx, e, run)
	}()
	return s.snapshot(run), nil
}

// History returns the recorded runs of name, newest first
func (s *Scheduler) History(name string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	out := make([]Run, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		out = append(out, *e.history[i])
	}
	return out, nil
}

// Jobs returns the registered job names in sorted order
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namesLocked()
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.tick(ctx, job.Name)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job.Name)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, name string) {
	s.mu.Lock()
	e := s.jobs[name]
	run, ok := s.beginLocked(e, TriggerInterval)
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("Skipping tick, previous run still in flight", zap.String("job", name))
		return
	}
	s.execute(ctx, e, run)
}

// beginLocked records a PENDING run unless one is in flight
func (s *Scheduler) beginLocked(e *entry, trigger Trigger) (*Run, bool) {
	if e.running {
		return nil, false
	}
	e.running = true
	run := &Run{ID: uuid.New(), Job: e.job.Name, Trigger: trigger, Status: JobStatusPending}
	e.history = append(e.history, run)
	if over := len(e.history) - s.config.HistorySize; over > 0 {
		e.history = e.history[over:]
	}
	return run, true
}

func (s *Scheduler) execute(ctx context.Context, e *entry, run *Run) {
	s.mu.Lock()
	run.start()
	s.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.safeRun(jobCtx, e.job)

	s.mu.Lock()
	run.finish(err)
	e.running = false
	duration := run.Duration()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", e.job.Name),
			zap.String("run_id", run.ID.String()),
			zap.String("trigger", string(run.Trigger)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}
	s.logger.Debug("Job completed",
		zap.String("job", e.job.Name),
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", string(run.Trigger)),
		zap.Duration("duration", duration))
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

func (s *Scheduler) snapshot(run *Run) Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *run
}
