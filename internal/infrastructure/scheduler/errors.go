package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobNotFound is returned for an unknown job name
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when registering a name twice
	ErrJobExists = errors.New("job already registered")

	// ErrJobRunning is returned when a job is triggered while a run is in flight
	ErrJobRunning = errors.New("job is already running")

	// ErrInvalidJob is returned for a job without name, interval or func
	ErrInvalidJob = errors.New("invalid job definition")
)
