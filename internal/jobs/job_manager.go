package jobs

import (
	"fmt"
	"log/slog"
)

// Config selects the schedules. An empty schedule uses the job default.
type Config struct {
	TrackingSyncSchedule string
	TrackingSyncLimit    int
	BookingRetrySchedule string
	BookingRetryLimit    int
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	trackingSyncJob *TrackingSyncJob
	bookingRetryJob *BookingRetryJob
}

func NewJobManager(
	syncHandler TrackingSyncer,
	retryHandler BookingRetrier,
	cfg Config,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		trackingSyncJob: NewTrackingSyncJob(syncHandler, cfg.TrackingSyncSchedule, cfg.TrackingSyncLimit, logger),
		bookingRetryJob: NewBookingRetryJob(retryHandler, cfg.BookingRetrySchedule, cfg.BookingRetryLimit, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.trackingSyncJob.Start(); err != nil {
		return fmt.Errorf("failed to start tracking sync job: %w", err)
	}

	if err := jm.bookingRetryJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.trackingSyncJob.Stop()
		return fmt.Errorf("failed to start booking retry job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs, waiting for running passes.
func (jm *JobManager) StopAll() {
	jm.bookingRetryJob.Stop()
	jm.trackingSyncJob.Stop()
}
