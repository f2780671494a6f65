package jobs

import (
	"context"
	"log/slog"
	"time"

	"shipping/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const (
	DefaultTrackingSyncSchedule = "@every 15m"
	DefaultTrackingSyncLimit    = 500
	DefaultRunTimeout           = 10 * time.Minute
)

type TrackingSyncer interface {
	Handle(ctx context.Context, cmd commands.SyncAllTrackingCommand) (commands.SyncAllTrackingResult, error)
}

// TrackingSyncJob refreshes carrier tracking for every trackable shipment on a schedule.
type TrackingSyncJob struct {
	handler  TrackingSyncer
	schedule string
	limit    int
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewTrackingSyncJob(handler TrackingSyncer, schedule string, limit int, logger *slog.Logger) *TrackingSyncJob {
	if schedule == "" {
		schedule = DefaultTrackingSyncSchedule
	}
	if limit <= 0 {
		limit = DefaultTrackingSyncLimit
	}
	logger = logger.With("component", "tracking_sync_job")
	return &TrackingSyncJob{
		handler:  handler,
		schedule: schedule,
		limit:    limit,
		timeout:  DefaultRunTimeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

func (j *TrackingSyncJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { _ = j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("tracking sync job started", "schedule", j.schedule)
	return nil
}

// Run performs one sync pass. Failures of single shipments are counted, not returned.
func (j *TrackingSyncJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cmd, err := commands.NewSyncAllTrackingCommand(j.limit)
	if err != nil {
		return err
	}

	res, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "tracking sync failed", "error", err)
		return err
	}

	j.logger.InfoContext(ctx, "tracking sync finished",
		"processed", res.Processed,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"changed", res.Changed,
	)
	return nil
}

// Stop waits for a running pass to finish.
func (j *TrackingSyncJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("tracking sync job stopped")
}
