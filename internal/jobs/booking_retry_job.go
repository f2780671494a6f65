package jobs

import (
	"context"
	"log/slog"
	"time"

	"shipping/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const (
	DefaultBookingRetrySchedule = "@every 10m"
	DefaultBookingRetryLimit    = 100
)

type BookingRetrier interface {
	Handle(ctx context.Context, cmd commands.RetryBookingCommand) (commands.RetryBookingResult, error)
}

// BookingRetryJob re-attempts carrier booking for paid shipments flagged for support.
type BookingRetryJob struct {
	handler  BookingRetrier
	schedule string
	limit    int
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewBookingRetryJob(handler BookingRetrier, schedule string, limit int, logger *slog.Logger) *BookingRetryJob {
	if schedule == "" {
		schedule = DefaultBookingRetrySchedule
	}
	if limit <= 0 {
		limit = DefaultBookingRetryLimit
	}
	logger = logger.With("component", "booking_retry_job")
	return &BookingRetryJob{
		handler:  handler,
		schedule: schedule,
		limit:    limit,
		timeout:  DefaultRunTimeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

func (j *BookingRetryJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { _ = j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("booking retry job started", "schedule", j.schedule)
	return nil
}

func (j *BookingRetryJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cmd, err := commands.NewRetryBookingCommand(j.limit)
	if err != nil {
		return err
	}

	res, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "booking retry failed", "error", err)
		return err
	}

	if res.Processed > 0 {
		j.logger.InfoContext(ctx, "booking retry finished",
			"processed", res.Processed,
			"booked", res.Booked,
			"failed", res.Failed,
		)
	}
	return nil
}

func (j *BookingRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("booking retry job stopped")
}
