// Package jobs provides scheduled background tasks for the shipping service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds-aware parser, so
// both "0 */15 * * * *" and descriptors like "@every 15m" are accepted).
//
// # Available Jobs
//
// 1. TrackingSyncJob - runs SyncAllTracking, default every 15 minutes
// 2. BookingRetryJob - runs RetryBooking for paid shipments whose booking failed, default every 10 minutes
//
// # Usage
//
//	jobManager := jobs.NewJobManager(syncAllHandler, retryHandler, jobs.Config{}, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A pass that is still running when the next tick fires is skipped. Panics
// are recovered and logged. Per-shipment failures are counted by the
// handlers and never abort a pass.
package jobs
