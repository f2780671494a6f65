package ports

import "context"

type NotificationKind string

const (
	NotifyPaymentSucceeded NotificationKind = "payment_succeeded"
	NotifyPaymentFailed    NotificationKind = "payment_failed"
	NotifyBookingFailed    NotificationKind = "booking_failed"
	NotifyTrackingUpdated  NotificationKind = "tracking_updated"
	// NotifyNeedsSupport reports a captured payment whose follow-up could not be stored.
	NotifyNeedsSupport NotificationKind = "needs_support"
)

// StaffRecipient addresses internal alerts that need manual follow-up.
const StaffRecipient = "staff"

// Notifier delivers fire-and-forget notifications. Callers log and drop errors.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind NotificationKind, payload map[string]any) error
}
