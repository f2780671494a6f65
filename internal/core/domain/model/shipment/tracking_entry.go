package shipment

import (
	"sort"
	"strings"
	"time"

	"shipping/internal/pkg/errs"
)

// EntryError marks a history entry recording a failed payment attempt.
const EntryError = "error"

// TrackingEntry is one line of a shipment's history. Status holds a Status
// name or EntryError.
type TrackingEntry struct {
	Status    string
	Location  string
	Timestamp time.Time
	Note      string
}

func NewTrackingEntry(status, location, note string, at time.Time) (TrackingEntry, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return TrackingEntry{}, errs.NewValueIsRequiredError("status")
	}
	if at.IsZero() {
		return TrackingEntry{}, errs.NewValueIsRequiredError("timestamp")
	}
	return TrackingEntry{
		Status:    status,
		Location:  strings.TrimSpace(location),
		Timestamp: at.UTC(),
		Note:      strings.TrimSpace(note),
	}, nil
}

// sortOldestFirst orders entries by timestamp; equal timestamps keep their input order.
func sortOldestFirst(entries []TrackingEntry) []TrackingEntry {
	out := make([]TrackingEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func hasEntryFor(entries []TrackingEntry, status Status) bool {
	name := status.String()
	for _, e := range entries {
		if e.Status == name {
			return true
		}
	}
	return false
}
