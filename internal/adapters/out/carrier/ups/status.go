package ups

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
)

var serviceCatalog = map[string]struct {
	name string
	days int
}{
	"07": {"UPS Worldwide Express", 1},
	"11": {"UPS Standard", 3},
	"65": {"UPS Worldwide Saver", 2},
}

const defaultTransitDays = 5

func serviceName(code string) string {
	if s, ok := serviceCatalog[code]; ok {
		return s.name
	}
	return "UPS " + code
}

func transitDays(code, businessDays string) int {
	if days, err := strconv.Atoi(strings.TrimSpace(businessDays)); err == nil && days > 0 {
		return days
	}
	if s, ok := serviceCatalog[code]; ok {
		return s.days
	}
	return defaultTransitDays
}

// mapStatus reads the activity type: M manifest, P pickup, I in transit, D delivered, X exception.
func mapStatus(s statusInfo) shipment.Status {
	switch strings.ToUpper(s.Type) {
	case "M":
		return shipment.Processing
	case "D":
		return shipment.Delivered
	case "X":
		if strings.Contains(strings.ToLower(s.Description), "cancel") {
			return shipment.Cancelled
		}
		return shipment.InTransit
	default:
		return shipment.InTransit
	}
}

func toTrackingReport(current statusInfo, activities []activity, logger *slog.Logger) ports.TrackingReport {
	report := ports.TrackingReport{Status: mapStatus(current)}
	if current.Type == "" && len(activities) > 0 {
		report.Status = mapStatus(activities[0].Status)
	}

	for _, a := range activities {
		at, err := time.Parse("20060102150405", a.Date+a.Time)
		if err != nil {
			logger.Warn("skipping activity with bad timestamp", "date", a.Date, "time", a.Time)
			continue
		}
		entry, err := shipment.NewTrackingEntry(mapStatus(a.Status).String(), location(a), a.Status.Description, at)
		if err != nil {
			continue
		}
		report.Events = append(report.Events, entry)
	}
	return report
}

func location(a activity) string {
	addr := a.Location.Address
	parts := make([]string, 0, 3)
	for _, p := range []string{addr.City, addr.StateProvince, addr.CountryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
