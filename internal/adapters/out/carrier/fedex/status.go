package fedex

import (
	"log/slog"
	"strings"
	"time"

	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
)

var serviceNames = map[string]string{
	"FEDEX_INTERNATIONAL_PRIORITY": "FedEx International Priority",
	"INTERNATIONAL_ECONOMY":        "FedEx International Economy",
	"FEDEX_REGIONAL_ECONOMY":       "FedEx Regional Economy",
	"PRIORITY_OVERNIGHT":           "FedEx Priority Overnight",
	"FEDEX_GROUND":                 "FedEx Ground",
}

// serviceDays is used when the reply carries no transit time.
var serviceDays = map[string]int{
	"FEDEX_INTERNATIONAL_PRIORITY": 2,
	"INTERNATIONAL_ECONOMY":        4,
	"FEDEX_REGIONAL_ECONOMY":       3,
	"PRIORITY_OVERNIGHT":           1,
	"FEDEX_GROUND":                 5,
}

var transitWords = map[string]int{
	"ONE_DAY": 1, "TWO_DAYS": 2, "THREE_DAYS": 3, "FOUR_DAYS": 4, "FIVE_DAYS": 5,
	"SIX_DAYS": 6, "SEVEN_DAYS": 7, "EIGHT_DAYS": 8, "NINE_DAYS": 9, "TEN_DAYS": 10,
}

const defaultTransitDays = 5

func displayName(serviceType, serviceName string) string {
	if serviceName != "" {
		return serviceName
	}
	if name, ok := serviceNames[serviceType]; ok {
		return name
	}
	return serviceType
}

func transitDays(serviceType, transitTime string) int {
	if days, ok := transitWords[strings.ToUpper(transitTime)]; ok {
		return days
	}
	if days, ok := serviceDays[serviceType]; ok {
		return days
	}
	return defaultTransitDays
}

func mapStatus(code string) shipment.Status {
	switch strings.ToUpper(code) {
	case "DL":
		return shipment.Delivered
	case "CA", "RS":
		return shipment.Cancelled
	case "OC", "LC":
		return shipment.Processing
	default:
		return shipment.InTransit
	}
}

func toTrackingReport(result trackResult, logger *slog.Logger) ports.TrackingReport {
	report := ports.TrackingReport{Status: mapStatus(result.LatestStatusDetail.Code)}

	for _, ev := range result.ScanEvents {
		at, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			logger.Warn("skipping scan event with bad date", "date", ev.Date)
			continue
		}
		entry, err := shipment.NewTrackingEntry(
			mapStatus(ev.DerivedStatusCode).String(),
			location(ev),
			ev.EventDescription,
			at,
		)
		if err != nil {
			continue
		}
		report.Events = append(report.Events, entry)
	}
	return report
}

func location(ev scanEvent) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ev.ScanLocation.City, ev.ScanLocation.StateOrProvinceCode, ev.ScanLocation.CountryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
