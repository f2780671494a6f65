package kernel

import (
	"errors"
	"math"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

const earthRadiusKm = 6371.0

var ErrGeoPointIsNotConstructed = errors.New("geo point must be created via NewGeoPoint")

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("latitude", lat, -90, 90)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("longitude", lon, -180, 180)
	}

	return GeoPoint{lat: lat, lon: lon, guard: guard.NewConstructorGuard()}, nil
}

func (p GeoPoint) Lat() float64 { return p.lat }
func (p GeoPoint) Lon() float64 { return p.lon }

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// DistanceKm returns the great-circle (haversine) distance between two points.
func (p GeoPoint) DistanceKm(target GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), target.Validate()); err != nil {
		return 0, err
	}

	lat1, lat2 := radians(p.lat), radians(target.lat)
	dLat := lat2 - lat1
	dLon := radians(target.lon - p.lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h))), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
