package services

import (
	"strings"
	"unicode"

	"shipping/internal/core/domain/model/kernel"
)

type latLon struct{ lat, lon float64 }

// GB postcode areas (leading letters of the outward code).
var gbAreaCentroids = map[string]latLon{
	"AB": {57.15, -2.11}, "B": {52.48, -1.89}, "BN": {50.83, -0.14}, "BS": {51.45, -2.59},
	"CB": {52.20, 0.12}, "CF": {51.48, -3.18}, "CV": {52.41, -1.51}, "DH": {54.78, -1.57},
	"E": {51.53, -0.03}, "EC": {51.52, -0.09}, "EH": {55.95, -3.19}, "EX": {50.72, -3.53},
	"G": {55.86, -4.25}, "GU": {51.24, -0.57}, "IV": {57.48, -4.22}, "L": {53.41, -2.98},
	"LE": {52.64, -1.13}, "LS": {53.80, -1.55}, "M": {53.48, -2.24}, "N": {51.57, -0.11},
	"NE": {54.97, -1.61}, "NG": {52.95, -1.15}, "NW": {51.55, -0.18}, "OX": {51.75, -1.26},
	"PL": {50.38, -4.14}, "S": {53.38, -1.47}, "SE": {51.47, -0.07}, "SO": {50.90, -1.40},
	"SW": {51.47, -0.17}, "W": {51.51, -0.20}, "WC": {51.52, -0.12}, "YO": {53.96, -1.08},
	"ZE": {60.15, -1.15}, "KW": {58.59, -3.52}, "HS": {58.21, -6.39}, "BT": {54.60, -5.93},
}

// US ZIP codes grouped by first digit.
var usZoneCentroids = map[byte]latLon{
	'0': {42.36, -71.06}, '1': {40.71, -74.01}, '2': {38.91, -77.04}, '3': {33.75, -84.39},
	'4': {39.96, -83.00}, '5': {44.98, -93.27}, '6': {41.88, -87.63}, '7': {30.27, -97.74},
	'8': {39.74, -104.99}, '9': {37.77, -122.42},
}

var countryCentroids = map[string]latLon{
	"GB": {54.00, -2.00}, "IE": {53.41, -8.24}, "FR": {46.23, 2.21}, "DE": {51.17, 10.45},
	"NL": {52.13, 5.29}, "BE": {50.50, 4.47}, "ES": {40.46, -3.75}, "PT": {39.40, -8.22},
	"IT": {41.87, 12.57}, "CH": {46.82, 8.23}, "AT": {47.52, 14.55}, "PL": {51.92, 19.15},
	"SE": {60.13, 18.64}, "NO": {60.47, 8.47}, "DK": {56.26, 9.50}, "FI": {61.92, 25.75},
	"US": {39.83, -98.58}, "CA": {56.13, -106.35}, "MX": {23.63, -102.55}, "BR": {-14.24, -51.93},
	"AU": {-25.27, 133.78}, "NZ": {-40.90, 174.89}, "JP": {36.20, 138.25}, "CN": {35.86, 104.20},
	"IN": {20.59, 78.96}, "SG": {1.35, 103.82}, "AE": {23.42, 53.85}, "ZA": {-30.56, 22.94},
}

// RegionCentroid estimates where an address is: postcode area for GB,
// ZIP zone for US, country centroid otherwise.
func RegionCentroid(addr kernel.Address) (kernel.GeoPoint, bool) {
	var c latLon
	var ok bool

	switch addr.Country() {
	case "GB":
		c, ok = gbAreaCentroids[postcodeArea(addr.PostalCode())]
	case "US":
		if pc := addr.PostalCode(); pc != "" {
			c, ok = usZoneCentroids[pc[0]]
		}
	}
	if !ok {
		c, ok = countryCentroids[addr.Country()]
	}
	if !ok {
		return kernel.GeoPoint{}, false
	}

	p, err := kernel.NewGeoPoint(c.lat, c.lon)
	return p, err == nil
}

// EstimateDistanceKm is the great-circle distance between the two region centroids.
func EstimateDistanceKm(origin, destination kernel.Address) (float64, bool) {
	from, ok := RegionCentroid(origin)
	if !ok {
		return 0, false
	}
	to, ok := RegionCentroid(destination)
	if !ok {
		return 0, false
	}
	d, err := from.DistanceKm(to)
	return d, err == nil
}

func postcodeArea(postcode string) string {
	end := strings.IndexFunc(postcode, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(postcode)
	}
	return postcode[:end]
}
