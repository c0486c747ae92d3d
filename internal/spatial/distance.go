package spatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/jengzang/activity-detection-go/internal/models"
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// SampleDistance is the great-circle distance between two location samples in meters
func SampleDistance(a, b models.LocationSample) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// DestinationPoint calculates the destination point given a start point, bearing, and distance
// bearing: degrees (0-360), distance: meters
func DestinationPoint(lat, lon, bearing, distance float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearing * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, lon2 * 180 / math.Pi
}

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers

	MetersPerMile = 1609.344
)

// MpsToMph converts meters per second to miles per hour
func MpsToMph(mps float64) float64 {
	return mps * 3600 / MetersPerMile
}

// MpsToKmh converts meters per second to kilometers per hour
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}

// MphToMps converts miles per hour to meters per second
func MphToMps(mph float64) float64 {
	return mph * MetersPerMile / 3600
}
