package geo

import (
	"fmt"
	"math"

	"github.com/smarttransit/route-planner/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in kilometers
func HaversineKm(a, b models.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can leave h just outside [0, 1] near antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// WalkingMinutes estimates walking time for a distance at the given pace (meters per minute)
func WalkingMinutes(distanceKm, metersPerMinute float64) int {
	if metersPerMinute <= 0 || distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm * 1000 / metersPerMinute))
}

// TravelMinutes estimates travel time for a distance at the given speed (km/h)
func TravelMinutes(distanceKm, speedKmh float64) int {
	if speedKmh <= 0 || distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm / speedKmh * 60))
}

// FormatDistance renders a distance as meters below 1 km, kilometers otherwise
func FormatDistance(distanceKm float64) string {
	if distanceKm < 1 {
		return fmt.Sprintf("%d m", int(math.Round(distanceKm*1000)))
	}
	return fmt.Sprintf("%.2f km", distanceKm)
}
