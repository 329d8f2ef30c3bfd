package geo

import (
	"sort"

	"github.com/smarttransit/route-planner/internal/models"
)

// DefaultMinSeparationKm keeps k-nearest results at distinct boarding locations
const DefaultMinSeparationKm = 0.05

// StopDistance pairs a stop with its distance from a query point
type StopDistance struct {
	Stop       models.Stop
	DistanceKm float64
}

// NearestStop returns the stop closest to c. Ties keep the first stop encountered.
// ok is false when stops is empty.
func NearestStop(stops []models.Stop, c models.Coordinate) (models.Stop, float64, bool) {
	var (
		best     models.Stop
		bestDist float64
		found    bool
	)
	for _, s := range stops {
		d := HaversineKm(c, s.Coords)
		if !found || d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, bestDist, found
}

// NearestStops returns up to k stops ordered by ascending distance from c.
// A candidate within minSeparationKm of an already selected stop is skipped.
func NearestStops(stops []models.Stop, c models.Coordinate, k int, minSeparationKm float64) []StopDistance {
	if k <= 0 || len(stops) == 0 {
		return nil
	}

	ranked := rankByDistance(stops, c)

	selected := make([]StopDistance, 0, k)
	for _, cand := range ranked {
		if len(selected) == k {
			break
		}
		tooClose := false
		for _, sel := range selected {
			if HaversineKm(cand.Stop.Coords, sel.Stop.Coords) < minSeparationKm {
				tooClose = true
				break
			}
		}
		if !tooClose {
			selected = append(selected, cand)
		}
	}
	return selected
}

// StopsWithin returns stops no farther than radiusKm from c, nearest first.
// limit <= 0 means no limit.
func StopsWithin(stops []models.Stop, c models.Coordinate, radiusKm float64, limit int) []StopDistance {
	ranked := rankByDistance(stops, c)

	var out []StopDistance
	for _, sd := range ranked {
		if sd.DistanceKm > radiusKm {
			break
		}
		out = append(out, sd)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func rankByDistance(stops []models.Stop, c models.Coordinate) []StopDistance {
	ranked := make([]StopDistance, len(stops))
	for i, s := range stops {
		ranked[i] = StopDistance{Stop: s, DistanceKm: HaversineKm(c, s.Coords)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}
