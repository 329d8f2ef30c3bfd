package network

import (
	"fmt"
	"math"
	"sort"

	"github.com/smarttransit/route-planner/internal/geo"
	"github.com/smarttransit/route-planner/internal/models"
)

// BuildOptions controls edge derivation
type BuildOptions struct {
	BusSpeedKmh     float64
	RailSpeedKmh    float64 // trains and ferries
	WalkThresholdKm float64
	WalkSpeedKmh    float64
}

// DefaultBuildOptions returns 20 km/h buses, 40 km/h rail and ferries,
// and 5 km/h walks between stops at most 100 m apart.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		BusSpeedKmh:     20,
		RailSpeedKmh:    40,
		WalkThresholdKm: 0.1,
		WalkSpeedKmh:    5,
	}
}

func (o BuildOptions) speedFor(mode models.Mode) float64 {
	switch mode {
	case models.ModeTrain, models.ModeFerry:
		return o.RailSpeedKmh
	default:
		return o.BusSpeedKmh
	}
}

// Build derives edges from stops and lines and returns a ready snapshot.
// It fails with ErrDataUnavailable when there are no stops, or when lines
// are present but none of them yields a single edge.
func Build(stops []models.Stop, lines []models.Line, opts BuildOptions) (*Snapshot, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("no stops in schedule: %w", models.ErrDataUnavailable)
	}

	snap := &Snapshot{
		stops:     make([]models.Stop, 0, len(stops)),
		stopIndex: make(map[string]int, len(stops)),
		lines:     make(map[string]models.Line, len(lines)),
		adjacency: make(map[string][]models.Edge),
	}

	for _, s := range stops {
		if _, dup := snap.stopIndex[s.ID]; dup {
			continue
		}
		snap.stopIndex[s.ID] = len(snap.stops)
		snap.stops = append(snap.stops, s)
	}

	for _, line := range lines {
		if _, dup := snap.lines[line.ID]; dup {
			continue
		}
		line.StopIDs = append([]string(nil), line.StopIDs...)
		snap.lines[line.ID] = line
		snap.lineOrder = append(snap.lineOrder, line.ID)
		snap.addLineEdges(line, opts)
	}
	if len(snap.lines) > 0 && snap.edgeCount == 0 {
		return nil, fmt.Errorf("%d lines but no stop sequences resolve to stops: %w",
			len(snap.lines), models.ErrDataUnavailable)
	}

	snap.addWalkEdges(opts)

	return snap, nil
}

func (s *Snapshot) addLineEdges(line models.Line, opts BuildOptions) {
	speed := opts.speedFor(line.Mode)

	for i := 0; i+1 < len(line.StopIDs); i++ {
		fromID, toID := line.StopIDs[i], line.StopIDs[i+1]
		if fromID == toID {
			continue
		}
		fi, okFrom := s.stopIndex[fromID]
		ti, okTo := s.stopIndex[toID]
		if !okFrom || !okTo {
			continue
		}

		dist := geo.HaversineKm(s.stops[fi].Coords, s.stops[ti].Coords)
		forward := models.Edge{
			From:            fromID,
			To:              toID,
			LineID:          line.ID,
			LineName:        line.Name,
			Mode:            line.Mode,
			DurationMinutes: geo.TravelMinutes(dist, speed),
			DistanceKm:      dist,
		}
		s.addPair(forward)
	}
}

// addWalkEdges links every unordered pair of stops within the walking threshold.
// Stops are swept in latitude order; once the latitude gap alone exceeds the
// threshold no later stop can qualify.
func (s *Snapshot) addWalkEdges(opts BuildOptions) {
	if opts.WalkThresholdKm <= 0 {
		return
	}

	order := make([]int, len(s.stops))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.stops[order[a]].Coords.Lat < s.stops[order[b]].Coords.Lat
	})

	maxLatGap := opts.WalkThresholdKm / geo.EarthRadiusKm * 180 / math.Pi

	for a := 0; a < len(order); a++ {
		from := s.stops[order[a]]
		for b := a + 1; b < len(order); b++ {
			to := s.stops[order[b]]
			if to.Coords.Lat-from.Coords.Lat > maxLatGap {
				break
			}
			dist := geo.HaversineKm(from.Coords, to.Coords)
			if dist > opts.WalkThresholdKm {
				continue
			}
			s.addPair(models.Edge{
				From:            from.ID,
				To:              to.ID,
				Mode:            models.ModeWalk,
				DurationMinutes: geo.TravelMinutes(dist, opts.WalkSpeedKmh),
				DistanceKm:      dist,
			})
			s.walkEdgeCount += 2
		}
	}
}

func (s *Snapshot) addPair(e models.Edge) {
	reverse := e
	reverse.From, reverse.To = e.To, e.From
	s.adjacency[e.From] = append(s.adjacency[e.From], e)
	s.adjacency[reverse.From] = append(s.adjacency[reverse.From], reverse)
	s.edgeCount += 2
}
