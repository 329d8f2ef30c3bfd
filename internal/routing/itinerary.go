package routing

import (
	"fmt"
	"math"

	"github.com/smarttransit/route-planner/internal/models"
)

// Network is the read-only view the assembler needs
type Network interface {
	Graph
	StopByID(id string) (models.Stop, error)
	LineByID(id string) (models.Line, error)
}

// segmentLabel is the grouping key of an edge: its line, or "walk"
func segmentLabel(e models.Edge) string {
	if e.IsWalk() {
		return walkLabel
	}
	return e.LineID
}

// GroupIntoSegments merges consecutive edges sharing line and mode
func GroupIntoSegments(edges []models.Edge) []models.Segment {
	var segments []models.Segment

	for _, e := range edges {
		if n := len(segments); n > 0 {
			last := &segments[n-1]
			if segmentLabelOf(last) == segmentLabel(e) && last.Mode == edgeMode(e) {
				last.ToStopID = e.To
				last.StopIDs = append(last.StopIDs, e.To)
				last.DurationMinutes += e.DurationMinutes
				last.DistanceKm += e.DistanceKm
				continue
			}
		}

		seg := models.Segment{
			Mode:            edgeMode(e),
			FromStopID:      e.From,
			ToStopID:        e.To,
			StopIDs:         []string{e.From, e.To},
			DurationMinutes: e.DurationMinutes,
			DistanceKm:      e.DistanceKm,
		}
		if !e.IsWalk() {
			seg.LineID = e.LineID
			seg.LineName = e.LineName
		}
		segments = append(segments, seg)
	}

	return segments
}

func segmentLabelOf(s *models.Segment) string {
	if s.Mode == models.ModeWalk || s.LineID == "" {
		return walkLabel
	}
	return s.LineID
}

func edgeMode(e models.Edge) models.Mode {
	if e.IsWalk() {
		return models.ModeWalk
	}
	return e.Mode
}

// distinctLines returns the distinct non-walk line IDs of segments in order
func distinctLines(segments []models.Segment) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range segments {
		if segmentLabelOf(&segments[i]) == walkLabel {
			continue
		}
		id := segments[i].LineID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// TransferCount is the number of distinct non-walk lines minus one, never negative
func TransferCount(segments []models.Segment) int {
	n := len(distinctLines(segments)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// Summarize aggregates segments. Each distinct line's fare is charged once.
func Summarize(segments []models.Segment, fares map[string]float64) models.Summary {
	var summary models.Summary
	for _, seg := range segments {
		summary.TotalDurationMinutes += seg.DurationMinutes
		summary.TotalDistanceKm += seg.DistanceKm
	}
	summary.LineIDs = []string{}
	for _, id := range distinctLines(segments) {
		summary.TotalFare += fares[id]
		summary.LineIDs = append(summary.LineIDs, id)
	}
	summary.TotalDistanceKm = roundKm(summary.TotalDistanceKm)
	summary.TransferCount = TransferCount(segments)
	return summary
}

// ExtractCoordinates lists the coordinates of every visited stop, dropping
// a coordinate identical to the one just before it.
func ExtractCoordinates(segments []models.Segment, lookup func(id string) (models.Stop, error)) ([]models.Coordinate, error) {
	var coords []models.Coordinate
	for _, seg := range segments {
		for _, id := range seg.StopIDs {
			stop, err := lookup(id)
			if err != nil {
				return nil, err
			}
			if n := len(coords); n > 0 && coords[n-1] == stop.Coords {
				continue
			}
			coords = append(coords, stop.Coords)
		}
	}
	return coords, nil
}

// Assemble turns a raw path into an itinerary for filter.
// The itinerary ID is left for the caller to assign.
func Assemble(net Network, path Path, filter models.Filter) (*models.Itinerary, error) {
	if path.Empty() {
		return nil, fmt.Errorf("cannot assemble an empty path")
	}

	segments := GroupIntoSegments(path.Edges)

	fares := make(map[string]float64)
	for _, id := range distinctLines(segments) {
		line, err := net.LineByID(id)
		if err != nil {
			return nil, fmt.Errorf("error resolving line: %w", err)
		}
		fares[id] = line.Fare
	}

	if err := annotateSegments(net, segments, fares); err != nil {
		return nil, err
	}

	coords, err := ExtractCoordinates(segments, net.StopByID)
	if err != nil {
		return nil, fmt.Errorf("error resolving stop: %w", err)
	}

	from, err := net.StopByID(segments[0].FromStopID)
	if err != nil {
		return nil, fmt.Errorf("error resolving stop: %w", err)
	}
	to, err := net.StopByID(segments[len(segments)-1].ToStopID)
	if err != nil {
		return nil, fmt.Errorf("error resolving stop: %w", err)
	}

	summary := Summarize(segments, fares)
	for i := range segments {
		segments[i].DistanceKm = roundKm(segments[i].DistanceKm)
	}

	return &models.Itinerary{
		Filter:      string(filter),
		Title:       filter.Title(),
		From:        from,
		To:          to,
		Segments:    segments,
		Coordinates: coords,
		Summary:     summary,
	}, nil
}

// annotateSegments fills names, fares, transfer flags and instructions
func annotateSegments(net Network, segments []models.Segment, fares map[string]float64) error {
	charged := make(map[string]bool)
	previousLine := ""

	for i := range segments {
		seg := &segments[i]

		fromStop, err := net.StopByID(seg.FromStopID)
		if err != nil {
			return fmt.Errorf("error resolving stop: %w", err)
		}
		toStop, err := net.StopByID(seg.ToStopID)
		if err != nil {
			return fmt.Errorf("error resolving stop: %w", err)
		}

		if seg.Mode == models.ModeWalk {
			seg.Instruction = fmt.Sprintf("Walk from %s to %s", fromStop.Name, toStop.Name)
			continue
		}

		if seg.LineName == "" {
			if line, err := net.LineByID(seg.LineID); err == nil {
				seg.LineName = line.Name
			}
		}
		if !charged[seg.LineID] {
			seg.Fare = fares[seg.LineID]
			charged[seg.LineID] = true
		}
		seg.IsTransfer = previousLine != "" && previousLine != seg.LineID
		previousLine = seg.LineID

		stops := len(seg.StopIDs) - 1
		plural := "s"
		if stops == 1 {
			plural = ""
		}
		verb := "Take"
		if seg.IsTransfer {
			verb = "Transfer to"
		}
		seg.Instruction = fmt.Sprintf("%s %s %s from %s to %s (%d stop%s)",
			verb, seg.Mode, seg.LineName, fromStop.Name, toStop.Name, stops, plural)
	}
	return nil
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
