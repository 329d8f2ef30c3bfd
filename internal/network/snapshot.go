package network

import (
	"fmt"
	"time"

	"github.com/smarttransit/route-planner/internal/models"
)

// Snapshot is an immutable, fully built copy of the stop/line/edge graph.
// Values returned from its accessors must not be modified by callers.
type Snapshot struct {
	Version      string
	Source       string
	LoadedAt     time.Time
	LoadDuration time.Duration

	stops     []models.Stop
	stopIndex map[string]int
	lines     map[string]models.Line
	lineOrder []string
	adjacency map[string][]models.Edge

	edgeCount     int
	walkEdgeCount int
}

// StopByID returns the stop with the given ID
func (s *Snapshot) StopByID(id string) (models.Stop, error) {
	i, ok := s.stopIndex[id]
	if !ok {
		return models.Stop{}, fmt.Errorf("stop %q: %w", id, models.ErrNotFound)
	}
	return s.stops[i], nil
}

// LineByID returns the line with the given ID
func (s *Snapshot) LineByID(id string) (models.Line, error) {
	line, ok := s.lines[id]
	if !ok {
		return models.Line{}, fmt.Errorf("line %q: %w", id, models.ErrNotFound)
	}
	return line, nil
}

// Stops returns all stops in load order
func (s *Snapshot) Stops() []models.Stop {
	return s.stops
}

// Lines returns all lines in load order
func (s *Snapshot) Lines() []models.Line {
	out := make([]models.Line, 0, len(s.lineOrder))
	for _, id := range s.lineOrder {
		out = append(out, s.lines[id])
	}
	return out
}

// Edges returns the outgoing edges of a stop
func (s *Snapshot) Edges(stopID string) []models.Edge {
	return s.adjacency[stopID]
}

// LinesServing returns the IDs of lines with an edge touching stopID
func (s *Snapshot) LinesServing(stopID string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range s.adjacency[stopID] {
		if e.IsWalk() || seen[e.LineID] {
			continue
		}
		seen[e.LineID] = true
		ids = append(ids, e.LineID)
	}
	return ids
}

// Status summarizes the snapshot for status endpoints and logs
func (s *Snapshot) Status() models.NetworkStatus {
	return models.NetworkStatus{
		Loaded:     true,
		Version:    s.Version,
		Source:     s.Source,
		LoadedAt:   s.LoadedAt.UTC().Format(time.RFC3339),
		StopCount:  len(s.stops),
		LineCount:  len(s.lines),
		EdgeCount:  s.edgeCount,
		WalkEdges:  s.walkEdgeCount,
		LoadTimeMs: s.LoadDuration.Milliseconds(),
	}
}
