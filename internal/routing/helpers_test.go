package routing

import (
	"fmt"

	"github.com/smarttransit/route-planner/internal/models"
)

// testNet is a hand-built network with exact durations and distances
type testNet struct {
	stops map[string]models.Stop
	lines map[string]models.Line
	adj   map[string][]models.Edge
}

func newTestNet() *testNet {
	return &testNet{
		stops: make(map[string]models.Stop),
		lines: make(map[string]models.Line),
		adj:   make(map[string][]models.Edge),
	}
}

func (n *testNet) stop(id string, lat, lng float64) *testNet {
	n.stops[id] = models.Stop{ID: id, Name: "Stop " + id, Coords: models.Coordinate{Lat: lat, Lng: lng}}
	return n
}

func (n *testNet) line(id string, mode models.Mode, fare float64) *testNet {
	n.lines[id] = models.Line{ID: id, Name: "Line " + id, Mode: mode, Fare: fare}
	return n
}

// ride adds a bidirectional hop on a line
func (n *testNet) ride(lineID, from, to string, minutes int, km float64) *testNet {
	line := n.lines[lineID]
	n.pair(models.Edge{From: from, To: to, LineID: lineID, LineName: line.Name, Mode: line.Mode, DurationMinutes: minutes, DistanceKm: km})
	return n
}

// walk adds a bidirectional walking connection
func (n *testNet) walk(from, to string, minutes int, km float64) *testNet {
	n.pair(models.Edge{From: from, To: to, Mode: models.ModeWalk, DurationMinutes: minutes, DistanceKm: km})
	return n
}

func (n *testNet) pair(e models.Edge) {
	r := e
	r.From, r.To = e.To, e.From
	n.adj[e.From] = append(n.adj[e.From], e)
	n.adj[r.From] = append(n.adj[r.From], r)
}

func (n *testNet) Edges(stopID string) []models.Edge {
	return n.adj[stopID]
}

func (n *testNet) StopByID(id string) (models.Stop, error) {
	s, ok := n.stops[id]
	if !ok {
		return models.Stop{}, fmt.Errorf("stop %q: %w", id, models.ErrNotFound)
	}
	return s, nil
}

func (n *testNet) LineByID(id string) (models.Line, error) {
	l, ok := n.lines[id]
	if !ok {
		return models.Line{}, fmt.Errorf("line %q: %w", id, models.ErrNotFound)
	}
	return l, nil
}

// minTransfersExhaustive enumerates every stop-simple path and returns the
// smallest transfer count, or -1 if destination is unreachable.
func minTransfersExhaustive(n *testNet, origin, destination string) int {
	best := -1
	visited := map[string]bool{origin: true}
	var path []models.Edge

	var dfs func(stop string)
	dfs = func(stop string) {
		if stop == destination {
			tc := TransferCount(GroupIntoSegments(path))
			if best < 0 || tc < best {
				best = tc
			}
			return
		}
		for _, e := range n.Edges(stop) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			path = append(path, e)
			dfs(e.To)
			path = path[:len(path)-1]
			visited[e.To] = false
		}
	}
	dfs(origin)
	return best
}

// scenarioNet builds line A (A-B-C-D) plus line E (C'-D') reachable by a
// 6 minute walk from B, with a short walk from D' to D.
func scenarioNet(lineAHop int) *testNet {
	n := newTestNet().
		stop("A", 6.900, 79.850).
		stop("B", 6.910, 79.850).
		stop("C", 6.920, 79.850).
		stop("D", 6.930, 79.850).
		stop("C'", 6.911, 79.852).
		stop("D'", 6.930, 79.851).
		line("LA", models.ModeBus, 7000).
		line("LE", models.ModeBus, 8000)

	n.ride("LA", "A", "B", lineAHop, 1).
		ride("LA", "B", "C", lineAHop, 1).
		ride("LA", "C", "D", lineAHop, 1).
		walk("B", "C'", 6, 0.3).
		ride("LE", "C'", "D'", 1, 1).
		walk("D'", "D", 1, 0.1)
	return n
}
