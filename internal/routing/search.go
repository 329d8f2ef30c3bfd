package routing

import (
	"container/heap"

	"github.com/smarttransit/route-planner/internal/models"
)

// walkLabel is the active line of a state reached on foot
const walkLabel = "walk"

// Graph is the adjacency the search runs over
type Graph interface {
	Edges(stopID string) []models.Edge
}

// Path is the raw edge sequence found by the search
type Path struct {
	Edges []models.Edge
	Score float64
}

// Empty reports whether no route was found
func (p Path) Empty() bool {
	return len(p.Edges) == 0
}

// stateKey identifies a search node. Line is the active line ("walk" after a
// walking edge, "" at the start); LastRide is the last line actually ridden and
// survives walks so that leaving one line on foot and boarding another still
// counts as a line change.
type stateKey struct {
	StopID   string
	Line     string
	LastRide string
}

func (k stateKey) advance(e models.Edge) stateKey {
	if e.IsWalk() {
		return stateKey{StopID: e.To, Line: walkLabel, LastRide: k.LastRide}
	}
	return stateKey{StopID: e.To, Line: e.LineID, LastRide: e.LineID}
}

type step struct {
	parent stateKey
	edge   models.Edge
}

type queueItem struct {
	key   stateKey
	score float64
	seq   uint64
}

// stateQueue is a min-heap on score, FIFO among equal scores
type stateQueue []*queueItem

func (q stateQueue) Len() int { return len(q) }

func (q stateQueue) Less(i, j int) bool {
	if q[i].score == q[j].score {
		return q[i].seq < q[j].seq
	}
	return q[i].score < q[j].score
}

func (q stateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *stateQueue) Push(x interface{}) {
	*q = append(*q, x.(*queueItem))
}

func (q *stateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// FindPath runs a line-aware Dijkstra from origin to destination under filter.
// It returns an empty path when the destination is unreachable or equals the origin.
func FindPath(g Graph, policy *Policy, origin, destination string, filter models.Filter) Path {
	if origin == destination {
		return Path{}
	}

	start := stateKey{StopID: origin}
	best := map[stateKey]float64{start: 0}
	steps := make(map[stateKey]step)
	settled := make(map[stateKey]bool)

	var seq uint64
	pq := &stateQueue{}
	heap.Push(pq, &queueItem{key: start, score: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*queueItem)
		if settled[item.key] {
			continue
		}
		settled[item.key] = true

		if item.key.StopID == destination {
			return Path{Edges: unwind(steps, start, item.key), Score: item.score}
		}

		for _, e := range g.Edges(item.key.StopID) {
			next := item.key.advance(e)
			if settled[next] {
				continue
			}
			candidate := item.score + policy.Score(e, filter, item.key.LastRide)
			if known, ok := best[next]; ok && candidate >= known {
				continue
			}
			best[next] = candidate
			steps[next] = step{parent: item.key, edge: e}
			seq++
			heap.Push(pq, &queueItem{key: next, score: candidate, seq: seq})
		}
	}

	return Path{}
}

func unwind(steps map[stateKey]step, start, end stateKey) []models.Edge {
	var reversed []models.Edge
	for cur := end; cur != start; {
		s := steps[cur]
		reversed = append(reversed, s.edge)
		cur = s.parent
	}

	edges := make([]models.Edge, len(reversed))
	for i, e := range reversed {
		edges[len(reversed)-1-i] = e
	}
	return edges
}
