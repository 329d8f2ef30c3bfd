package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/route-planner/internal/models"
)

func lineIDs(edges []models.Edge) []string {
	var ids []string
	for _, e := range edges {
		ids = append(ids, segmentLabel(e))
	}
	return ids
}

func TestFindPathScenario(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("Fastest stays on line A when it is quicker", func(t *testing.T) {
		net := scenarioNet(5)
		path := FindPath(net, policy, "A", "D", models.FilterFastest)
		require.False(t, path.Empty())
		assert.Equal(t, []string{"LA", "LA", "LA"}, lineIDs(path.Edges))

		it, err := Assemble(net, path, models.FilterFastest)
		require.NoError(t, err)
		assert.Equal(t, 15, it.Summary.TotalDurationMinutes)
		assert.Equal(t, 7000.0, it.Summary.TotalFare)
		assert.Equal(t, 0, it.Summary.TransferCount)
	})

	t.Run("Fastest switches lines when line A is slow", func(t *testing.T) {
		net := scenarioNet(30)
		path := FindPath(net, policy, "A", "D", models.FilterFastest)
		require.False(t, path.Empty())
		assert.Equal(t, []string{"LA", "walk", "LE", "walk"}, lineIDs(path.Edges))

		it, err := Assemble(net, path, models.FilterFastest)
		require.NoError(t, err)
		assert.Equal(t, 38, it.Summary.TotalDurationMinutes)
		assert.Equal(t, 15000.0, it.Summary.TotalFare)
		assert.Equal(t, 1, it.Summary.TransferCount)
	})

	t.Run("Cheapest avoids a second line even when slower", func(t *testing.T) {
		for _, hop := range []int{5, 30} {
			net := scenarioNet(hop)
			path := FindPath(net, policy, "A", "D", models.FilterCheapest)
			require.False(t, path.Empty())
			assert.Equal(t, []string{"LA", "LA", "LA"}, lineIDs(path.Edges))

			it, err := Assemble(net, path, models.FilterCheapest)
			require.NoError(t, err)
			assert.Equal(t, 7000.0, it.Summary.TotalFare)
		}
	})

	t.Run("Fewest transfers stays on line A", func(t *testing.T) {
		net := scenarioNet(30)
		path := FindPath(net, policy, "A", "D", models.FilterFewestTransfers)
		assert.Equal(t, []string{"LA", "LA", "LA"}, lineIDs(path.Edges))
	})
}

func TestFindPathNoRoute(t *testing.T) {
	net := newTestNet().
		stop("1", 6.90, 79.85).stop("2", 6.91, 79.85).
		stop("3", 7.20, 80.60).stop("4", 7.21, 80.60).
		line("X", models.ModeBus, 7000).line("Y", models.ModeTrain, 7000)
	net.ride("X", "1", "2", 5, 1).ride("Y", "3", "4", 5, 1)

	for _, filter := range models.AllFilters {
		t.Run(string(filter), func(t *testing.T) {
			path := FindPath(net, DefaultPolicy(), "1", "4", filter)
			assert.True(t, path.Empty())
			assert.Equal(t, 0.0, path.Score)
		})
	}

	t.Run("Same origin and destination", func(t *testing.T) {
		assert.True(t, FindPath(net, DefaultPolicy(), "1", "1", models.FilterFastest).Empty())
	})

	t.Run("Unknown origin", func(t *testing.T) {
		assert.True(t, FindPath(net, DefaultPolicy(), "nope", "2", models.FilterFastest).Empty())
	})
}

func TestFindPathLineChangeAcrossWalk(t *testing.T) {
	// P1 and P2 are the same platform reached on foot; staying on X after the
	// walk is free, switching to Y is a line change.
	net := newTestNet().
		stop("S", 6.90, 79.85).stop("P1", 6.91, 79.85).stop("P2", 6.9105, 79.85).stop("T", 6.92, 79.85).
		line("X", models.ModeBus, 7000).line("Y", models.ModeBus, 7000)
	net.ride("X", "S", "P1", 5, 1).
		walk("P1", "P2", 1, 0.05).
		ride("X", "P2", "T", 10, 1).
		ride("Y", "P2", "T", 9, 1)

	path := FindPath(net, DefaultPolicy(), "S", "T", models.FilterCheapest)
	assert.Equal(t, []string{"X", "walk", "X"}, lineIDs(path.Edges))

	it, err := Assemble(net, path, models.FilterCheapest)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, it.Summary.TotalFare)
	assert.Equal(t, 0, it.Summary.TransferCount)
	require.Len(t, it.Segments, 3)
	assert.False(t, it.Segments[2].IsTransfer)
	assert.Equal(t, 0.0, it.Segments[2].Fare)
}

func TestFewestTransfersIsMinimal(t *testing.T) {
	fixtures := map[string]struct {
		net         *testNet
		origin      string
		destination string
	}{
		"Slow direct line": {
			net: func() *testNet {
				n := newTestNet()
				for i, id := range []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"} {
					n.stop(id, 6.90+float64(i)*0.01, 79.85)
				}
				n.line("R", models.ModeBus, 7000).line("G", models.ModeBus, 7000).
					line("B", models.ModeBus, 7000).line("Y", models.ModeTrain, 7000).
					line("P", models.ModeBus, 7000)
				n.ride("R", "S1", "S2", 2, 1).ride("R", "S2", "S3", 2, 1).ride("R", "S3", "S4", 2, 1).
					ride("G", "S3", "S5", 2, 1).
					ride("B", "S5", "S8", 2, 1).
					ride("Y", "S1", "S6", 30, 1).ride("Y", "S6", "S7", 30, 1).ride("Y", "S7", "S8", 30, 1).
					ride("P", "S2", "S6", 1, 1)
				return n
			}(),
			origin:      "S1",
			destination: "S8",
		},
		"Transfer through a walk": {
			net: func() *testNet {
				n := newTestNet()
				for i := 0; i < 10; i++ {
					n.stop("T"+string(rune('0'+i)), 6.90+float64(i)*0.01, 79.85)
				}
				n.line("M", models.ModeBus, 7000).line("Q", models.ModeBus, 7000).
					line("K", models.ModeBus, 7000).line("L", models.ModeBus, 7000).
					line("Z", models.ModeBus, 7000).line("V", models.ModeBus, 7000).
					line("W", models.ModeBus, 7000)
				n.ride("M", "T0", "T1", 5, 1).ride("M", "T1", "T2", 5, 1).
					walk("T2", "T6", 3, 0.2).
					ride("Q", "T6", "T7", 5, 1).ride("Q", "T7", "T9", 5, 1).
					ride("K", "T0", "T4", 2, 1).ride("K", "T4", "T5", 2, 1).
					ride("L", "T5", "T8", 2, 1).
					ride("Z", "T8", "T9", 2, 1).
					ride("V", "T1", "T3", 1, 1).
					ride("W", "T3", "T9", 1, 1)
				return n
			}(),
			origin:      "T0",
			destination: "T9",
		},
		"Scenario": {
			net:         scenarioNet(30),
			origin:      "A",
			destination: "D",
		},
	}

	for name, fx := range fixtures {
		t.Run(name, func(t *testing.T) {
			expected := minTransfersExhaustive(fx.net, fx.origin, fx.destination)
			require.GreaterOrEqual(t, expected, 0)

			path := FindPath(fx.net, DefaultPolicy(), fx.origin, fx.destination, models.FilterFewestTransfers)
			require.False(t, path.Empty())
			assert.Equal(t, expected, TransferCount(GroupIntoSegments(path.Edges)))
		})
	}

	t.Run("Fastest may transfer more", func(t *testing.T) {
		fx := fixtures["Slow direct line"]
		fastest := FindPath(fx.net, DefaultPolicy(), fx.origin, fx.destination, models.FilterFastest)
		fewest := FindPath(fx.net, DefaultPolicy(), fx.origin, fx.destination, models.FilterFewestTransfers)

		assert.Equal(t, 2, TransferCount(GroupIntoSegments(fastest.Edges)))
		assert.Equal(t, 0, TransferCount(GroupIntoSegments(fewest.Edges)))
	})
}
