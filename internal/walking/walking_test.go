package walking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/route-planner/internal/models"
)

const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var (
	from = models.Coordinate{Lat: 6.9271, Lng: 79.8612}
	to   = models.Coordinate{Lat: 6.9344, Lng: 79.8428}
)

func TestStraightLine(t *testing.T) {
	leg, err := NewStraightLineProvider(80).Route(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, SourceStraightLine, leg.Source)
	assert.InDelta(t, 2.18, leg.DistanceKm, 0.05)
	assert.Equal(t, 28, leg.DurationMinutes)

	ls, ok := leg.Geometry.Coordinates.(orb.LineString)
	require.True(t, ok)
	require.Len(t, ls, 2)
	assert.Equal(t, orb.Point{from.Lng, from.Lat}, ls[0])
	assert.Equal(t, orb.Point{to.Lng, to.Lat}, ls[1])
}

func TestORSProvider(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/directions/foot-walking", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("Authorization"))

			var req DirectionsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, [2]float64{from.Lng, from.Lat}, req.Coordinates[0])
			assert.Equal(t, [2]float64{to.Lng, to.Lat}, req.Coordinates[1])
			assert.False(t, req.Instructions)

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"routes":[{"summary":{"distance":2450.5,"duration":1770},"geometry":%q}]}`, samplePolyline)
		}))
		defer server.Close()

		provider := NewORSProvider(ORSConfig{BaseURL: server.URL + "/", APIKey: "test-key"})
		leg, err := provider.Route(context.Background(), from, to)
		require.NoError(t, err)

		assert.Equal(t, SourceORS, leg.Source)
		assert.InDelta(t, 2.4505, leg.DistanceKm, 1e-9)
		assert.Equal(t, 30, leg.DurationMinutes)

		ls, ok := leg.Geometry.Coordinates.(orb.LineString)
		require.True(t, ok)
		require.Len(t, ls, 3)
		assert.InDelta(t, -120.2, ls[0][0], 1e-6)
		assert.InDelta(t, 38.5, ls[0][1], 1e-6)
		assert.InDelta(t, -126.453, ls[2][0], 1e-6)
	})

	t.Run("Error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"code":403,"message":"Access to this API has been disallowed"}}`)
		}))
		defer server.Close()

		_, err := NewORSProvider(ORSConfig{BaseURL: server.URL}).Route(context.Background(), from, to)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
		assert.Contains(t, err.Error(), "disallowed")
	})

	t.Run("No routes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"routes":[]}`)
		}))
		defer server.Close()

		_, err := NewORSProvider(ORSConfig{BaseURL: server.URL}).Route(context.Background(), from, to)
		assert.Error(t, err)
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		_, err := NewORSProvider(ORSConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond}).Route(context.Background(), from, to)
		assert.Error(t, err)
	})
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Route(ctx context.Context, a, b models.Coordinate) (*models.WalkingLeg, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return StraightLine(a, b, 80), nil
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Quantized origin hits cache", func(t *testing.T) {
		next := &countingProvider{}
		cached := NewCachedProvider(next, 10, time.Minute, quietLogger())

		first, err := cached.Route(ctx, from, to)
		require.NoError(t, err)

		nudged := models.Coordinate{Lat: from.Lat + 0.00001, Lng: from.Lng}
		second, err := cached.Route(ctx, nudged, to)
		require.NoError(t, err)

		assert.Equal(t, int32(1), next.calls.Load())
		assert.Equal(t, first.DistanceKm, second.DistanceKm)
		assert.Equal(t, nudged, second.From)
		assert.Equal(t, 1, cached.Len())
	})

	t.Run("Different destination misses", func(t *testing.T) {
		next := &countingProvider{}
		cached := NewCachedProvider(next, 10, time.Minute, quietLogger())

		_, err := cached.Route(ctx, from, to)
		require.NoError(t, err)
		_, err = cached.Route(ctx, from, models.Coordinate{Lat: to.Lat + 0.00001, Lng: to.Lng})
		require.NoError(t, err)

		assert.Equal(t, int32(2), next.calls.Load())
	})

	t.Run("Errors are not cached", func(t *testing.T) {
		next := &countingProvider{err: fmt.Errorf("boom")}
		cached := NewCachedProvider(next, 10, time.Minute, quietLogger())

		_, err := cached.Route(ctx, from, to)
		assert.Error(t, err)
		_, err = cached.Route(ctx, from, to)
		assert.Error(t, err)
		assert.Equal(t, int32(2), next.calls.Load())
	})
}

func TestFallbackProvider(t *testing.T) {
	primary := &countingProvider{err: fmt.Errorf("upstream down")}
	provider := WithFallback(primary, NewStraightLineProvider(80), quietLogger())

	leg, err := provider.Route(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, SourceStraightLine, leg.Source)
	assert.Equal(t, int32(1), primary.calls.Load())
}
