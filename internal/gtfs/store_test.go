package gtfs

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/route-planner/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func feed() fstest.MapFS {
	return fstest.MapFS{
		"stops.txt": {Data: []byte("\ufeffstop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Ben Thanh,10.7720,106.6983\n" +
			"S2,Opera House,10.7769,106.7031\n" +
			"S3,Bach Dang,10.7748,106.7066\n" +
			"BAD,Broken,not-a-number,106.7\n")},
		"routes.txt": {Data: []byte("route_id,route_short_name,route_long_name,route_type,route_color\n" +
			"R1,01,Ben Thanh - Bach Dang,3,ff0000\n" +
			"M1,M1,Metro Line 1,1,\n" +
			"F1,F,,4,00aaff\n")},
		"trips.txt": {Data: []byte("route_id,service_id,trip_id\n" +
			"R1,WD,R1-a\n" +
			"R1,WD,R1-b\n" +
			"M1,WD,M1-a\n")},
		"stop_times.txt": {Data: []byte("trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"R1-a,08:10:00,08:10:00,S3,3\n" +
			"R1-a,08:00:00,08:00:00,S1,1\n" +
			"R1-a,08:05:00,08:05:00,S2,2\n" +
			"R1-b,09:00:00,09:00:00,S3,1\n" +
			"M1-a,07:00:00,07:00:00,S1,1\n" +
			"M1-a,07:04:00,07:04:00,S2,2\n" +
			"M1-a,07:06:00,07:06:00,S2,3\n")},
	}
}

func TestListStops(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := NewStore(feed(), 7000, quietLogger())
		stops, err := store.ListStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 3)
		assert.Equal(t, "S1", stops[0].ID)
		assert.Equal(t, "Ben Thanh", stops[0].Name)
		assert.Equal(t, models.Coordinate{Lat: 10.7720, Lng: 106.6983}, stops[0].Coords)
	})

	t.Run("Prefers enriched stops", func(t *testing.T) {
		fsys := feed()
		fsys["stops-enriched.txt"] = &fstest.MapFile{Data: []byte("stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Ben Thanh Market,10.7720,106.6983\n")}
		store := NewStore(fsys, 7000, quietLogger())

		stops, err := store.ListStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "Ben Thanh Market", stops[0].Name)
	})

	t.Run("Missing file", func(t *testing.T) {
		store := NewStore(fstest.MapFS{}, 7000, quietLogger())
		_, err := store.ListStops(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stops.txt")
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewStore(feed(), 7000, quietLogger()).ListStops(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestListLines(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := NewStore(feed(), 7000, quietLogger())
		lines, err := store.ListLines(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 3)

		bus := lines[0]
		assert.Equal(t, "R1", bus.ID)
		assert.Equal(t, "Ben Thanh - Bach Dang", bus.Name)
		assert.Equal(t, models.ModeBus, bus.Mode)
		assert.Equal(t, "#ff0000", bus.Color)
		assert.Equal(t, 7000.0, bus.Fare)
		assert.Equal(t, []string{"S1", "S2", "S3"}, bus.StopIDs)

		metro := lines[1]
		assert.Equal(t, models.ModeTrain, metro.Mode)
		assert.Equal(t, DefaultColor, metro.Color)
		assert.Equal(t, []string{"S1", "S2"}, metro.StopIDs)

		ferry := lines[2]
		assert.Equal(t, "F", ferry.Name)
		assert.Equal(t, models.ModeFerry, ferry.Mode)
		assert.Empty(t, ferry.StopIDs)
	})

	t.Run("Missing trip data", func(t *testing.T) {
		for _, name := range []string{"trips.txt", "stop_times.txt"} {
			fsys := feed()
			delete(fsys, name)
			lines, err := NewStore(fsys, 5000, quietLogger()).ListLines(ctx)
			assert.Nil(t, lines)
			assert.True(t, errors.Is(err, models.ErrDataUnavailable), name)
			assert.Contains(t, err.Error(), name)
		}
	})

	t.Run("Skips leading trips without stop times", func(t *testing.T) {
		fsys := feed()
		fsys["trips.txt"] = &fstest.MapFile{Data: []byte("route_id,service_id,trip_id\n" +
			"R1,WD,R1-empty\n" +
			"R1,WD,R1-a\n" +
			"M1,WD,M1-broken\n" +
			"M1,WD,M1-a\n")}
		fsys["stop_times.txt"] = &fstest.MapFile{Data: append(fsys["stop_times.txt"].Data,
			[]byte("M1-broken,06:00:00,06:00:00,S3,first\n")...)}

		lines, err := NewStore(fsys, 7000, quietLogger()).ListLines(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"S1", "S2", "S3"}, lines[0].StopIDs)
		assert.Equal(t, []string{"S1", "S2"}, lines[1].StopIDs)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewStore(feed(), 7000, quietLogger()).ListLines(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Missing routes", func(t *testing.T) {
		fsys := feed()
		delete(fsys, "routes.txt")
		_, err := NewStore(fsys, 7000, quietLogger()).ListLines(ctx)
		assert.Error(t, err)
	})
}

func TestModeForRouteType(t *testing.T) {
	for _, rt := range []int{0, 1, 2, 400, 401, 402} {
		assert.Equal(t, models.ModeTrain, ModeForRouteType(rt))
	}
	assert.Equal(t, models.ModeFerry, ModeForRouteType(4))
	assert.Equal(t, models.ModeBus, ModeForRouteType(3))
	assert.Equal(t, models.ModeBus, ModeForRouteType(700))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("Directory", func(t *testing.T) {
		feedDir := filepath.Join(dir, "feed")
		require.NoError(t, os.MkdirAll(feedDir, 0o755))
		for name, f := range feed() {
			require.NoError(t, os.WriteFile(filepath.Join(feedDir, name), f.Data, 0o600))
		}

		fsys, closer, err := Open(feedDir)
		require.NoError(t, err)
		defer closer.Close()

		stops, err := NewStore(fsys, 7000, quietLogger()).ListStops(ctx)
		require.NoError(t, err)
		assert.Len(t, stops, 3)
	})

	t.Run("Zip", func(t *testing.T) {
		zipPath := filepath.Join(dir, "feed.zip")
		out, err := os.Create(zipPath)
		require.NoError(t, err)
		zw := zip.NewWriter(out)
		for name, f := range feed() {
			w, err := zw.Create(name)
			require.NoError(t, err)
			_, err = w.Write(f.Data)
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())
		require.NoError(t, out.Close())

		fsys, closer, err := Open(zipPath)
		require.NoError(t, err)
		defer closer.Close()

		lines, err := NewStore(fsys, 7000, quietLogger()).ListLines(ctx)
		require.NoError(t, err)
		assert.Len(t, lines, 3)
	})

	t.Run("Missing path", func(t *testing.T) {
		_, _, err := Open(filepath.Join(dir, "nope.zip"))
		assert.Error(t, err)
	})
}
