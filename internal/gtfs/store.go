package gtfs

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
)

const (
	// DefaultColor is used when routes.txt carries no route_color
	DefaultColor = "#1f8eed"

	enrichedStopsFile = "stops-enriched.txt"
	stopsFile         = "stops.txt"
	routesFile        = "routes.txt"
	tripsFile         = "trips.txt"
	stopTimesFile     = "stop_times.txt"
)

// Store reads stops and lines from a static GTFS feed
type Store struct {
	fsys        fs.FS
	defaultFare float64
	logger      *logrus.Logger
}

// NewStore creates a Store over an opened feed
func NewStore(fsys fs.FS, defaultFare float64, logger *logrus.Logger) *Store {
	return &Store{
		fsys:        fsys,
		defaultFare: defaultFare,
		logger:      logger,
	}
}

// Open opens a GTFS feed from a zip archive or an extracted directory
func Open(path string) (fs.FS, io.Closer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening GTFS feed: %w", err)
	}
	if info.IsDir() {
		return os.DirFS(path), io.NopCloser(nil), nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zip: %w", err)
	}
	return r, r, nil
}

// ListStops returns stops from stops-enriched.txt when present, stops.txt otherwise
func (s *Store) ListStops(ctx context.Context) ([]models.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := stopsFile
	if _, err := fs.Stat(s.fsys, enrichedStopsFile); err == nil {
		name = enrichedStopsFile
	}

	var stops []models.Stop
	skipped := 0
	err := s.readFile(name, func(row record) {
		lat, latErr := strconv.ParseFloat(row.get("stop_lat"), 64)
		lng, lngErr := strconv.ParseFloat(row.get("stop_lon"), 64)
		id := row.get("stop_id")
		if id == "" || latErr != nil || lngErr != nil {
			skipped++
			return
		}
		stops = append(stops, models.Stop{
			ID:     id,
			Name:   row.get("stop_name"),
			Coords: models.Coordinate{Lat: lat, Lng: lng},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":    name,
		"stops":   len(stops),
		"skipped": skipped,
	}).Info("GTFS stops parsed")

	return stops, nil
}

// ListLines returns one line per route. A line's stop sequence is taken from
// the first trip of the route in trips.txt that has stop times, ordered by
// stop_sequence. Missing trip data fails with ErrDataUnavailable.
func (s *Store) ListLines(ctx context.Context) ([]models.Line, error) {
	var lines []models.Line
	err := s.readFile(routesFile, func(row record) {
		routeType, _ := strconv.Atoi(row.get("route_type"))
		name := row.get("route_long_name")
		if name == "" {
			name = row.get("route_short_name")
		}
		color := DefaultColor
		if c := row.get("route_color"); c != "" {
			color = "#" + strings.TrimPrefix(c, "#")
		}
		lines = append(lines, models.Line{
			ID:    row.get("route_id"),
			Name:  name,
			Mode:  ModeForRouteType(routeType),
			Fare:  s.defaultFare,
			Color: color,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sequences, err := s.firstTripSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading trips: %w: %w", err, models.ErrDataUnavailable)
	}

	empty := 0
	for i := range lines {
		lines[i].StopIDs = sequences[lines[i].ID]
		if len(lines[i].StopIDs) == 0 {
			empty++
		}
	}

	entry := s.logger.WithFields(logrus.Fields{
		"lines":         len(lines),
		"without_stops": empty,
	})
	if empty > 0 {
		entry.Warn("GTFS routes parsed, some routes have no trips with stop times")
	} else {
		entry.Info("GTFS routes parsed")
	}
	return lines, nil
}

// ModeForRouteType maps a GTFS route_type to a transit mode
func ModeForRouteType(routeType int) models.Mode {
	switch routeType {
	case 0, 1, 2, 400, 401, 402:
		return models.ModeTrain
	case 4:
		return models.ModeFerry
	default:
		return models.ModeBus
	}
}

type stopTime struct {
	sequence int
	stopID   string
}

func parseStopTime(row record) (stopTime, bool) {
	seq, err := strconv.Atoi(row.get("stop_sequence"))
	stopID := row.get("stop_id")
	if err != nil || stopID == "" {
		return stopTime{}, false
	}
	return stopTime{sequence: seq, stopID: stopID}, true
}

// firstTripSequences returns, per route, the ordered and de-duplicated stop IDs
// of the first trip in trips.txt that has stop times. stop_times.txt is read
// twice so only the chosen trips are held in memory.
func (s *Store) firstTripSequences(ctx context.Context) (map[string][]string, error) {
	tripRoute := make(map[string]string)    // trip_id -> route_id
	routeTrips := make(map[string][]string) // route_id -> trip_ids in file order
	err := s.readFile(tripsFile, func(row record) {
		tripID, routeID := row.get("trip_id"), row.get("route_id")
		if tripID == "" || routeID == "" {
			return
		}
		if _, dup := tripRoute[tripID]; dup {
			return
		}
		tripRoute[tripID] = routeID
		routeTrips[routeID] = append(routeTrips[routeID], tripID)
	})
	if err != nil {
		return nil, err
	}

	hasTimes := make(map[string]bool)
	err = s.readFile(stopTimesFile, func(row record) {
		tripID := row.get("trip_id")
		if _, ok := tripRoute[tripID]; !ok || hasTimes[tripID] {
			return
		}
		if _, ok := parseStopTime(row); ok {
			hasTimes[tripID] = true
		}
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chosen := make(map[string]string, len(routeTrips)) // trip_id -> route_id
	for routeID, trips := range routeTrips {
		for _, tripID := range trips {
			if hasTimes[tripID] {
				chosen[tripID] = routeID
				break
			}
		}
	}

	times := make(map[string][]stopTime, len(chosen))
	err = s.readFile(stopTimesFile, func(row record) {
		tripID := row.get("trip_id")
		if _, ok := chosen[tripID]; !ok {
			return
		}
		if st, ok := parseStopTime(row); ok {
			times[tripID] = append(times[tripID], st)
		}
	})
	if err != nil {
		return nil, err
	}

	sequences := make(map[string][]string, len(chosen))
	for tripID, routeID := range chosen {
		st := times[tripID]
		sort.SliceStable(st, func(i, j int) bool { return st[i].sequence < st[j].sequence })

		seen := make(map[string]bool)
		var ids []string
		for _, t := range st {
			if seen[t.stopID] {
				continue
			}
			seen[t.stopID] = true
			ids = append(ids, t.stopID)
		}
		sequences[routeID] = ids
	}
	return sequences, nil
}

type record struct {
	fields []string
	index  map[string]int
}

func (r record) get(field string) string {
	if i, ok := r.index[field]; ok && i < len(r.fields) {
		return strings.TrimSpace(r.fields[i])
	}
	return ""
}

// readFile streams the rows of a CSV file in the feed. Malformed rows are skipped.
func (s *Store) readFile(name string, fn func(record)) error {
	f, err := s.fsys.Open(name)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("error reading %s header: %w", name, err)
	}
	index := makeIndex(header)

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		fn(record{fields: fields, index: index})
	}
	return nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}
