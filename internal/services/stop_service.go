package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/geo"
	"github.com/smarttransit/route-planner/internal/models"
	"github.com/smarttransit/route-planner/internal/walking"
	"github.com/smarttransit/route-planner/pkg/validator"
)

// StopServiceConfig controls nearby stop lookups
type StopServiceConfig struct {
	NearbyRadiusKm      float64
	NearbyLimit         int
	PaceMetersPerMinute float64
}

// StopService exposes stop and line lookups on the current network
type StopService struct {
	networks SnapshotSource
	walker   walking.Provider
	cfg      StopServiceConfig
	coords   *validator.CoordinateValidator
	logger   *logrus.Logger
}

// NewStopService creates a new stop service
func NewStopService(networks SnapshotSource, walker walking.Provider, cfg StopServiceConfig, logger *logrus.Logger) *StopService {
	if cfg.NearbyRadiusKm <= 0 {
		cfg.NearbyRadiusKm = 1.5
	}
	if cfg.NearbyLimit <= 0 {
		cfg.NearbyLimit = 8
	}
	if cfg.PaceMetersPerMinute <= 0 {
		cfg.PaceMetersPerMinute = 80
	}
	if walker == nil {
		walker = walking.NewStraightLineProvider(cfg.PaceMetersPerMinute)
	}
	return &StopService{
		networks: networks,
		walker:   walker,
		cfg:      cfg,
		coords:   validator.NewCoordinateValidator(),
		logger:   logger,
	}
}

// NearbyStops returns walkable stops around c, nearest first
func (s *StopService) NearbyStops(ctx context.Context, c models.Coordinate) ([]models.NearbyStop, error) {
	if err := s.coords.Validate(c.Lat, c.Lng); err != nil {
		return nil, fmt.Errorf("location %v: %w: %w", c, err, models.ErrInvalidCoordinates)
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	found := geo.StopsWithin(snap.Stops(), c, s.cfg.NearbyRadiusKm, s.cfg.NearbyLimit)
	seen := make(map[string]int)
	stops := make([]models.NearbyStop, 0, len(found))

	for _, sd := range found {
		seen[sd.Stop.Name]++
		displayName := sd.Stop.Name
		if n := seen[sd.Stop.Name]; n > 1 {
			displayName = fmt.Sprintf("%s (%d)", sd.Stop.Name, n)
		}

		lines := snap.LinesServing(sd.Stop.ID)
		if lines == nil {
			lines = []string{}
		}

		stops = append(stops, models.NearbyStop{
			Stop:           sd.Stop,
			DisplayName:    displayName,
			DistanceKm:     math.Round(sd.DistanceKm*1000) / 1000,
			DistanceText:   geo.FormatDistance(sd.DistanceKm),
			WalkingMinutes: int(math.Round(sd.DistanceKm * 1000 / s.cfg.PaceMetersPerMinute)),
			Lines:          lines,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"lat":   c.Lat,
		"lng":   c.Lng,
		"found": len(stops),
	}).Debug("Nearby stops lookup")

	return stops, nil
}

// GetStop returns a stop and the lines serving it
func (s *StopService) GetStop(ctx context.Context, id string) (*models.StopDetails, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	stop, err := snap.StopByID(id)
	if err != nil {
		return nil, err
	}

	details := &models.StopDetails{Stop: stop, Lines: []models.Line{}}
	for _, lineID := range snap.LinesServing(id) {
		line, err := snap.LineByID(lineID)
		if err != nil {
			return nil, fmt.Errorf("error resolving line: %w", err)
		}
		details.Lines = append(details.Lines, line)
	}
	return details, nil
}

// GetLine returns a line with its stops in travel order
func (s *StopService) GetLine(ctx context.Context, id string) (*models.LineDetails, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	line, err := snap.LineByID(id)
	if err != nil {
		return nil, err
	}

	details := &models.LineDetails{Line: line, Stops: []models.Stop{}}
	for _, stopID := range line.StopIDs {
		stop, err := snap.StopByID(stopID)
		if err != nil {
			// Stops missing from the network were skipped at build time too
			continue
		}
		details.Stops = append(details.Stops, stop)
	}
	return details, nil
}

// WalkingToStop returns a walking leg from a location to a stop
func (s *StopService) WalkingToStop(ctx context.Context, id string, from models.Coordinate) (*models.WalkingLeg, error) {
	if err := s.coords.Validate(from.Lat, from.Lng); err != nil {
		return nil, fmt.Errorf("location %v: %w: %w", from, err, models.ErrInvalidCoordinates)
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	stop, err := snap.StopByID(id)
	if err != nil {
		return nil, err
	}

	leg, err := s.walker.Route(ctx, from, stop.Coords)
	if err != nil {
		s.logger.WithError(err).WithField("stop_id", id).Warn("Walking route unavailable, using straight line")
		return walking.StraightLine(from, stop.Coords, s.cfg.PaceMetersPerMinute), nil
	}
	return leg, nil
}
