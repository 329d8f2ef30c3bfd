package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/smarttransit/route-planner/internal/geo"
	"github.com/smarttransit/route-planner/internal/models"
	"github.com/smarttransit/route-planner/internal/network"
	"github.com/smarttransit/route-planner/internal/routing"
	"github.com/smarttransit/route-planner/internal/walking"
	"github.com/smarttransit/route-planner/pkg/validator"
)

// SnapshotSource hands out the currently published network snapshot
type SnapshotSource interface {
	Current(ctx context.Context) (*network.Snapshot, error)
}

// PlannerConfig tunes coordinate planning
type PlannerConfig struct {
	OriginCandidates    int     // distinct stops tried around the origin
	MinSeparationKm     float64 // minimum spacing between origin candidates
	MinTripDistanceKm   float64 // closer coordinates are told to walk
	LongWalkKm          float64 // access walks above this get a notice
	FarDistanceKm       float64 // no-route reason switches to "too far"
	PaceMetersPerMinute float64
}

// DefaultPlannerConfig returns the stock planner settings
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		OriginCandidates:    3,
		MinSeparationKm:     geo.DefaultMinSeparationKm,
		MinTripDistanceKm:   0.2,
		LongWalkKm:          0.5,
		FarDistanceKm:       50,
		PaceMetersPerMinute: 80,
	}
}

// PlannerService answers route planning queries against the current network
type PlannerService struct {
	networks SnapshotSource
	policy   *routing.Policy
	walker   walking.Provider
	store    *ItineraryStore
	cfg      PlannerConfig
	coords   *validator.CoordinateValidator
	logger   *logrus.Logger
	now      func() time.Time
}

// NewPlannerService creates a new planner service
func NewPlannerService(
	networks SnapshotSource,
	policy *routing.Policy,
	walker walking.Provider,
	store *ItineraryStore,
	cfg PlannerConfig,
	logger *logrus.Logger,
) *PlannerService {
	defaults := DefaultPlannerConfig()
	if cfg.OriginCandidates <= 0 {
		cfg.OriginCandidates = defaults.OriginCandidates
	}
	if cfg.PaceMetersPerMinute <= 0 {
		cfg.PaceMetersPerMinute = defaults.PaceMetersPerMinute
	}
	if cfg.FarDistanceKm <= 0 {
		cfg.FarDistanceKm = defaults.FarDistanceKm
	}
	if cfg.LongWalkKm <= 0 {
		cfg.LongWalkKm = defaults.LongWalkKm
	}
	if policy == nil {
		policy = routing.DefaultPolicy()
	}
	if walker == nil {
		walker = walking.NewStraightLineProvider(cfg.PaceMetersPerMinute)
	}
	return &PlannerService{
		networks: networks,
		policy:   policy,
		walker:   walker,
		store:    store,
		cfg:      cfg,
		coords:   validator.NewCoordinateValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// planFunc produces the itinerary for one filter, or nil when there is none
type planFunc func(filter models.Filter) (*models.Itinerary, error)

// PlanBetweenStops plans itineraries between two stop IDs
func (s *PlannerService) PlanBetweenStops(ctx context.Context, req *models.PlanRequest) (*models.PlanResponse, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	filters, err := models.ParseFilters(req.Filter)
	if err != nil {
		return nil, err
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	from, err := snap.StopByID(req.OriginStopID)
	if err != nil {
		return nil, fmt.Errorf("origin stop: %w", err)
	}
	to, err := snap.StopByID(req.DestinationStopID)
	if err != nil {
		return nil, fmt.Errorf("destination stop: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"origin":      from.ID,
		"destination": to.ID,
		"filters":     filters,
		"version":     snap.Version,
	}).Info("Processing plan request")

	itineraries, err := s.planAll(ctx, filters, func(filter models.Filter) (*models.Itinerary, error) {
		path := routing.FindPath(snap, s.policy, from.ID, to.ID, filter)
		if path.Empty() {
			return nil, nil
		}
		return routing.Assemble(snap, path, filter)
	})
	if err != nil {
		return nil, err
	}

	response := &models.PlanResponse{
		From:           &from,
		To:             &to,
		NetworkVersion: snap.Version,
	}
	s.finish(response, itineraries, geo.HaversineKm(from.Coords, to.Coords))
	response.SearchTimeMs = time.Since(startTime).Milliseconds()

	s.logResult(response)
	return response, nil
}

// PlanBetweenCoordinates plans itineraries between two arbitrary points,
// adding walking legs to and from the chosen stops
func (s *PlannerService) PlanBetweenCoordinates(ctx context.Context, req *models.CoordinatePlanRequest) (*models.PlanResponse, error) {
	startTime := time.Now()

	if req.From == nil || req.To == nil {
		return nil, models.ErrInvalidInput("both from and to coordinates are required")
	}
	if err := s.coords.ValidatePresent(req.From.Lat, req.From.Lng); err != nil {
		return nil, fmt.Errorf("origin: %w: %w", err, models.ErrInvalidCoordinates)
	}
	if err := s.coords.ValidatePresent(req.To.Lat, req.To.Lng); err != nil {
		return nil, fmt.Errorf("destination: %w: %w", err, models.ErrInvalidCoordinates)
	}
	fromC, toC := req.From.Coordinate(), req.To.Coordinate()
	filters, err := models.ParseFilters(req.Filter)
	if err != nil {
		return nil, err
	}

	straightKm := geo.HaversineKm(fromC, toC)
	if straightKm < s.cfg.MinTripDistanceKm {
		return nil, models.ErrInvalidInput(fmt.Sprintf(
			"origin and destination are only %s apart, walking is recommended",
			geo.FormatDistance(straightKm),
		))
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading network: %w", err)
	}

	stops := snap.Stops()
	candidates := geo.NearestStops(stops, fromC, s.cfg.OriginCandidates, s.cfg.MinSeparationKm)
	destination, _, ok := geo.NearestStop(stops, toC)
	if len(candidates) == 0 || !ok {
		return nil, fmt.Errorf("no stops in network: %w", models.ErrDataUnavailable)
	}

	s.logger.WithFields(logrus.Fields{
		"from":        fromC,
		"to":          toC,
		"candidates":  len(candidates),
		"destination": destination.ID,
		"version":     snap.Version,
	}).Info("Processing coordinate plan request")

	response := &models.PlanResponse{
		From:           &candidates[0].Stop,
		To:             &destination,
		Routes:         []models.Itinerary{},
		NetworkVersion: snap.Version,
	}

	if candidates[0].Stop.ID == destination.ID {
		leg := s.walk(ctx, fromC, toC)
		response.Status = models.PlanStatusWalk
		response.Message = fmt.Sprintf("Both points are closest to %s, walking %s takes about %d minutes",
			destination.Name, geo.FormatDistance(leg.DistanceKm), leg.DurationMinutes)
		response.WalkingSuggestion = &models.WalkingSuggestion{
			Stop:            destination,
			DistanceKm:      leg.DistanceKm,
			DurationMinutes: leg.DurationMinutes,
			Walk:            leg,
		}
		response.SearchTimeMs = time.Since(startTime).Milliseconds()
		s.logResult(response)
		return response, nil
	}

	departure := s.now()
	itineraries, err := s.planAll(ctx, filters, func(filter models.Filter) (*models.Itinerary, error) {
		origin, path := s.bestCandidate(snap, candidates, destination.ID, filter)
		if path.Empty() {
			return nil, nil
		}
		it, err := routing.Assemble(snap, path, filter)
		if err != nil {
			return nil, err
		}
		s.decorate(ctx, it, fromC, toC, departure)
		s.logger.WithFields(logrus.Fields{
			"filter": filter,
			"origin": origin.ID,
		}).Debug("Selected origin stop")
		return it, nil
	})
	if err != nil {
		return nil, err
	}

	if first := firstItinerary(itineraries); first != nil {
		response.From = &first.From
	}
	s.finish(response, itineraries, straightKm)
	response.SearchTimeMs = time.Since(startTime).Milliseconds()

	s.logResult(response)
	return response, nil
}

// GetItinerary returns a previously planned itinerary
func (s *PlannerService) GetItinerary(id string) (*models.Itinerary, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("itinerary %q: %w", id, models.ErrNotFound)
	}
	return &it, nil
}

// planAll runs plan for every filter concurrently, keeping filter order
func (s *PlannerService) planAll(ctx context.Context, filters []models.Filter, plan planFunc) ([]*models.Itinerary, error) {
	results := make([]*models.Itinerary, len(filters))
	g, gctx := errgroup.WithContext(ctx)

	for i, filter := range filters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			it, err := plan(filter)
			if err != nil {
				return fmt.Errorf("error planning %s route: %w", filter, err)
			}
			results[i] = it
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// bestCandidate picks the origin stop whose path plus access walk scores lowest
func (s *PlannerService) bestCandidate(
	snap *network.Snapshot,
	candidates []geo.StopDistance,
	destinationID string,
	filter models.Filter,
) (models.Stop, routing.Path) {
	var (
		bestStop  models.Stop
		bestPath  routing.Path
		bestScore = math.Inf(1)
	)

	for _, c := range candidates {
		if c.Stop.ID == destinationID {
			continue
		}
		path := routing.FindPath(snap, s.policy, c.Stop.ID, destinationID, filter)
		if path.Empty() {
			continue
		}
		access := models.Edge{
			Mode:            models.ModeWalk,
			DurationMinutes: geo.WalkingMinutes(c.DistanceKm, s.cfg.PaceMetersPerMinute),
			DistanceKm:      c.DistanceKm,
		}
		score := path.Score + s.policy.Score(access, filter, "")
		if score < bestScore {
			bestStop, bestPath, bestScore = c.Stop, path, score
		}
	}
	return bestStop, bestPath
}

// decorate adds walking legs, timings and notices to a coordinate itinerary
func (s *PlannerService) decorate(ctx context.Context, it *models.Itinerary, fromC, toC models.Coordinate, departure time.Time) {
	start := s.walk(ctx, fromC, it.From.Coords)
	end := s.walk(ctx, it.To.Coords, toC)

	it.FromCoords = &fromC
	it.ToCoords = &toC
	it.StartWalk = start
	it.EndWalk = end

	it.Summary.StartWalkKm = &start.DistanceKm
	it.Summary.StartWalkMinutes = &start.DurationMinutes
	it.Summary.EndWalkKm = &end.DistanceKm
	it.Summary.EndWalkMinutes = &end.DurationMinutes
	it.Summary.TotalDurationMinutes += start.DurationMinutes + end.DurationMinutes

	arrival := departure.Add(time.Duration(it.Summary.TotalDurationMinutes) * time.Minute)
	it.Summary.DepartureTime = &departure
	it.Summary.ArrivalTime = &arrival

	if start.DistanceKm > s.cfg.LongWalkKm {
		it.Notices = append(it.Notices, fmt.Sprintf("Walk %s to the first stop", geo.FormatDistance(start.DistanceKm)))
	}
	if end.DistanceKm > s.cfg.LongWalkKm {
		it.Notices = append(it.Notices, fmt.Sprintf("Walk %s from the last stop to your destination", geo.FormatDistance(end.DistanceKm)))
	}
}

// walk asks the walking provider for a leg; planning never fails because of it
func (s *PlannerService) walk(ctx context.Context, from, to models.Coordinate) *models.WalkingLeg {
	leg, err := s.walker.Route(ctx, from, to)
	if err != nil || leg == nil {
		if err != nil {
			s.logger.WithError(err).Warn("Walking route unavailable, using straight line")
		}
		return walking.StraightLine(from, to, s.cfg.PaceMetersPerMinute)
	}
	return leg
}

// finish fills the response status and stores successful itineraries
func (s *PlannerService) finish(response *models.PlanResponse, itineraries []*models.Itinerary, straightKm float64) {
	response.Routes = []models.Itinerary{}
	for _, it := range itineraries {
		if it == nil {
			continue
		}
		it.ID = uuid.New().String()
		if s.store != nil {
			s.store.Save(*it)
		}
		response.Routes = append(response.Routes, *it)
	}

	if len(response.Routes) > 0 {
		response.Status = models.PlanStatusSuccess
		response.Message = fmt.Sprintf("Found %d route(s) from %s to %s",
			len(response.Routes), response.From.Name, response.To.Name)
		return
	}

	response.Status = models.PlanStatusNoRoute
	details := &models.NoRouteDetails{StraightLineKm: math.Round(straightKm*100) / 100}
	if straightKm > s.cfg.FarDistanceKm {
		details.Reason = fmt.Sprintf("Destination is %.0f km away, too far for the transit network", straightKm)
		details.Suggestions = []string{"Consider intercity transport for long distance trips"}
	} else {
		details.Reason = "No line connects the origin and destination in the current network"
		details.Suggestions = []string{
			"Try a nearby origin or destination stop",
			"Check the nearby stops list for other lines",
		}
	}
	response.NoRoute = details
	response.Message = fmt.Sprintf("No route found from %s to %s", response.From.Name, response.To.Name)
}

func (s *PlannerService) logResult(response *models.PlanResponse) {
	s.logger.WithFields(logrus.Fields{
		"status":      response.Status,
		"routes":      len(response.Routes),
		"version":     response.NetworkVersion,
		"response_ms": response.SearchTimeMs,
	}).Info("Plan completed")
}

func firstItinerary(itineraries []*models.Itinerary) *models.Itinerary {
	for _, it := range itineraries {
		if it != nil {
			return it
		}
	}
	return nil
}
