package walking

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/geo"
	"github.com/smarttransit/route-planner/internal/models"
)

// Leg sources
const (
	SourceORS          = "ors"
	SourceStraightLine = "straight_line"
)

// Provider returns walking geometry between two coordinates
type Provider interface {
	Route(ctx context.Context, from, to models.Coordinate) (*models.WalkingLeg, error)
}

// StraightLineProvider estimates walks along the great circle at a fixed pace
type StraightLineProvider struct {
	PaceMetersPerMinute float64
}

// NewStraightLineProvider creates a new StraightLineProvider
func NewStraightLineProvider(paceMetersPerMinute float64) *StraightLineProvider {
	return &StraightLineProvider{PaceMetersPerMinute: paceMetersPerMinute}
}

// Route never fails
func (p *StraightLineProvider) Route(ctx context.Context, from, to models.Coordinate) (*models.WalkingLeg, error) {
	return StraightLine(from, to, p.PaceMetersPerMinute), nil
}

// StraightLine builds a two-point walking leg
func StraightLine(from, to models.Coordinate, paceMetersPerMinute float64) *models.WalkingLeg {
	dist := geo.HaversineKm(from, to)
	return &models.WalkingLeg{
		From:            from,
		To:              to,
		DistanceKm:      dist,
		DurationMinutes: geo.WalkingMinutes(dist, paceMetersPerMinute),
		Geometry:        lineGeometry([]models.Coordinate{from, to}),
		Source:          SourceStraightLine,
	}
}

// lineGeometry converts coordinates into a GeoJSON LineString ([lng, lat] order)
func lineGeometry(coords []models.Coordinate) *geojson.Geometry {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Lng, c.Lat})
	}
	return geojson.NewGeometry(ls)
}

// FallbackProvider uses primary and falls back on any error
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   *logrus.Logger
}

// WithFallback wraps primary so that its failures are answered by fallback
func WithFallback(primary, fallback Provider, logger *logrus.Logger) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback, logger: logger}
}

// Route tries the primary provider first
func (p *FallbackProvider) Route(ctx context.Context, from, to models.Coordinate) (*models.WalkingLeg, error) {
	leg, err := p.primary.Route(ctx, from, to)
	if err == nil {
		return leg, nil
	}
	p.logger.WithError(err).WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Warn("Walking provider failed, using fallback")
	return p.fallback.Route(ctx, from, to)
}
