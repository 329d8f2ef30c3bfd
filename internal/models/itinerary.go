package models

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// Edge is one directed traversable connection between two stops.
// An empty LineID marks a walking edge.
type Edge struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	LineID          string  `json:"line_id,omitempty"`
	LineName        string  `json:"line_name,omitempty"`
	Mode            Mode    `json:"mode"`
	DurationMinutes int     `json:"duration_minutes"`
	DistanceKm      float64 `json:"distance_km"`
}

// IsWalk reports whether the edge is a walking connection
func (e Edge) IsWalk() bool {
	return e.LineID == "" || e.Mode == ModeWalk
}

// Segment is a maximal run of consecutive edges on the same line (or on foot)
type Segment struct {
	LineID          string   `json:"line_id,omitempty"`
	LineName        string   `json:"line_name,omitempty"`
	Mode            Mode     `json:"mode"`
	FromStopID      string   `json:"from_stop_id"`
	ToStopID        string   `json:"to_stop_id"`
	StopIDs         []string `json:"stop_ids"`
	DurationMinutes int      `json:"duration_minutes"`
	DistanceKm      float64  `json:"distance_km"`
	Fare            float64  `json:"fare"`
	IsTransfer      bool     `json:"is_transfer"`
	Instruction     string   `json:"instruction"`
}

// Summary aggregates an itinerary's segments
type Summary struct {
	TotalDurationMinutes int      `json:"total_duration_minutes"`
	TotalFare            float64  `json:"total_fare"`
	TotalDistanceKm      float64  `json:"total_distance_km"`
	TransferCount        int      `json:"transfer_count"`
	LineIDs              []string `json:"line_ids"` // distinct lines ridden, in boarding order

	// Set only for coordinate-based plans
	StartWalkKm      *float64   `json:"start_walk_km,omitempty"`
	StartWalkMinutes *int       `json:"start_walk_minutes,omitempty"`
	EndWalkKm        *float64   `json:"end_walk_km,omitempty"`
	EndWalkMinutes   *int       `json:"end_walk_minutes,omitempty"`
	DepartureTime    *time.Time `json:"departure_time,omitempty"`
	ArrivalTime      *time.Time `json:"arrival_time,omitempty"`
}

// WalkingLeg is a first/last mile walk between a coordinate and a stop
type WalkingLeg struct {
	From            Coordinate        `json:"from"`
	To              Coordinate        `json:"to"`
	DistanceKm      float64           `json:"distance_km"`
	DurationMinutes int               `json:"duration_minutes"`
	Geometry        *geojson.Geometry `json:"geometry,omitempty"`
	Source          string            `json:"source"` // "ors" or "straight_line"
}

// Itinerary is one planned route for a single optimization filter
type Itinerary struct {
	ID          string       `json:"id"`
	Filter      string       `json:"filter"`
	Title       string       `json:"title"`
	From        Stop         `json:"from"`
	To          Stop         `json:"to"`
	Segments    []Segment    `json:"segments"`
	Coordinates []Coordinate `json:"coordinates"`
	Summary     Summary      `json:"summary"`

	FromCoords *Coordinate `json:"from_coords,omitempty"`
	ToCoords   *Coordinate `json:"to_coords,omitempty"`
	StartWalk  *WalkingLeg `json:"start_walk,omitempty"`
	EndWalk    *WalkingLeg `json:"end_walk,omitempty"`
	Notices    []string    `json:"notices,omitempty"`
}
