package models

import (
	"fmt"
	"strings"
)

// Filter is the optimization objective controlling edge scoring
type Filter string

const (
	FilterFastest         Filter = "fastest"
	FilterFewestTransfers Filter = "fewest_transfers"
	FilterCheapest        Filter = "cheapest"
)

// AllFilters lists every filter in the order results are returned
var AllFilters = []Filter{FilterFastest, FilterFewestTransfers, FilterCheapest}

// ParseFilters converts a request filter into the list of filters to compute.
// An empty value means all of them.
func ParseFilters(s string) ([]Filter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllFilters, nil
	}
	for _, f := range AllFilters {
		if Filter(s) == f {
			return []Filter{f}, nil
		}
	}
	return nil, ErrInvalidInput(fmt.Sprintf("unknown filter %q (expected fastest, fewest_transfers or cheapest)", s))
}

// Title returns the human-readable label for a filter
func (f Filter) Title() string {
	switch f {
	case FilterFewestTransfers:
		return "Fewest Transfers"
	case FilterCheapest:
		return "Cheapest Route"
	default:
		return "Fastest Route"
	}
}

// Plan response statuses
const (
	PlanStatusSuccess = "success"
	PlanStatusNoRoute = "no_route"
	PlanStatusWalk    = "walk"
)

// PlanRequest represents a stop-to-stop planning query
type PlanRequest struct {
	OriginStopID      string `json:"origin_stop_id" binding:"required"`
	DestinationStopID string `json:"destination_stop_id" binding:"required"`
	Filter            string `json:"filter,omitempty"` // Optional: empty computes all filters
}

// Validate validates the plan request
func (r *PlanRequest) Validate() error {
	r.OriginStopID = strings.TrimSpace(r.OriginStopID)
	r.DestinationStopID = strings.TrimSpace(r.DestinationStopID)
	if r.OriginStopID == "" {
		return ErrInvalidInput("origin stop is required")
	}
	if r.DestinationStopID == "" {
		return ErrInvalidInput("destination stop is required")
	}
	if r.OriginStopID == r.DestinationStopID {
		return ErrInvalidInput("origin and destination cannot be the same")
	}
	return nil
}

// CoordinateInput is a location as sent by a client. Both fields must be present.
type CoordinateInput struct {
	Lat *float64 `json:"lat" binding:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required,longitude"`
}

// Coordinate converts validated input into a Coordinate
func (c *CoordinateInput) Coordinate() Coordinate {
	return Coordinate{Lat: *c.Lat, Lng: *c.Lng}
}

// CoordinatePlanRequest represents a coordinate-to-coordinate planning query
type CoordinatePlanRequest struct {
	From   *CoordinateInput `json:"from" binding:"required"`
	To     *CoordinateInput `json:"to" binding:"required"`
	Filter string           `json:"filter,omitempty"`
}

// PlanResponse represents the planning results returned to the caller
type PlanResponse struct {
	Status            string             `json:"status"`  // "success", "no_route", "walk"
	Message           string             `json:"message"` // Human-readable message
	From              *Stop              `json:"from,omitempty"`
	To                *Stop              `json:"to,omitempty"`
	Routes            []Itinerary        `json:"routes"`
	NoRoute           *NoRouteDetails    `json:"no_route,omitempty"`
	WalkingSuggestion *WalkingSuggestion `json:"walking_suggestion,omitempty"`
	NetworkVersion    string             `json:"network_version"`
	SearchTimeMs      int64              `json:"search_time_ms"`
}

// NoRouteDetails explains why no itinerary could be produced
type NoRouteDetails struct {
	StraightLineKm float64  `json:"straight_line_km"`
	Reason         string   `json:"reason"`
	Suggestions    []string `json:"suggestions"`
}

// WalkingSuggestion is returned when both coordinates resolve to the same stop
type WalkingSuggestion struct {
	Stop            Stop        `json:"stop"`
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes int         `json:"duration_minutes"`
	Walk            *WalkingLeg `json:"walk,omitempty"`
}

// NetworkStatus describes the currently published network snapshot
type NetworkStatus struct {
	Loaded     bool   `json:"loaded"`
	Version    string `json:"version,omitempty"`
	Source     string `json:"source,omitempty"`
	LoadedAt   string `json:"loaded_at,omitempty"`
	StopCount  int    `json:"stop_count"`
	LineCount  int    `json:"line_count"`
	EdgeCount  int    `json:"edge_count"`
	WalkEdges  int    `json:"walk_edge_count"`
	LoadTimeMs int64  `json:"load_time_ms"`

	// Process-wide, filled by the network service
	ReloadCount         int64 `json:"reload_count"`
	ItineraryTTLSeconds int64 `json:"itinerary_ttl_seconds"`
}
