package models

import "fmt"

// Mode is the means of travel along an edge or segment
type Mode string

const (
	ModeWalk  Mode = "walk"
	ModeBus   Mode = "bus"
	ModeTrain Mode = "train"
	ModeFerry Mode = "ferry"
)

// ParseMode converts a stored mode string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBus, ModeTrain, ModeFerry:
		return Mode(s), nil
	case "":
		return ModeBus, nil
	default:
		return "", fmt.Errorf("unknown transit mode %q", s)
	}
}

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Lat float64 `json:"lat" db:"latitude"`
	Lng float64 `json:"lng" db:"longitude"`
}

// Stop represents a physical boarding/alighting location
type Stop struct {
	ID     string     `json:"id" db:"id"`
	Name   string     `json:"name" db:"name"`
	Coords Coordinate `json:"coords"`
}

// Line represents a transit service with an ordered stop sequence and a flat fare
type Line struct {
	ID      string   `json:"id" db:"id"`
	Name    string   `json:"name" db:"name"`
	Mode    Mode     `json:"mode" db:"mode"`
	Fare    float64  `json:"fare" db:"fare"`
	Color   string   `json:"color" db:"color"`
	StopIDs []string `json:"stops"`
}

// NearbyStop is a stop annotated with its distance from a query point
type NearbyStop struct {
	Stop
	DisplayName    string   `json:"display_name"` // Name numbered "(2)", "(3)" when repeated
	DistanceKm     float64  `json:"distance_km"`
	DistanceText   string   `json:"distance_text"`
	WalkingMinutes int      `json:"walking_minutes"`
	Lines          []string `json:"lines"`
}

// StopDetails is a stop together with the lines that call at it
type StopDetails struct {
	Stop
	Lines []Line `json:"lines"`
}

// LineDetails is a line with its stops resolved in travel order
type LineDetails struct {
	Line
	Stops []Stop `json:"stop_details"`
}
