package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/smarttransit/route-planner/internal/models"
)

//go:embed schema.sql
var scheduleSchema string

// DefaultLineColor is used when a line has no color
const DefaultLineColor = "#1f8eed"

// ScheduleRepository reads stops and lines from the schedule tables
type ScheduleRepository struct {
	db          DB
	defaultFare float64
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db DB, defaultFare float64) *ScheduleRepository {
	return &ScheduleRepository{db: db, defaultFare: defaultFare}
}

// Migrate creates the schedule tables if they do not exist
func (r *ScheduleRepository) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(scheduleSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schedule tables: %w", err)
		}
	}
	return nil
}

type stopRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}

type lineRow struct {
	ID    string          `db:"id"`
	Name  string          `db:"name"`
	Mode  string          `db:"mode"`
	Fare  sql.NullFloat64 `db:"fare"`
	Color sql.NullString  `db:"color"`
}

type lineStopRow struct {
	LineID string `db:"line_id"`
	StopID string `db:"stop_id"`
}

// ListStops returns all stops ordered by ID
func (r *ScheduleRepository) ListStops(ctx context.Context) ([]models.Stop, error) {
	query := `
		SELECT id, name, latitude, longitude
		FROM stops
		ORDER BY id
	`

	var rows []stopRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing stops: %w", err)
	}

	stops := make([]models.Stop, 0, len(rows))
	for _, row := range rows {
		stops = append(stops, models.Stop{
			ID:     row.ID,
			Name:   row.Name,
			Coords: models.Coordinate{Lat: row.Latitude, Lng: row.Longitude},
		})
	}
	return stops, nil
}

// ListLines returns all lines with their ordered stop sequences
func (r *ScheduleRepository) ListLines(ctx context.Context) ([]models.Line, error) {
	linesQuery := `
		SELECT id, name, mode, fare, color
		FROM lines
		ORDER BY id
	`

	var lineRows []lineRow
	if err := r.db.SelectContext(ctx, &lineRows, linesQuery); err != nil {
		return nil, fmt.Errorf("error listing lines: %w", err)
	}

	stopsQuery := `
		SELECT line_id, stop_id
		FROM line_stops
		ORDER BY line_id, stop_sequence
	`

	var stopRows []lineStopRow
	if err := r.db.SelectContext(ctx, &stopRows, stopsQuery); err != nil {
		return nil, fmt.Errorf("error listing line stops: %w", err)
	}

	sequences := make(map[string][]string, len(lineRows))
	for _, row := range stopRows {
		sequences[row.LineID] = append(sequences[row.LineID], row.StopID)
	}

	lines := make([]models.Line, 0, len(lineRows))
	for _, row := range lineRows {
		mode, err := models.ParseMode(row.Mode)
		if err != nil {
			return nil, fmt.Errorf("error reading line %s: %w", row.ID, err)
		}

		fare := r.defaultFare
		if row.Fare.Valid {
			fare = row.Fare.Float64
		}
		color := DefaultLineColor
		if row.Color.Valid && row.Color.String != "" {
			color = row.Color.String
		}

		lines = append(lines, models.Line{
			ID:      row.ID,
			Name:    row.Name,
			Mode:    mode,
			Fare:    fare,
			Color:   color,
			StopIDs: sequences[row.ID],
		})
	}
	return lines, nil
}

// ReplaceSchedule swaps the stored stops and lines for the given ones in one transaction
func (r *ScheduleRepository) ReplaceSchedule(ctx context.Context, stops []models.Stop, lines []models.Line) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"line_stops", "lines", "stops"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	insertStop := tx.Rebind(`INSERT INTO stops (id, name, latitude, longitude) VALUES (?, ?, ?, ?)`)
	for _, stop := range stops {
		if _, err := tx.ExecContext(ctx, insertStop, stop.ID, stop.Name, stop.Coords.Lat, stop.Coords.Lng); err != nil {
			return fmt.Errorf("error inserting stop %s: %w", stop.ID, err)
		}
	}

	insertLine := tx.Rebind(`INSERT INTO lines (id, name, mode, fare, color) VALUES (?, ?, ?, ?, ?)`)
	insertLineStop := tx.Rebind(`INSERT INTO line_stops (line_id, stop_sequence, stop_id) VALUES (?, ?, ?)`)
	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, insertLine, line.ID, line.Name, string(line.Mode), line.Fare, line.Color); err != nil {
			return fmt.Errorf("error inserting line %s: %w", line.ID, err)
		}
		for seq, stopID := range line.StopIDs {
			if _, err := tx.ExecContext(ctx, insertLineStop, line.ID, seq+1, stopID); err != nil {
				return fmt.Errorf("error inserting stop %s of line %s: %w", stopID, line.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing schedule: %w", err)
	}
	return nil
}
