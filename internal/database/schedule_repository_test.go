package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/route-planner/internal/config"
	"github.com/smarttransit/route-planner/internal/models"
)

func newMockRepository(t *testing.T) (*ScheduleRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewScheduleRepository(&SQLDB{DB: sqlxDB}, 7000), mock
}

func TestListStops(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`SELECT id, name, latitude, longitude FROM stops ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "latitude", "longitude"}).
				AddRow("S1", "Colombo Fort", 6.9344, 79.8428).
				AddRow("S2", "Pettah", 6.9366, 79.8500))

		stops, err := repo.ListStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 2)
		assert.Equal(t, "Colombo Fort", stops[0].Name)
		assert.Equal(t, models.Coordinate{Lat: 6.9366, Lng: 79.8500}, stops[1].Coords)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`FROM stops`).WillReturnError(fmt.Errorf("connection reset"))

		stops, err := repo.ListStops(ctx)
		assert.Nil(t, stops)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error listing stops")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListLines(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`SELECT id, name, mode, fare, color FROM lines ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "mode", "fare", "color"}).
				AddRow("L1", "Route 138", "bus", 120.0, "#ff0000").
				AddRow("T1", "Coast Line", "train", nil, nil))
		mock.ExpectQuery(`SELECT line_id, stop_id FROM line_stops ORDER BY line_id, stop_sequence`).
			WillReturnRows(sqlmock.NewRows([]string{"line_id", "stop_id"}).
				AddRow("L1", "S1").
				AddRow("L1", "S2").
				AddRow("L1", "S3").
				AddRow("T1", "S1").
				AddRow("T1", "S4"))

		lines, err := repo.ListLines(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.Equal(t, models.ModeBus, lines[0].Mode)
		assert.Equal(t, 120.0, lines[0].Fare)
		assert.Equal(t, "#ff0000", lines[0].Color)
		assert.Equal(t, []string{"S1", "S2", "S3"}, lines[0].StopIDs)

		assert.Equal(t, models.ModeTrain, lines[1].Mode)
		assert.Equal(t, 7000.0, lines[1].Fare)
		assert.Equal(t, DefaultLineColor, lines[1].Color)
		assert.Equal(t, []string{"S1", "S4"}, lines[1].StopIDs)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`FROM lines`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "mode", "fare", "color"}).
				AddRow("X", "Cable Car", "gondola", nil, nil))
		mock.ExpectQuery(`FROM line_stops`).
			WillReturnRows(sqlmock.NewRows([]string{"line_id", "stop_id"}))

		_, err := repo.ListLines(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gondola")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Line Stops Error", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`FROM lines`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "mode", "fare", "color"}))
		mock.ExpectQuery(`FROM line_stops`).WillReturnError(fmt.Errorf("permission denied"))

		_, err := repo.ListLines(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error listing line stops")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScheduleRepositorySQLite(t *testing.T) {
	ctx := context.Background()

	db, err := NewConnection(config.DatabaseConfig{
		Driver:         "sqlite",
		URL:            filepath.Join(t.TempDir(), "transit.db"),
		MaxConnections: 1,
	})
	require.NoError(t, err)
	defer db.Close()

	repo := NewScheduleRepository(db, 7000)
	require.NoError(t, repo.Migrate(ctx))
	// Idempotent
	require.NoError(t, repo.Migrate(ctx))

	statements := []string{
		`INSERT INTO stops (id, name, latitude, longitude) VALUES ('S1', 'Ben Thanh', 10.7720, 106.6983)`,
		`INSERT INTO stops (id, name, latitude, longitude) VALUES ('S2', 'Opera House', 10.7769, 106.7031)`,
		`INSERT INTO lines (id, name, mode, fare, color) VALUES ('L1', 'Route 01', 'bus', NULL, NULL)`,
		`INSERT INTO line_stops (line_id, stop_sequence, stop_id) VALUES ('L1', 2, 'S2')`,
		`INSERT INTO line_stops (line_id, stop_sequence, stop_id) VALUES ('L1', 1, 'S1')`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	stops, err := repo.ListStops(ctx)
	require.NoError(t, err)
	assert.Len(t, stops, 2)

	lines, err := repo.ListLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, []string{"S1", "S2"}, lines[0].StopIDs)
	assert.Equal(t, 7000.0, lines[0].Fare)
}

func TestNewConnection(t *testing.T) {
	_, err := NewConnection(config.DatabaseConfig{Driver: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestReplaceSchedule(t *testing.T) {
	ctx := context.Background()
	stops := []models.Stop{
		{ID: "S1", Name: "Ben Thanh", Coords: models.Coordinate{Lat: 10.7720, Lng: 106.6983}},
		{ID: "S2", Name: "Opera House", Coords: models.Coordinate{Lat: 10.7769, Lng: 106.7031}},
	}
	lines := []models.Line{
		{ID: "L1", Name: "Route 01", Mode: models.ModeBus, Fare: 7000, Color: "#00aa00", StopIDs: []string{"S1", "S2"}},
	}

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM line_stops`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM lines`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM stops`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO stops`).WithArgs("S1", "Ben Thanh", 10.7720, 106.6983).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO stops`).WithArgs("S2", "Opera House", 10.7769, 106.7031).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO lines`).WithArgs("L1", "Route 01", "bus", 7000.0, "#00aa00").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO line_stops`).WithArgs("L1", 1, "S1").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO line_stops`).WithArgs("L1", 2, "S2").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ReplaceSchedule(ctx, stops, lines))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert Error Rolls Back", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM line_stops`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM lines`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM stops`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO stops`).WillReturnError(fmt.Errorf("duplicate key"))
		mock.ExpectRollback()

		err := repo.ReplaceSchedule(ctx, stops, lines)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error inserting stop S1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SQLite Round Trip", func(t *testing.T) {
		db, err := NewConnection(config.DatabaseConfig{
			Driver:         "sqlite",
			URL:            filepath.Join(t.TempDir(), "replace.db"),
			MaxConnections: 1,
		})
		require.NoError(t, err)
		defer db.Close()

		repo := NewScheduleRepository(db, 5000)
		require.NoError(t, repo.Migrate(ctx))
		require.NoError(t, repo.ReplaceSchedule(ctx, stops, lines))
		// Second import replaces rather than duplicates
		require.NoError(t, repo.ReplaceSchedule(ctx, stops, lines))

		gotStops, err := repo.ListStops(ctx)
		require.NoError(t, err)
		assert.Equal(t, stops, gotStops)

		gotLines, err := repo.ListLines(ctx)
		require.NoError(t, err)
		assert.Equal(t, lines, gotLines)
	})
}
