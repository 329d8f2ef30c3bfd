package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/config"
	"github.com/smarttransit/route-planner/internal/database"
	"github.com/smarttransit/route-planner/internal/gtfs"
	"github.com/smarttransit/route-planner/internal/network"
)

func main() {
	var (
		dbURLFlag   string
		driverFlag  string
		feedFlag    string
		defaultFare float64
		dryRun      bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "connection string (overrides DATABASE_URL)")
	flag.StringVar(&driverFlag, "driver", "", "postgres, pgx or sqlite (overrides DATABASE_DRIVER)")
	flag.StringVar(&feedFlag, "feed", "", "GTFS zip or directory (overrides GTFS_PATH)")
	flag.Float64Var(&defaultFare, "default-fare", 7000, "fare assigned to every imported line")
	flag.BoolVar(&dryRun, "dry-run", false, "build the network and print counts without writing")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	feed := firstNonEmpty(feedFlag, os.Getenv("GTFS_PATH"))
	if feed == "" {
		log.Fatal("GTFS_PATH is not set and -feed was not provided")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	fsys, closer, err := gtfs.Open(feed)
	if err != nil {
		log.Fatalf("failed to open feed: %v", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store := gtfs.NewStore(fsys, defaultFare, logger)
	stops, err := store.ListStops(ctx)
	if err != nil {
		log.Fatalf("failed to read stops: %v", err)
	}
	lines, err := store.ListLines(ctx)
	if err != nil {
		log.Fatalf("failed to read lines: %v", err)
	}

	// Build once so a feed that cannot produce a network is rejected before touching the database
	snap, err := network.Build(stops, lines, network.DefaultBuildOptions())
	if err != nil {
		log.Fatalf("feed does not produce a usable network: %v", err)
	}
	status := snap.Status()
	fmt.Printf("Feed %s: %d stops, %d lines, %d edges (%d walking)\n",
		feed, status.StopCount, status.LineCount, status.EdgeCount, status.WalkEdges)

	if dryRun {
		fmt.Println("Dry run, nothing written.")
		return
	}

	dbURL := firstNonEmpty(dbURLFlag, os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		Driver:             firstNonEmpty(driverFlag, os.Getenv("DATABASE_DRIVER"), "postgres"),
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewScheduleRepository(db, defaultFare)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to create schedule tables: %v", err)
	}

	fmt.Println("Connected to database. Replacing schedule...")
	if err := repo.ReplaceSchedule(ctx, stops, lines); err != nil {
		log.Fatalf("failed to import schedule: %v", err)
	}

	// Verify by printing row counts for each table
	fmt.Println("Post-import row counts:")
	for _, t := range []string{"stops", "lines", "line_stops"} {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
