package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/config"
	"github.com/smarttransit/route-planner/internal/database"
	"github.com/smarttransit/route-planner/internal/gtfs"
	"github.com/smarttransit/route-planner/internal/handlers"
	"github.com/smarttransit/route-planner/internal/middleware"
	"github.com/smarttransit/route-planner/internal/network"
	"github.com/smarttransit/route-planner/internal/routing"
	"github.com/smarttransit/route-planner/internal/services"
	"github.com/smarttransit/route-planner/internal/walking"
	"github.com/smarttransit/route-planner/pkg/jwt"
	"github.com/smarttransit/route-planner/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit route planner")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Schedule source
	store, closer, err := openScheduleStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open schedule source: %v", err)
	}
	defer closer.Close()

	// Edge weights
	table := routing.DefaultWeightTable()
	if cfg.Routing.WeightsFile != "" {
		table, err = routing.LoadWeightTable(cfg.Routing.WeightsFile)
		if err != nil {
			logger.Fatalf("Failed to load weight table: %v", err)
		}
		logger.WithField("file", cfg.Routing.WeightsFile).Info("Weight table loaded")
	}
	policy := routing.NewPolicy(table)

	// Network manager
	manager := network.NewManager(store, cfg.Schedule.Source, network.BuildOptions{
		BusSpeedKmh:     cfg.Routing.BusSpeedKmh,
		RailSpeedKmh:    cfg.Routing.RailSpeedKmh,
		WalkThresholdKm: cfg.Routing.WalkThresholdKm,
		WalkSpeedKmh:    cfg.Routing.WalkSpeedKmh,
	}, logger)

	if cfg.Schedule.LoadOnStartup {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if _, err := manager.Load(ctx); err != nil {
			logger.WithError(err).Warn("Initial network load failed, will retry on first request")
		}
		cancel()
	}

	// Services
	logger.Info("Initializing services...")
	walker := newWalkingProvider(cfg.Walking, logger)
	itineraries := services.NewItineraryStore(cfg.Routing.ItineraryTTL)

	plannerService := services.NewPlannerService(manager, policy, walker, itineraries, services.PlannerConfig{
		OriginCandidates:    cfg.Routing.OriginCandidates,
		MinSeparationKm:     cfg.Routing.MinSeparationKm,
		MinTripDistanceKm:   cfg.Routing.MinTripDistanceKm,
		LongWalkKm:          cfg.Routing.LongWalkKm,
		FarDistanceKm:       cfg.Routing.FarDistanceKm,
		PaceMetersPerMinute: cfg.Walking.PaceMetersPerMinute,
	}, logger)
	stopService := services.NewStopService(manager, walker, services.StopServiceConfig{
		NearbyRadiusKm:      cfg.Walking.NearbyRadiusKm,
		NearbyLimit:         cfg.Walking.NearbyLimit,
		PaceMetersPerMinute: cfg.Walking.PaceMetersPerMinute,
	}, logger)
	networkService := services.NewNetworkService(manager, itineraries, logger)

	cronService := services.NewCronService(networkService, cfg.Schedule.ReloadCron, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)
	logger.Info("Services initialized")

	// Handlers
	planHandler := handlers.NewPlanHandler(plannerService, logger)
	stopHandler := handlers.NewStopHandler(stopService, validator.NewCoordinateValidator(), logger)
	networkHandler := handlers.NewNetworkHandler(networkService, version, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", networkHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/plans", planHandler.PlanBetweenStops)
		v1.POST("/plans/coordinates", planHandler.PlanBetweenCoordinates)
		v1.GET("/itineraries/:id", planHandler.GetItinerary)

		stops := v1.Group("/stops")
		{
			stops.GET("/nearby", stopHandler.NearbyStops)
			stops.GET("/:id", stopHandler.GetStop)
			stops.GET("/:id/walking", stopHandler.WalkingToStop)
		}
		v1.GET("/lines/:id", stopHandler.GetLine)
		v1.GET("/network/status", networkHandler.Status)

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger))
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/network/reload", networkHandler.Reload)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// openScheduleStore returns the configured stop/line source and a closer for its resources
func openScheduleStore(cfg *config.Config, logger *logrus.Logger) (network.ScheduleStore, io.Closer, error) {
	switch cfg.Schedule.Source {
	case "gtfs":
		fsys, closer, err := gtfs.Open(cfg.Schedule.GTFSPath)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("path", cfg.Schedule.GTFSPath).Info("Using GTFS feed as schedule source")
		return gtfs.NewStore(fsys, cfg.Schedule.DefaultFare, logger), closer, nil

	default:
		logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")

		repo := database.NewScheduleRepository(db, cfg.Schedule.DefaultFare)
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(context.Background()); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("Schedule schema ensured")
		}
		return repo, db, nil
	}
}

// newWalkingProvider builds the walking geometry chain: ORS behind a cache, falling back to straight lines
func newWalkingProvider(cfg config.WalkingConfig, logger *logrus.Logger) walking.Provider {
	straight := walking.NewStraightLineProvider(cfg.PaceMetersPerMinute)
	if cfg.Provider != "ors" {
		logger.Info("Walking legs use straight-line estimates")
		return straight
	}

	ors := walking.NewORSProvider(walking.ORSConfig{
		BaseURL: cfg.ORSBaseURL,
		APIKey:  cfg.ORSAPIKey,
		Timeout: cfg.Timeout,
	})
	cached := walking.NewCachedProvider(ors, cfg.CacheSize, cfg.CacheTTL, logger)
	logger.WithField("base_url", cfg.ORSBaseURL).Info("Walking legs use OpenRouteService")
	return walking.WithFallback(cached, straight, logger)
}
