package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Schedule source configuration
	Schedule ScheduleConfig

	// Route planning configuration
	Routing RoutingConfig

	// Walking geometry configuration
	Walking WalkingConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port             string
	Environment      string // development, staging, production
	LogLevel         string // debug, info, warn, error
	EnableRequestLog bool
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // postgres, pgx or sqlite
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool // create the schedule tables if missing
}

// ScheduleConfig selects where stops and lines are loaded from
type ScheduleConfig struct {
	Source        string // "database" or "gtfs"
	GTFSPath      string // zip archive or extracted directory
	DefaultFare   float64
	ReloadCron    string // six-field cron expression, empty disables
	LoadOnStartup bool
}

// RoutingConfig holds network derivation and planning parameters
type RoutingConfig struct {
	WeightsFile       string // optional YAML weight table
	BusSpeedKmh       float64
	RailSpeedKmh      float64
	WalkThresholdKm   float64
	WalkSpeedKmh      float64
	OriginCandidates  int
	MinSeparationKm   float64
	MinTripDistanceKm float64 // coordinate plans closer than this are refused
	LongWalkKm        float64 // access walks longer than this get a notice
	FarDistanceKm     float64
	ItineraryTTL      time.Duration
}

// WalkingConfig holds walking geometry provider configuration
type WalkingConfig struct {
	Provider            string // "ors" or "straight_line"
	ORSBaseURL          string
	ORSAPIKey           string
	Timeout             time.Duration
	PaceMetersPerMinute float64
	CacheSize           int
	CacheTTL            time.Duration
	NearbyRadiusKm      float64
	NearbyLimit         int
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:             getEnv("PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
		Database: DatabaseConfig{
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", false),
		},
		Schedule: ScheduleConfig{
			Source:        getEnv("SCHEDULE_SOURCE", "database"),
			GTFSPath:      getEnv("GTFS_PATH", ""),
			DefaultFare:   getEnvAsFloat("DEFAULT_FARE", 7000),
			ReloadCron:    getEnv("NETWORK_RELOAD_CRON", ""),
			LoadOnStartup: getEnvAsBool("NETWORK_LOAD_ON_STARTUP", true),
		},
		Routing: RoutingConfig{
			WeightsFile:       getEnv("ROUTING_WEIGHTS_FILE", ""),
			BusSpeedKmh:       getEnvAsFloat("BUS_SPEED_KMH", 20),
			RailSpeedKmh:      getEnvAsFloat("RAIL_SPEED_KMH", 40),
			WalkThresholdKm:   getEnvAsFloat("WALK_THRESHOLD_KM", 0.1),
			WalkSpeedKmh:      getEnvAsFloat("WALK_SPEED_KMH", 5),
			OriginCandidates:  getEnvAsInt("ORIGIN_CANDIDATES", 3),
			MinSeparationKm:   getEnvAsFloat("MIN_STOP_SEPARATION_KM", 0.05),
			MinTripDistanceKm: getEnvAsFloat("MIN_TRIP_DISTANCE_KM", 0.2),
			LongWalkKm:        getEnvAsFloat("LONG_WALK_KM", 0.5),
			FarDistanceKm:     getEnvAsFloat("FAR_DISTANCE_KM", 50),
			ItineraryTTL:      time.Duration(getEnvAsInt("ITINERARY_TTL_MINUTES", 30)) * time.Minute,
		},
		Walking: WalkingConfig{
			Provider:            getEnv("WALKING_PROVIDER", "straight_line"),
			ORSBaseURL:          getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
			ORSAPIKey:           getEnv("ORS_API_KEY", ""),
			Timeout:             time.Duration(getEnvAsInt("ORS_TIMEOUT_SECONDS", 5)) * time.Second,
			PaceMetersPerMinute: getEnvAsFloat("WALK_PACE_METERS_PER_MINUTE", 80),
			CacheSize:           getEnvAsInt("WALKING_CACHE_SIZE", 1000),
			CacheTTL:            time.Duration(getEnvAsInt("WALKING_CACHE_TTL_MINUTES", 60)) * time.Minute,
			NearbyRadiusKm:      getEnvAsFloat("NEARBY_RADIUS_KM", 1.5),
			NearbyLimit:         getEnvAsInt("NEARBY_LIMIT", 8),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			Issuer:            getEnv("JWT_ISSUER", "route-planner"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Schedule.Source {
	case "database":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SCHEDULE_SOURCE is database")
		}
		switch c.Database.Driver {
		case "postgres", "pgx", "sqlite":
		default:
			return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres', 'pgx' or 'sqlite')", c.Database.Driver)
		}
	case "gtfs":
		if c.Schedule.GTFSPath == "" {
			return fmt.Errorf("GTFS_PATH is required when SCHEDULE_SOURCE is gtfs")
		}
	default:
		return fmt.Errorf("invalid SCHEDULE_SOURCE: %s (must be 'database' or 'gtfs')", c.Schedule.Source)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Walking.Provider {
	case "straight_line":
	case "ors":
		if c.Walking.ORSAPIKey == "" {
			return fmt.Errorf("ORS_API_KEY is required when WALKING_PROVIDER is ors")
		}
	default:
		return fmt.Errorf("invalid WALKING_PROVIDER: %s (must be 'ors' or 'straight_line')", c.Walking.Provider)
	}

	if c.Routing.BusSpeedKmh <= 0 || c.Routing.RailSpeedKmh <= 0 || c.Routing.WalkSpeedKmh <= 0 {
		return fmt.Errorf("travel speeds must be positive")
	}
	if c.Routing.OriginCandidates < 1 {
		return fmt.Errorf("ORIGIN_CANDIDATES must be at least 1")
	}
	if c.Walking.PaceMetersPerMinute <= 0 {
		return fmt.Errorf("WALK_PACE_METERS_PER_MINUTE must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logrus.Warnf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
