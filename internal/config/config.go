// README: Config loader with env defaults for HTTP, Firebase, Maps, journal DB, Redis lease and sweep settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type SweepConfig struct {
	// Schedule is a standard five-field cron expression evaluated in Location.
	Schedule  string
	Location  *time.Location
	Threshold time.Duration
	// RideLocation is the zone in which the naive ride date/time fields are read.
	RideLocation *time.Location
	LeaseKey     string
	LeaseTTL     time.Duration
}

type GeoConfig struct {
	BiasLat     float64
	BiasLng     float64
	RadiusM     int
	CountryCode string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey string
	}
	Log struct {
		Level       string
		Development bool
	}
	Feed struct {
		Enabled bool
	}
	Geo   GeoConfig
	Sweep SweepConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("RIDENOTIFY_HTTP_ADDR", ":8080")
	cfg.Firebase.ProjectID = os.Getenv("RIDENOTIFY_FIREBASE_PROJECT_ID")
	cfg.Firebase.CredentialsFile = os.Getenv("RIDENOTIFY_FIREBASE_CREDENTIALS")
	cfg.DB.DSN = os.Getenv("RIDENOTIFY_DB_DSN")
	cfg.Redis.Addr = os.Getenv("RIDENOTIFY_REDIS_ADDR")
	cfg.Maps.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Log.Level = envOrDefault("RIDENOTIFY_LOG_LEVEL", "info")
	cfg.Log.Development = envOrDefaultBool("RIDENOTIFY_LOG_DEV", false)
	cfg.Feed.Enabled = envOrDefaultBool("RIDENOTIFY_FEED_ENABLED", true)

	cfg.Geo.BiasLat = envOrDefaultFloat("RIDENOTIFY_GEO_BIAS_LAT", 26.0667)
	cfg.Geo.BiasLng = envOrDefaultFloat("RIDENOTIFY_GEO_BIAS_LNG", 50.5577)
	cfg.Geo.RadiusM = envOrDefaultInt("RIDENOTIFY_GEO_RADIUS_M", 50000)
	cfg.Geo.CountryCode = envOrDefault("RIDENOTIFY_GEO_COUNTRY", "bh")

	cfg.Sweep.Schedule = envOrDefault("RIDENOTIFY_SWEEP_SCHEDULE", "0 * * * *")
	cfg.Sweep.Threshold = envOrDefaultDuration("RIDENOTIFY_SWEEP_THRESHOLD", 6*time.Hour)
	cfg.Sweep.LeaseKey = envOrDefault("RIDENOTIFY_SWEEP_LEASE_KEY", "ridenotify:sweep:lease")
	cfg.Sweep.LeaseTTL = envOrDefaultDuration("RIDENOTIFY_SWEEP_LEASE_TTL", 50*time.Minute)

	var err error
	if cfg.Sweep.Location, err = time.LoadLocation(envOrDefault("RIDENOTIFY_SWEEP_TZ", "Asia/Bahrain")); err != nil {
		return cfg, fmt.Errorf("RIDENOTIFY_SWEEP_TZ: %w", err)
	}
	if cfg.Sweep.RideLocation, err = time.LoadLocation(envOrDefault("RIDENOTIFY_RIDE_TZ", "UTC")); err != nil {
		return cfg, fmt.Errorf("RIDENOTIFY_RIDE_TZ: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
		return cfg, fmt.Errorf("RIDENOTIFY_SWEEP_SCHEDULE: %w", err)
	}
	if cfg.Sweep.Threshold <= 0 {
		return cfg, fmt.Errorf("RIDENOTIFY_SWEEP_THRESHOLD must be positive")
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
