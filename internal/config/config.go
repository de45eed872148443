// Package config loads and validates application configuration from environment
// variables, optionally layered over a config file named by CONFIG_FILE.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DBDriver selects the sprint and credential store: "postgres" (default)
	// or "sqlite".
	DBDriver string

	// DatabaseURL is the Postgres connection string, or the SQLite file path.
	// Required for postgres; defaults to "jetjot.db" for sqlite.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat is "json" (default) or "text".
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs session tokens. Required by the server.
	JWTSecret string

	// SessionTTL is the lifetime of a session token. Defaults to 24h.
	SessionTTL time.Duration

	// AuthLookupTimeout bounds the credential lookup during login. Defaults to 10s.
	AuthLookupTimeout time.Duration

	// BcryptCost is the work factor for new password hashes. Defaults to 8.
	BcryptCost int

	// MaxSprintDays caps the number of calendar days in one sprint. Defaults to 60.
	MaxSprintDays int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	RateLimit RateLimitConfig
	Weather   WeatherConfig

	// GeocodeURL is the reverse geocoding endpoint.
	GeocodeURL string

	// OutboundTimeout bounds every call to an external collaborator. Defaults to 10s.
	OutboundTimeout time.Duration
}

// RateLimitConfig holds the two fixed windows of the login guard.
type RateLimitConfig struct {
	GlobalMax    int
	GlobalWindow time.Duration
	UserMax      int
	UserWindow   time.Duration
}

// WeatherConfig points the weather collaborator at its two endpoints.
type WeatherConfig struct {
	ForecastURL string
	ArchiveURL  string
	Timezone    string
	DefaultLat  float64
	DefaultLng  float64
}

// Load reads the full server configuration.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	return load(true)
}

// LoadDatabase reads the configuration needed by commands that only touch the
// store (migrate, admin). JWT_SECRET is not required.
func LoadDatabase() (Config, error) {
	return load(false)
}

func load(requireSecret bool) (Config, error) {
	v := newViper()
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:              v.GetString("port"),
		DBDriver:          strings.ToLower(v.GetString("db_driver")),
		DatabaseURL:       v.GetString("database_url"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         strings.ToLower(v.GetString("log_format")),
		CORSOrigins:       splitCSV(v.GetString("cors_origins")),
		JWTSecret:         v.GetString("jwt_secret"),
		SessionTTL:        v.GetDuration("session_ttl"),
		AuthLookupTimeout: v.GetDuration("auth_lookup_timeout"),
		BcryptCost:        v.GetInt("bcrypt_cost"),
		MaxSprintDays:     v.GetInt("max_sprint_days"),
		MaxBodyBytes:      v.GetInt64("max_body_bytes"),
		RateLimit: RateLimitConfig{
			GlobalMax:    v.GetInt("rate_limit_global_max"),
			GlobalWindow: v.GetDuration("rate_limit_global_window"),
			UserMax:      v.GetInt("rate_limit_user_max"),
			UserWindow:   v.GetDuration("rate_limit_user_window"),
		},
		Weather: WeatherConfig{
			ForecastURL: v.GetString("weather_forecast_url"),
			ArchiveURL:  v.GetString("weather_archive_url"),
			Timezone:    v.GetString("weather_timezone"),
			DefaultLat:  v.GetFloat64("weather_default_lat"),
			DefaultLng:  v.GetFloat64("weather_default_lng"),
		},
		GeocodeURL:      v.GetString("geocode_url"),
		OutboundTimeout: v.GetDuration("outbound_timeout"),
	}

	var missing []string

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "jetjot.db"
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver)
	}

	if requireSecret && cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}
	if cfg.MaxSprintDays < 1 {
		return Config{}, fmt.Errorf("MAX_SPRINT_DAYS must be positive, got %d", cfg.MaxSprintDays)
	}

	return cfg, nil
}

// newViper binds every key to its upper-case environment variable.
// Empty variables count as unset, so defaults still apply.
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("config_file", "")
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("auth_lookup_timeout", "10s")
	v.SetDefault("bcrypt_cost", 8)
	v.SetDefault("max_sprint_days", 60)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("rate_limit_global_max", 15)
	v.SetDefault("rate_limit_global_window", "10m")
	v.SetDefault("rate_limit_user_max", 5)
	v.SetDefault("rate_limit_user_window", "15m")
	v.SetDefault("weather_forecast_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather_archive_url", "https://archive-api.open-meteo.com/v1/archive")
	v.SetDefault("weather_timezone", "auto")
	v.SetDefault("weather_default_lat", 40.7128)
	v.SetDefault("weather_default_lng", -74.0060)
	v.SetDefault("geocode_url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("outbound_timeout", "10s")
	return v
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
