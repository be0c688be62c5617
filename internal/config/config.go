// Package config loads and validates application configuration from
// environment variables. A local .env file is loaded first when present, so
// development setups need no shell exports.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// BusinessTimezone is the fixed IANA zone used to interpret and preserve
	// appointment wall-clock times across DST transitions.
	// Defaults to "America/New_York".
	BusinessTimezone string

	// RedisAddr enables the per-group mutation lock when set (host:port).
	// Empty disables locking.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQURL enables notification publishing when set.
	RabbitMQURL string

	// Google Calendar sync settings. ClientID, ClientSecret and CalendarID
	// must all be set to enable sync.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCalendarID   string
	GoogleTokenFile    string

	// S3 backup settings. An empty BackupBucket disables backups.
	// Endpoint and path-style are for MinIO-compatible stores.
	BackupBucket    string
	BackupRegion    string
	BackupEndpoint  string
	BackupPathStyle bool

	// ReminderInterval is how often the reminder scanner runs;
	// ReminderWindow is how far ahead it looks.
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
}

// Load reads configuration from the environment (and an optional .env file)
// and returns a Config. Returns an error listing any required variables that
// are not set, or naming an invalid value.
func Load() (Config, error) {
	// A missing .env file is the normal production case; ignore the error.
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "America/New_York"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCalendarID:   os.Getenv("GOOGLE_CALENDAR_ID"),
		GoogleTokenFile:    getEnv("GOOGLE_TOKEN_FILE", "token.json"),

		BackupBucket:    os.Getenv("BACKUP_S3_BUCKET"),
		BackupRegion:    getEnv("BACKUP_S3_REGION", "us-east-1"),
		BackupEndpoint:  os.Getenv("BACKUP_S3_ENDPOINT"),
		BackupPathStyle: strings.EqualFold(os.Getenv("BACKUP_S3_PATH_STYLE"), "true"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_DB must be an integer: %q", v)
		}
		cfg.RedisDB = n
	}

	var err error
	cfg.ReminderInterval, err = durationEnv("REMINDER_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.ReminderWindow, err = durationEnv("REMINDER_WINDOW", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	if _, err := time.LoadLocation(cfg.BusinessTimezone); err != nil {
		return Config{}, fmt.Errorf("BUSINESS_TIMEZONE %q is not a valid IANA zone: %w", cfg.BusinessTimezone, err)
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Location returns the parsed business timezone. Load has already validated
// it, so the error path only fires on hand-built Configs.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.BusinessTimezone)
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv parses an optional duration variable (e.g. "90s", "10m").
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 5m: %q", key, v)
	}
	return d, nil
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
