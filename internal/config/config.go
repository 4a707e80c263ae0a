package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"noteguard-be/pkg/clock"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Security SecurityConfig
	Notes    NotesConfig
	Cleanup  CleanupConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver     string
	Connection string
}

type SecurityConfig struct {
	EncryptionKey string
	JWTSecret     string
	JWTExpiration time.Duration
}

type NotesConfig struct {
	ShareDefaultTTL time.Duration
	ShareMaxTTL     time.Duration
	NoteMaxTTL      time.Duration
}

type CleanupConfig struct {
	Enabled  bool
	Interval time.Duration
	LockTTL  time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/noteguard.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", DriverPostgres),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("APP_ENCRYPTION_KEY", ""),
			JWTSecret:     getEnv("JWT_SECRET", ""),
			JWTExpiration: hours(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)),
		},
		Notes: NotesConfig{
			ShareDefaultTTL: hours(getEnvAsInt("SHARE_DEFAULT_TTL_HOURS", 24)),
			ShareMaxTTL:     hours(getEnvAsInt("SHARE_MAX_TTL_HOURS", 720)),
			NoteMaxTTL:      hours(getEnvAsInt("NOTE_MAX_TTL_HOURS", 8760)),
		},
		Cleanup: CleanupConfig{
			Enabled:  getEnvAsBool("CLEANUP_ENABLED", true),
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
			LockTTL:  getEnvAsDuration("CLEANUP_LOCK_TTL", 5*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// Validate reports every problem at once so a misconfigured deploy fails
// with the full list.
func (c *Config) Validate() error {
	var errs []error

	if c.Security.EncryptionKey == "" {
		errs = append(errs, errors.New("APP_ENCRYPTION_KEY is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Security.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_HOURS must be positive"))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Connection == "" {
			errs = append(errs, errors.New("DB_CONNECTION_STRING is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or memory"))
	}

	if c.Notes.ShareDefaultTTL <= 0 || c.Notes.ShareMaxTTL <= 0 || c.Notes.NoteMaxTTL <= 0 {
		errs = append(errs, errors.New("note and share TTLs must be positive"))
	}
	if c.Notes.ShareDefaultTTL > c.Notes.ShareMaxTTL {
		errs = append(errs, errors.New("SHARE_DEFAULT_TTL_HOURS exceeds SHARE_MAX_TTL_HOURS"))
	}
	if c.Cleanup.Enabled && c.Cleanup.Interval <= 0 {
		errs = append(errs, errors.New("CLEANUP_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

// hours yields 0 for values clock.Hours rejects, which Validate reports.
func hours(n int) time.Duration {
	d, _ := clock.Hours(n)
	return d
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
