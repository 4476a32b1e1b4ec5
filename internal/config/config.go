package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// First-party token and third-party identity configuration
	Auth AuthConfig

	// Uploaded gallery images
	Uploads UploadsConfig

	// Background jobs
	Jobs JobsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" default:"wanderlust.sqlite"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"` // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // json, console
}

// HTTPConfig holds listener and CORS settings
type HTTPConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// AuthConfig holds JWT and Clerk settings
type AuthConfig struct {
	JWTSecret          string `envconfig:"JWT_SECRET"`
	JWTExpirationHours int64  `envconfig:"JWT_EXPIRATION_HOURS" default:"168"`
	ClerkSecretKey     string `envconfig:"CLERK_SECRET_KEY"`
	ClerkWebhookSecret string `envconfig:"CLERK_WEBHOOK_SECRET"`
}

// UploadsConfig holds the upload directory and size limit
type UploadsConfig struct {
	Dir        string `envconfig:"UPLOADS_DIR" default:"uploads"`
	MaxSizeMB  int64  `envconfig:"UPLOAD_MAX_MB" default:"10"`
	PublicPath string `envconfig:"UPLOADS_PUBLIC_PATH" default:"/uploads"`
}

// JobsConfig holds worker schedules and notification targets
type JobsConfig struct {
	PurgeSchedule    string `envconfig:"PURGE_SCHEDULE" default:"0 3 * * *"` // Cron expression for revoked-token purge
	AdminNotifyEmail string `envconfig:"ADMIN_NOTIFY_EMAIL" default:"admin@wanderlust.com"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.Auth.JWTExpirationHours <= 0 {
		cfg.Auth.JWTExpirationHours = 168
	}

	return &cfg, nil
}

// AllowedOrigins splits the comma separated CORS origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.HTTP.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsPostgres reports whether the database URL points at PostgreSQL rather than a SQLite file
func (d DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://")
}
