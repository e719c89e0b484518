package app

import (
	"os"
	"strconv"
	"time"

	"github.com/keyhaven/backoffice/pkg/jwtx"
)

type Config struct {
	Issuer         string // Required: issuer claim for session credentials
	BootstrapToken string // Optional: token required to perform bootstrap
	BaseURL        string // Base URL used to build links in outbound mail

	DatabaseDriver string        // Optional: database driver (sqlite, postgres) (default: sqlite)
	DatabaseDSN    string        // Optional: database DSN (default: ./backoffice.db for sqlite)
	PepperFile     string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	SigningKeyFile string        // Optional: path to Ed25519 signing key PEM (default: ./signing.pem)
	SessionTTL     time.Duration // Optional: session credential lifetime (default: 12h)

	MailDriver   string // Optional: mail driver (smtp, log) (default: log)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPStartTLS bool

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("IDENTITY_ISSUER", "keyhaven-backoffice"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		BaseURL:        getEnvOrDefault("BASE_URL", "http://localhost:8080"),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		PepperFile:     getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		SigningKeyFile: getEnvOrDefault("IDENTITY_SIGNING_KEY_FILE", "signing.pem"),
		SessionTTL:     getEnvDurationOrDefault("SESSION_TTL", jwtx.DefaultSessionTTL),

		MailDriver:   getEnvOrDefault("MAIL_DRIVER", "log"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@keyhaven.example"),
		SMTPStartTLS: getEnvBoolOrDefault("SMTP_STARTTLS", true),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "backoffice.db"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
