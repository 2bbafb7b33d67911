package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort            int
	SQLiteDSN           string
	SessionTTL          time.Duration
	IncidentGracePeriod time.Duration
	LogLevel            string
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over file entries. Optional fields fall back to
// defaults, and malformed values are reported together.
func Load() (Config, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:            8080,
		SQLiteDSN:           "file:booking.db?_foreign_keys=on",
		SessionTTL:          24 * time.Hour,
		IncidentGracePeriod: 5 * time.Minute,
		LogLevel:            "info",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BOOKING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if graceValue := strings.TrimSpace(os.Getenv("BOOKING_INCIDENT_GRACE_PERIOD")); graceValue != "" {
		grace, err := time.ParseDuration(graceValue)
		if err != nil || grace <= 0 {
			invalid = append(invalid, "BOOKING_INCIDENT_GRACE_PERIOD")
		} else {
			cfg.IncidentGracePeriod = grace
		}
	}

	if level := strings.TrimSpace(strings.ToLower(os.Getenv("BOOKING_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "BOOKING_LOG_LEVEL")
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
