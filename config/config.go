// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DBDriver       string
	DatabaseURL    string
	AllowedOrigins []string

	ServiceToken string
	AuthRequired bool

	GameTimeout   time.Duration
	TicketTTL     time.Duration
	SweepInterval time.Duration

	Archive ArchiveConfig
}

// ArchiveConfig points at an S3-compatible bucket. An empty Bucket disables archiving.
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads the process environment. godotenv should already have run.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("PORT", "5200"),
		DBDriver:     strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DatabaseURL:  getenv("DATABASE_URL", "connect4.db"),
		ServiceToken: os.Getenv("SERVICE_TOKEN"),
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			Region:          getenv("ARCHIVE_REGION", "auto"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		},
	}

	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	var err error
	if cfg.AuthRequired, err = boolEnv("AUTH_REQUIRED", true); err != nil {
		return nil, err
	}
	if cfg.GameTimeout, err = durationEnv("GAME_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.TicketTTL, err = durationEnv("TICKET_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// durationEnv accepts Go durations ("90s") or a bare number of seconds.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		v = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
