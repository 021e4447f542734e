// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/giftledger/internal/backup"
)

// Config holds all configuration values for giftledger.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DBPath is the SQLite database file. Defaults to "giftledger.db".
	DBPath string

	// LogLevel is one of debug, info, warn, error. Defaults to "info".
	LogLevel string

	// PollInterval is how often a guest screen polls for a new snapshot.
	PollInterval time.Duration

	// MaxImportBytes caps the size of an uploaded backup file.
	MaxImportBytes int64

	// Backup configures encrypted remote backups. Remote backup stays off
	// unless bucket, keys and passphrase are all set.
	Backup backup.Config
}

// Load reads configuration from environment variables. Every malformed
// value is reported in a single error.
func Load() (Config, error) {
	cfg := Config{
		Port:     getEnv("GIFTLEDGER_PORT", "8080"),
		DBPath:   getEnv("GIFTLEDGER_DB_PATH", "giftledger.db"),
		LogLevel: getEnv("GIFTLEDGER_LOG_LEVEL", "info"),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("GIFTLEDGER_S3_ENDPOINT"),
				Bucket:    os.Getenv("GIFTLEDGER_S3_BUCKET"),
				Region:    getEnv("GIFTLEDGER_S3_REGION", "us-east-1"),
				AccessKey: os.Getenv("GIFTLEDGER_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("GIFTLEDGER_S3_SECRET_KEY"),
			},
			Passphrase: os.Getenv("GIFTLEDGER_BACKUP_PASSPHRASE"),
		},
	}

	var invalid []string

	poll, err := parseDuration("GIFTLEDGER_POLL_INTERVAL", "1s")
	if err != nil {
		invalid = append(invalid, err.Error())
	}
	cfg.PollInterval = poll

	interval, err := parseDuration("GIFTLEDGER_BACKUP_INTERVAL", "24h")
	if err != nil {
		invalid = append(invalid, err.Error())
	}
	cfg.Backup.Interval = interval

	maxBytes, err := strconv.ParseInt(getEnv("GIFTLEDGER_MAX_IMPORT_BYTES", "10485760"), 10, 64)
	if err != nil || maxBytes <= 0 {
		invalid = append(invalid, "GIFTLEDGER_MAX_IMPORT_BYTES must be a positive integer")
	}
	cfg.MaxImportBytes = maxBytes

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
	}
	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
