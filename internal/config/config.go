// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir               string // Base directory for databases and the symbol map (always absolute)
	Port                  int
	LogLevel              string
	LogPretty             bool
	DevMode               bool
	CORSOrigins           []string
	MappingReloadSchedule string // Cron spec for symbol map reloads
	SessionTTLMinutes     int    // Lifetime of cached import sessions
	Backup                *BackupConfig
}

// BackupConfig holds offsite backup configuration. Backups stay disabled
// until every S3 field is provided.
type BackupConfig struct {
	Schedule          string // Cron spec with seconds field
	RetentionDays     int    // 0 keeps archives forever
	S3Endpoint        string // S3-compatible endpoint URL
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Configured reports whether enough S3 settings are present to run backups.
func (b *BackupConfig) Configured() bool {
	return b.S3Endpoint != "" && b.S3Bucket != "" &&
		b.S3AccessKeyID != "" && b.S3SecretAccessKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("SERVER_PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}),
		MappingReloadSchedule: getEnv("MAPPING_RELOAD_SCHEDULE", "@every 1m"),
		SessionTTLMinutes:     getEnvAsInt("SESSION_TTL_MINUTES", 60),
		Backup:                loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SessionTTL returns the import session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}
	if c.SessionTTLMinutes < 1 {
		return fmt.Errorf("session TTL must be at least one minute, got %d", c.SessionTTLMinutes)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup retention days must not be negative, got %d", c.Backup.RetentionDays)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// loadBackupConfig loads backup settings; S3 credentials come only from the
// environment, never from disk.
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Schedule:          getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"), // 03:00 daily
		RetentionDays:     getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
	}
}
