package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	JWTSecret string

	// SnapshotPath is the pebble directory holding table snapshots.
	SnapshotPath string
	// SnapshotCron drives the periodic snapshot task.
	SnapshotCron string

	SessionTTL time.Duration

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         GetEnv("PORT", "8080"),
		Env:          GetEnv("ENV", "development"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		JWTSecret:    GetEnv("JWT_SECRET", "huddle-dev-secret"),
		SnapshotPath: GetEnv("SNAPSHOT_PATH", "./data/snapshots"),
		SnapshotCron: GetEnv("SNAPSHOT_CRON", "* * * * *"),
		SMTPHost:     GetEnv("SMTP_HOST", ""),
		SMTPPort:     GetEnv("SMTP_PORT", "587"),
		SMTPUser:     GetEnv("SMTP_USER", ""),
		SMTPPass:     GetEnv("SMTP_PASS", ""),
		SMTPFrom:     GetEnv("SMTP_FROM", "no-reply@huddle.local"),
	}

	ttl, err := time.ParseDuration(GetEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	if !gronx.IsValid(cfg.SnapshotCron) {
		return nil, fmt.Errorf("invalid SNAPSHOT_CRON expression: %q", cfg.SnapshotCron)
	}

	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
