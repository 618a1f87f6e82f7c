package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr         = ":5000"
	defaultUploadDir        = "./uploads"
	defaultSnapshotPath     = "./shared_files.json"
	defaultOperatorSecret   = "change-me-operator-secret"
	defaultOperatorTokenTTL = "720h"
	defaultSessionRetention = "0s"
	defaultCleanupInterval  = "10m"
	defaultWriteTimeout     = "0s"
	defaultUploadsEnabled   = "true"
	defaultMetricsLog       = "0s"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	// PublicURL is the externally reachable base URL (tunnel or reverse
	// proxy). Empty means links are relative.
	PublicURL string

	UploadsEnabled bool
	UploadDir      string
	SnapshotPath   string
	DatabaseURL    string

	OperatorSecret       string
	OperatorPasswordHash string
	OperatorTokenTTL     time.Duration

	SessionRetention       time.Duration
	SessionCleanupInterval time.Duration
	DownloadWriteTimeout   time.Duration
	MetricsLogInterval     time.Duration

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_URL")), "/")
	cfg.UploadsEnabled = parseBoolEnv("UPLOADS_ENABLED", defaultUploadsEnabled)
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.SnapshotPath = strings.TrimSpace(getEnv("SNAPSHOT_PATH", defaultSnapshotPath))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.OperatorSecret = strings.TrimSpace(getEnv("OPERATOR_SECRET", defaultOperatorSecret))
	cfg.OperatorPasswordHash = strings.TrimSpace(os.Getenv("OPERATOR_PASSWORD_HASH"))

	var err error
	cfg.OperatorTokenTTL, err = parseDurationEnv("OPERATOR_TOKEN_TTL", defaultOperatorTokenTTL)
	if err != nil {
		return nil, err
	}
	cfg.SessionRetention, err = parseDurationEnv("SESSION_RETENTION", defaultSessionRetention)
	if err != nil {
		return nil, err
	}
	cfg.SessionCleanupInterval, err = parseDurationEnv("SESSION_CLEANUP_INTERVAL", defaultCleanupInterval)
	if err != nil {
		return nil, err
	}
	cfg.DownloadWriteTimeout, err = parseDurationEnv("DOWNLOAD_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		return nil, err
	}
	cfg.MetricsLogInterval, err = parseDurationEnv("METRICS_LOG_INTERVAL", defaultMetricsLog)
	if err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s upload_dir=%s store=%s session_retention=%v",
		cfg.AppEnv, cfg.HTTPAddr, cfg.UploadDir, cfg.StoreKind(), cfg.SessionRetention)

	return cfg, nil
}

// StoreKind names the registry persistence backend.
func (c *Config) StoreKind() string {
	if c.DatabaseURL == "" {
		return "file"
	}
	return "database"
}

// OperatorLoginEnabled reports whether POST /api/admin/login can succeed.
func (c *Config) OperatorLoginEnabled() bool {
	return c.OperatorPasswordHash != ""
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if cfg.DatabaseURL == "" && cfg.SnapshotPath == "" {
		return fmt.Errorf("SNAPSHOT_PATH must be set when DATABASE_URL is empty")
	}
	if cfg.OperatorTokenTTL <= 0 {
		return fmt.Errorf("OPERATOR_TOKEN_TTL must be > 0")
	}
	if cfg.SessionRetention < 0 {
		return fmt.Errorf("SESSION_RETENTION must be >= 0")
	}
	if cfg.SessionRetention > 0 && cfg.SessionCleanupInterval <= 0 {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be > 0 when SESSION_RETENTION is set")
	}
	if cfg.DownloadWriteTimeout < 0 {
		return fmt.Errorf("DOWNLOAD_WRITE_TIMEOUT must be >= 0")
	}
	if cfg.MetricsLogInterval < 0 {
		return fmt.Errorf("METRICS_LOG_INTERVAL must be >= 0")
	}
	if cfg.PublicURL != "" && !strings.HasPrefix(cfg.PublicURL, "http://") && !strings.HasPrefix(cfg.PublicURL, "https://") {
		return fmt.Errorf("PUBLIC_URL must start with http:// or https://")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.OperatorSecret, defaultOperatorSecret) {
			return fmt.Errorf("in prod/release OPERATOR_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

// IsProdLike reports whether cfg runs in a production-like environment.
func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
