// Package config reads client settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultAPIURL is the backend used when IMS_API_URL is unset and no remote
// is selected.
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	APIURL      string        // IMS_API_URL (default DefaultAPIURL)
	StateDir    string        // IMS_STATE_DIR (default ~/.local/state/ims)
	HTTPTimeout time.Duration // IMS_HTTP_TIMEOUT (default 0 = no client timeout)
	NATSURL     string        // IMS_NATS_URL (optional, empty = no events)

	AuditDatabaseURL string // IMS_AUDIT_DATABASE_URL (optional, empty = no audit log)

	// Export settings
	ExportS3Bucket   string // IMS_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string // IMS_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string // IMS_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string // IMS_EXPORT_S3_KEY (default "ims/export.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		APIURL:           envOrDefault("IMS_API_URL", DefaultAPIURL),
		StateDir:         os.Getenv("IMS_STATE_DIR"),
		NATSURL:          os.Getenv("IMS_NATS_URL"),
		AuditDatabaseURL: os.Getenv("IMS_AUDIT_DATABASE_URL"),
		ExportS3Bucket:   os.Getenv("IMS_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("IMS_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("IMS_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("IMS_EXPORT_S3_KEY", "ims/export.jsonl"),
	}

	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.StateDir = filepath.Join(home, ".local", "state", "ims")
	}

	if s := os.Getenv("IMS_HTTP_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("IMS_HTTP_TIMEOUT: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("IMS_HTTP_TIMEOUT: must not be negative, got %s", d)
		}
		c.HTTPTimeout = d
	}

	return c, nil
}

// SessionPath is the TOML file holding the persisted token.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.toml")
}

// RemotesPath is the TOML file holding named backends.
func (c *Config) RemotesPath() string {
	return filepath.Join(c.StateDir, "remotes.toml")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
