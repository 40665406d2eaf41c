// Package config provides configuration structures and validation for the
// application. Configuration is loaded once at startup into an immutable
// value and injected into the components that need it.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field covers
// one subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Watch       WatchConfig
	Processing  ProcessingConfig
	Ledger      LedgerConfig
	Uploads     UploadsConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// WatchConfig contains filesystem watch loop configuration
type WatchConfig struct {
	Dir               string        // Watch root for incoming invoices
	Recursive         bool          // Also watch subdirectories
	SettleDelay       time.Duration // Quiet period before a new file is processed
	AggregateDebounce time.Duration // Debounce window for directory total recomputes
	EventBuffer       int           // Capacity of the bounded event channel
}

// ProcessingConfig contains document resolution configuration
type ProcessingConfig struct {
	TempDir          string // Where intermediate rasters are written
	KeepTempFiles    bool   // Retain intermediate rasters for inspection
	RenameWithAmount bool   // Embed the amount in canonical filenames
	RenderDPI        int    // Rasterization resolution
	PdftoppmPath     string // poppler pdftoppm binary
	PdftotextPath    string // poppler pdftotext binary
}

// LedgerConfig contains the idempotency ledger configuration
type LedgerConfig struct {
	Path string // Backing file for the content-hash ledger
}

// UploadsConfig contains upload surface configuration
type UploadsConfig struct {
	Dir               string        // Where uploaded documents are stored
	DownloadDir       string        // Where result archives are written
	Retention         time.Duration // Age after which pending uploads are deleted
	SweepInterval     time.Duration // Fixed period of the retention sweep
	MaxUploadBytes    int64         // Per-request multipart memory limit
	AdminUsername     string
	AdminPasswordHash string // hex sha256 of the admin password
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Watch config
	if c.Watch.Dir == "" {
		validationErrors = append(validationErrors, "WATCH_DIR is required")
	}
	if c.Watch.SettleDelay <= 0 {
		validationErrors = append(validationErrors, "SETTLE_DELAY must be greater than 0")
	}
	if c.Watch.AggregateDebounce <= 0 {
		validationErrors = append(validationErrors, "AGGREGATE_DEBOUNCE must be greater than 0")
	}
	if c.Watch.EventBuffer <= 0 {
		validationErrors = append(validationErrors, "EVENT_BUFFER must be greater than 0")
	}

	// Validate Processing config
	if c.Processing.TempDir == "" {
		validationErrors = append(validationErrors, "TEMP_DIR is required")
	}
	if c.Processing.RenderDPI <= 0 {
		validationErrors = append(validationErrors, "RENDER_DPI must be greater than 0")
	}

	// Validate Ledger config
	if c.Ledger.Path == "" {
		validationErrors = append(validationErrors, "LEDGER_PATH is required")
	}

	// Validate Uploads config
	if c.Uploads.Dir == "" {
		validationErrors = append(validationErrors, "UPLOAD_DIR is required")
	}
	if c.Uploads.DownloadDir == "" {
		validationErrors = append(validationErrors, "DOWNLOAD_DIR is required")
	}
	if c.Uploads.Retention <= 0 {
		validationErrors = append(validationErrors, "UPLOAD_RETENTION must be greater than 0")
	}
	if c.Uploads.SweepInterval <= 0 {
		validationErrors = append(validationErrors, "UPLOAD_SWEEP_INTERVAL must be greater than 0")
	}
	if c.Uploads.MaxUploadBytes <= 0 {
		validationErrors = append(validationErrors, "MAX_UPLOAD_BYTES must be greater than 0")
	}
	if c.Uploads.AdminUsername == "" {
		validationErrors = append(validationErrors, "ADMIN_USERNAME is required")
	}
	if c.Uploads.AdminPasswordHash == "" {
		validationErrors = append(validationErrors, "ADMIN_PASSWORD_HASH is required")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
