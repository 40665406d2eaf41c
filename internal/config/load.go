package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a .env file using the provided base
// name (e.g. "watcher" -> watcher.env), falling back to environment
// variables and defaults when the file is absent.
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env")
}

// LoadConfigWithName loads configuration using the specified name,
// auto-detecting the file type.
func LoadConfigWithName(configName string) (*Config, error) {
	return loadConfig(configName, "")
}

// loadConfig handles configuration loading from files and environment
// variables. Layered: defaults, then config file, then environment, then
// validation of the final value.
func loadConfig(configName, configType string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	// Config paths in order of priority
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("INFO: No config file '%s' found, relying on environment variables and defaults.\n", configName)
		} else {
			fmt.Printf("WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Printf("INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv()

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Watch: WatchConfig{
			Dir:               v.GetString("WATCH_DIR"),
			Recursive:         v.GetBool("WATCH_RECURSIVE"),
			SettleDelay:       v.GetDuration("SETTLE_DELAY"),
			AggregateDebounce: v.GetDuration("AGGREGATE_DEBOUNCE"),
			EventBuffer:       v.GetInt("EVENT_BUFFER"),
		},
		Processing: ProcessingConfig{
			TempDir:          v.GetString("TEMP_DIR"),
			KeepTempFiles:    v.GetBool("KEEP_TEMP_FILES"),
			RenameWithAmount: v.GetBool("RENAME_WITH_AMOUNT"),
			RenderDPI:        v.GetInt("RENDER_DPI"),
			PdftoppmPath:     v.GetString("PDFTOPPM_PATH"),
			PdftotextPath:    v.GetString("PDFTOTEXT_PATH"),
		},
		Ledger: LedgerConfig{
			Path: v.GetString("LEDGER_PATH"),
		},
		Uploads: UploadsConfig{
			Dir:               v.GetString("UPLOAD_DIR"),
			DownloadDir:       v.GetString("DOWNLOAD_DIR"),
			Retention:         v.GetDuration("UPLOAD_RETENTION"),
			SweepInterval:     v.GetDuration("UPLOAD_SWEEP_INTERVAL"),
			MaxUploadBytes:    v.GetInt64("MAX_UPLOAD_BYTES"),
			AdminUsername:     v.GetString("ADMIN_USERNAME"),
			AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with sensible default values,
// used when no configuration file or environment variables are present.
func setDefaults(v *viper.Viper) {
	// HTTP Server defaults - tuned for multipart upload workloads
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_READ_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)

	// Watch loop defaults
	v.SetDefault("WATCH_DIR", "./watch")
	v.SetDefault("WATCH_RECURSIVE", false)
	v.SetDefault("SETTLE_DELAY", time.Second)
	v.SetDefault("AGGREGATE_DEBOUNCE", time.Second)
	v.SetDefault("EVENT_BUFFER", 256)

	// Document resolution defaults - 300 DPI keeps small symbols decodable
	v.SetDefault("TEMP_DIR", "./tmp")
	v.SetDefault("KEEP_TEMP_FILES", false)
	v.SetDefault("RENAME_WITH_AMOUNT", true)
	v.SetDefault("RENDER_DPI", 300)
	v.SetDefault("PDFTOPPM_PATH", "pdftoppm")
	v.SetDefault("PDFTOTEXT_PATH", "pdftotext")

	// Idempotency ledger defaults
	v.SetDefault("LEDGER_PATH", "./data/ledger.json")

	// Upload surface defaults - sweep runs every minute regardless of volume
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("DOWNLOAD_DIR", "./downloads")
	v.SetDefault("UPLOAD_RETENTION", 30*time.Minute)
	v.SetDefault("UPLOAD_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("MAX_UPLOAD_BYTES", int64(64<<20))
	v.SetDefault("ADMIN_USERNAME", "admin")
	// sha256("admin") - development only, override in any real deployment
	v.SetDefault("ADMIN_PASSWORD_HASH", "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918")

	// Logging defaults
	v.SetDefault("LOG_LEVEL", "info")

	// Application defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "invoice-scanner")

	// Worker Pool defaults - uploads are I/O bound, a small pool suffices
	v.SetDefault("WORKER_POOL_SIZE", 4)
}
