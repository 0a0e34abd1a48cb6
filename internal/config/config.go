package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/job-tracker/internal/export"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

// Config holds all application configuration.
// Values come from environment variables (optionally loaded from a .env
// file) with sensible defaults.
//
// Environment Variables:
// HTTP:
// - HTTP_ADDR: listen address (default: :8080)
// - UI_ENABLED: serve the static UI (default: false)
// - UI_STATIC_DIR: directory holding index.html (default: ./web)
//
// System:
// - DATA_DIR: where the database and exports live (default: ~/.local/share/job_tracker)
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FILE: log to this file instead of stdout (optional)
//
// Store:
// - STORE_DRIVER: sqlite or memory (default: sqlite)
//
// Scheduled export:
// - EXPORT_CRON: standard 5-field cron expression, empty disables (default: empty)
// - EXPORT_FORMAT: json or csv (default: json)
// - EXPORT_DIR: output directory (default: $DATA_DIR/exports)
// - EXPORT_KEEP: number of scheduled exports to keep, 0 keeps all (default: 10)
type Config struct {
	HTTP   HTTPConfig   `json:"http"`
	System SystemConfig `json:"system"`
	Store  StoreConfig  `json:"store"`
	Export ExportConfig `json:"export"`
}

type HTTPConfig struct {
	Addr        string `json:"addr"`
	UIEnabled   bool   `json:"ui_enabled"`
	UIStaticDir string `json:"ui_static_dir"`
}

type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StoreConfig struct {
	Driver string `json:"driver"`
}

type ExportConfig struct {
	CronExpr string `json:"cron_expr"`
	Format   string `json:"format"`
	Dir      string `json:"dir"`
	Keep     int    `json:"keep"`
}

// Enabled reports whether scheduled exports are configured.
func (c ExportConfig) Enabled() bool {
	return strings.TrimSpace(c.CronExpr) != ""
}

// ExportFormat returns the parsed scheduled export format.
func (c ExportConfig) ExportFormat() (export.Format, error) {
	return export.ParseFormat(c.Format)
}

// DBPath is the SQLite file inside the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "job_tracker.db")
}

type Option func(*Config)

func WithDataDir(dir string) Option {
	return func(c *Config) {
		if strings.TrimSpace(dir) == "" {
			return
		}
		c.System.DataDir = dir
		if os.Getenv("EXPORT_DIR") == "" {
			c.Export.Dir = filepath.Join(dir, "exports")
		}
	}
}

func WithStoreDriver(driver string) Option {
	return func(c *Config) {
		if strings.TrimSpace(driver) != "" {
			c.Store.Driver = driver
		}
	}
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		if strings.TrimSpace(addr) != "" {
			c.HTTP.Addr = addr
		}
	}
}

// New loads an optional .env file from the working directory and then
// builds the config from the environment.
func New(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not load .env file: %v", err)
	}
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("DATA_DIR", defaultDataDir())
	config := &Config{
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8080"),
			UIEnabled:   getEnvBool("UI_ENABLED", false),
			UIStaticDir: getEnvString("UI_STATIC_DIR", "./web"),
		},
		System: SystemConfig{
			DataDir:  dataDir,
			LogLevel: getEnvString("LOG_LEVEL", "info"),
			LogFile:  getEnvString("LOG_FILE", ""),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnvString("STORE_DRIVER", DriverSQLite)),
		},
		Export: ExportConfig{
			CronExpr: getEnvString("EXPORT_CRON", ""),
			Format:   getEnvString("EXPORT_FORMAT", "json"),
			Dir:      getEnvString("EXPORT_DIR", filepath.Join(dataDir, "exports")),
			Keep:     getEnvInt("EXPORT_KEEP", 10),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", *config)
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.System.DataDir) == "" {
			return fmt.Errorf("DATA_DIR is required for the sqlite store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q, valid drivers: %s, %s", c.Store.Driver, DriverSQLite, DriverMemory)
	}
	if c.Export.Enabled() {
		if _, err := cron.ParseStandard(c.Export.CronExpr); err != nil {
			return fmt.Errorf("invalid EXPORT_CRON: %w", err)
		}
		if strings.TrimSpace(c.Export.Dir) == "" {
			return fmt.Errorf("EXPORT_DIR is required when EXPORT_CRON is set")
		}
	}
	if c.Export.Keep < 0 {
		return fmt.Errorf("EXPORT_KEEP cannot be negative")
	}
	if _, err := c.Export.ExportFormat(); err != nil {
		return fmt.Errorf("invalid EXPORT_FORMAT: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "job_tracker")
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
