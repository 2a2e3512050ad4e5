package config

import (
	"time"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/engine"
	"github.com/lambda-feedback/shimbridge/handler"
	"github.com/lambda-feedback/shimbridge/internal/metrics"
)

type LogConfig struct {
	// Level is the log level for the application
	Level string `conf:"level"`

	// Format is the log format for the application.
	// Options: production, development.
	Format string `conf:"format"`

	// File is an optional file logs are written to, rotated by size
	File string `conf:"file"`

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `conf:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep
	MaxBackups int `conf:"max_backups"`
}

type Config struct {
	// Log is the logging configuration
	Log LogConfig `conf:"log"`

	// Auth is the authorization configuration of inbound requests
	Auth handler.AuthConfig `conf:"auth"`

	// Bridge is the bridge configuration
	Bridge bridge.Config `conf:"bridge"`

	// Engine is the engine configuration
	Engine engine.Config `conf:"engine"`

	// Metrics is the metrics configuration
	Metrics metrics.Config `conf:"metrics"`
}

// DefaultConfig holds the defaults, keyed by their koanf path.
var DefaultConfig = map[string]any{
	"log.level":                   "info",
	"log.format":                  "production",
	"log.max_size_mb":             100,
	"log.max_backups":             3,
	"bridge.max_concurrency":      bridge.DefaultMaxConcurrency,
	"engine.type":                 string(engine.RouterEngine),
	"engine.process.io":           "stdio",
	"engine.process.stop.timeout": 5 * time.Second,
	"engine.rpc.transport":        "ipc",
	"engine.rpc.dial_timeout":     10 * time.Second,
	"engine.rpc.stop_timeout":     5 * time.Second,
	"metrics.path":                "/metrics",
}
