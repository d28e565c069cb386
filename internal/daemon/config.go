// Package daemon wires the logbook service together: configuration,
// logging, the embedded database, and the HTTP API server.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// Config is the daemon configuration, loaded from TOML with defaults for
// every field so an empty or missing file still yields a working daemon.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Export   ExportConfig   `toml:"export"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// DatabaseConfig configures the embedded SQLite store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures logrus output.
type LogConfig struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// MetricsConfig toggles the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// ExportConfig configures report export output.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// Home returns the daemon's state directory, CADENCE_HOME or ~/.cadence.
func Home() string {
	if home := os.Getenv("CADENCE_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".cadence"
	}
	return filepath.Join(userHome, ".cadence")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	home := Home()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7433,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, "cadence.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Export: ExportConfig{
			Dir: filepath.Join(home, "reports"),
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// is not an error: the defaults stand.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SetupLogging applies the log configuration to the process logger.
// Unknown levels fall back to info rather than failing startup.
func SetupLogging(cfg LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
