// Package config handles VanirDB configuration.
//
// Configuration comes from environment variables prefixed with VANIRDB_,
// optionally layered over a YAML file. Environment variables always win, so
// a containerized deployment can override any file setting without editing
// it.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//
//	db, err := vanirdb.Open(cfg)
//
// Environment Variables:
//   - VANIRDB_DATA_DIR="./data"
//   - VANIRDB_IN_MEMORY=false
//   - VANIRDB_SYNC_WRITES=false
//   - VANIRDB_VECTOR_CAPACITY=2048
//   - VANIRDB_DEBUG_TYPE_CHECKS=false
//   - VANIRDB_PLUGINS_DIR=""
//   - VANIRDB_LOG_LEVEL=INFO
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all VanirDB settings.
//
// Use LoadFromEnv (or LoadFile followed by applyEnv via Load) to build one,
// and Validate before handing it to vanirdb.Open.
type Config struct {
	// Storage settings.
	Storage StorageConfig `yaml:"storage"`

	// Execution settings for the vectorized engine.
	Execution ExecutionConfig `yaml:"execution"`

	// Plugins settings for user-defined function loading.
	Plugins PluginsConfig `yaml:"plugins"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig holds storage engine settings.
type StorageConfig struct {
	// DataDir is the directory for BadgerDB data files.
	DataDir string `yaml:"dataDir"`
	// InMemory selects the non-persistent engine. DataDir is ignored.
	InMemory bool `yaml:"inMemory"`
	// SyncWrites forces fsync after each write.
	SyncWrites bool `yaml:"syncWrites"`
}

// ExecutionConfig holds vectorized execution settings.
type ExecutionConfig struct {
	// VectorCapacity is the slot count of each batch vector.
	VectorCapacity int `yaml:"vectorCapacity"`
	// DebugTypeChecks enables cell-width assertions in vector accessors.
	// Development aid; costs a check on every value access.
	DebugTypeChecks bool `yaml:"debugTypeChecks"`
}

// PluginsConfig holds UDF plugin loading settings.
type PluginsConfig struct {
	// Dir is scanned for .so plugins at open. Empty disables loading.
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Execution: ExecutionConfig{
			VectorCapacity: 2048,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// LoadFromEnv builds a Config from defaults overlaid with VANIRDB_*
// environment variables. It never fails; unparseable values keep their
// defaults. Call Validate before use.
func LoadFromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML config file and overlays VANIRDB_* environment
// variables on top of it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.DataDir = getEnv("VANIRDB_DATA_DIR", c.Storage.DataDir)
	c.Storage.InMemory = getEnvBool("VANIRDB_IN_MEMORY", c.Storage.InMemory)
	c.Storage.SyncWrites = getEnvBool("VANIRDB_SYNC_WRITES", c.Storage.SyncWrites)

	c.Execution.VectorCapacity = getEnvInt("VANIRDB_VECTOR_CAPACITY", c.Execution.VectorCapacity)
	c.Execution.DebugTypeChecks = getEnvBool("VANIRDB_DEBUG_TYPE_CHECKS", c.Execution.DebugTypeChecks)

	c.Plugins.Dir = getEnv("VANIRDB_PLUGINS_DIR", c.Plugins.Dir)

	c.Logging.Level = getEnv("VANIRDB_LOG_LEVEL", c.Logging.Level)
}

// Validate checks the configuration for invalid values. Call it after
// loading and before opening a database.
func (c *Config) Validate() error {
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("storage: data dir required unless in-memory")
	}
	if c.Execution.VectorCapacity <= 0 {
		return fmt.Errorf("execution: invalid vector capacity: %d", c.Execution.VectorCapacity)
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}

// String returns a representation safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, InMemory: %v, VectorCapacity: %d, PluginsDir: %s}",
		c.Storage.DataDir, c.Storage.InMemory,
		c.Execution.VectorCapacity, c.Plugins.Dir,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
