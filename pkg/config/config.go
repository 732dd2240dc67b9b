// Package config provides configuration file support for actionlog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/actionlog-project/actionlog/pkg/logging"
	"github.com/actionlog-project/actionlog/pkg/model"
)

// Config controls the logging core. Invalid numeric values are clamped to
// safe bounds rather than rejected, so a malformed config degrades the
// subsystem instead of preventing startup.
type Config struct {
	Enabled             bool            `yaml:"enabled"`
	LogDirectory        string          `yaml:"log_directory"`
	QueueCapacity       int             `yaml:"queue_capacity"`
	BatchSize           int             `yaml:"batch_size"`
	BatchTimeoutSeconds float64         `yaml:"batch_timeout_seconds"`
	MaskingEnabled      bool            `yaml:"masking_enabled"`
	CustomSensitive     []string        `yaml:"custom_sensitive_fields"`
	MaxPayloadChars     int             `yaml:"max_payload_chars"`
	RetentionDays       int             `yaml:"retention_days"`
	MaxTotalSizeMB      int             `yaml:"max_total_size_mb"`
	CompressAfterDays   int             `yaml:"compress_after_days"`
	CleanupOnStartup    bool            `yaml:"cleanup_on_startup"`
	EventTypes          map[string]bool `yaml:"event_types"`
	Logging             LoggingConfig   `yaml:"logging"`
}

// LoggingConfig configures the subsystem's own diagnostic output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Clamping bounds for numeric settings.
const (
	minQueueCapacity = 16
	maxQueueCapacity = 1_000_000
	minBatchSize     = 1
	minBatchTimeout  = 0.05
	maxBatchTimeout  = 60.0
	minPayloadChars  = 256
	maxPayloadChars  = 1_000_000
	minRetentionDays = 1
	maxRetentionDays = 3650
	minTotalSizeMB   = 1
	maxTotalSizeMB   = 1_048_576
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Enabled:             true,
		LogDirectory:        defaultLogDir(),
		QueueCapacity:       1000,
		BatchSize:           100,
		BatchTimeoutSeconds: 1.0,
		MaskingEnabled:      true,
		MaxPayloadChars:     4096,
		RetentionDays:       30,
		MaxTotalSizeMB:      1024,
		CompressAfterDays:   7,
		CleanupOnStartup:    true,
		Logging:             LoggingConfig{Level: "info"},
	}
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "actionlog")
	}
	return filepath.Join(home, ".actionlog", "logs")
}

// Load reads configuration from the given path. A missing file is not an
// error; defaults are used. The returned config is already normalized.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

// Save writes configuration to the given path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Normalize clamps out-of-range numeric settings to their documented bounds,
// warning for each adjustment.
func (c *Config) Normalize() {
	c.QueueCapacity = clampInt("queue_capacity", c.QueueCapacity, minQueueCapacity, maxQueueCapacity)
	c.BatchSize = clampInt("batch_size", c.BatchSize, minBatchSize, c.QueueCapacity)
	c.BatchTimeoutSeconds = clampFloat("batch_timeout_seconds", c.BatchTimeoutSeconds, minBatchTimeout, maxBatchTimeout)
	c.MaxPayloadChars = clampInt("max_payload_chars", c.MaxPayloadChars, minPayloadChars, maxPayloadChars)
	c.RetentionDays = clampInt("retention_days", c.RetentionDays, minRetentionDays, maxRetentionDays)
	c.MaxTotalSizeMB = clampInt("max_total_size_mb", c.MaxTotalSizeMB, minTotalSizeMB, maxTotalSizeMB)
	c.CompressAfterDays = clampInt("compress_after_days", c.CompressAfterDays, 1, c.RetentionDays)
	if c.LogDirectory == "" {
		c.LogDirectory = defaultLogDir()
	}
}

// BatchTimeout returns the batch timeout as a duration.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutSeconds * float64(time.Second))
}

// EventEnabled reports whether events of the given type should be recorded.
// Types absent from the map are enabled.
func (c *Config) EventEnabled(t model.EventType) bool {
	if c.EventTypes == nil {
		return true
	}
	enabled, ok := c.EventTypes[string(t)]
	if !ok {
		return true
	}
	return enabled
}

func clampInt(name string, v, lo, hi int) int {
	if v < lo {
		logging.Warn("config value below minimum, clamped", map[string]any{"setting": name, "value": v, "min": lo})
		return lo
	}
	if v > hi {
		logging.Warn("config value above maximum, clamped", map[string]any{"setting": name, "value": v, "max": hi})
		return hi
	}
	return v
}

func clampFloat(name string, v, lo, hi float64) float64 {
	if v < lo {
		logging.Warn("config value below minimum, clamped", map[string]any{"setting": name, "value": v, "min": lo})
		return lo
	}
	if v > hi {
		logging.Warn("config value above maximum, clamped", map[string]any{"setting": name, "value": v, "max": hi})
		return hi
	}
	return v
}
