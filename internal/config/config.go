package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Recording RecordingConfig `yaml:"recording"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// TranscodeConfig contains MP3 encoding parameters
type TranscodeConfig struct {
	DefaultBitrate int     `yaml:"default_bitrate"` // kbps
	BlockSize      int     `yaml:"block_size"`      // samples per encode block
	SliceBudget    float64 `yaml:"slice_budget"`    // seconds of work per slice
	TickInterval   float64 `yaml:"tick_interval"`   // seconds between slices
}

// RecordingConfig contains microphone capture parameters
type RecordingConfig struct {
	SampleRate int     `yaml:"sample_rate"` // Hz
	Bitrate    int     `yaml:"bitrate"`     // kbps for the persisted take
	Ceiling    float64 `yaml:"ceiling"`     // seconds before auto-stop
}

// FetchConfig contains remote import configuration
type FetchConfig struct {
	Timeout       int   `yaml:"timeout"` // seconds
	MaxRetries    int   `yaml:"max_retries"`
	MaxConcurrent int   `yaml:"max_concurrent"`
	MaxBytes      int64 `yaml:"max_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Transcode.Validate(); err != nil {
		return fmt.Errorf("transcode config: %w", err)
	}

	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording config: %w", err)
	}

	if err := c.Fetch.Validate(); err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	return nil
}

// Validate validates transcode configuration
func (t *TranscodeConfig) Validate() error {
	if t.DefaultBitrate < 8 || t.DefaultBitrate > 320 {
		return fmt.Errorf("default_bitrate must be between 8 and 320 kbps, got %d", t.DefaultBitrate)
	}

	if t.BlockSize < 1 {
		return fmt.Errorf("block_size must be at least 1 sample, got %d", t.BlockSize)
	}

	if t.SliceBudget <= 0 {
		return fmt.Errorf("slice_budget must be positive, got %f", t.SliceBudget)
	}

	if t.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %f", t.TickInterval)
	}

	return nil
}

// Validate validates recording configuration
func (r *RecordingConfig) Validate() error {
	if r.SampleRate < 8000 || r.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", r.SampleRate)
	}

	if r.Bitrate < 8 || r.Bitrate > 320 {
		return fmt.Errorf("bitrate must be between 8 and 320 kbps, got %d", r.Bitrate)
	}

	if r.Ceiling <= 0 {
		return fmt.Errorf("ceiling must be positive, got %f", r.Ceiling)
	}

	return nil
}

// Validate validates fetch configuration
func (f *FetchConfig) Validate() error {
	if f.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", f.Timeout)
	}

	if f.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", f.MaxRetries)
	}

	if f.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", f.MaxConcurrent)
	}

	if f.MaxBytes < 1024 {
		return fmt.Errorf("max_bytes must be at least 1024, got %d", f.MaxBytes)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetSliceBudgetDuration returns the slice budget as a time.Duration
func (t *TranscodeConfig) GetSliceBudgetDuration() time.Duration {
	return time.Duration(t.SliceBudget * float64(time.Second))
}

// GetTickIntervalDuration returns the tick interval as a time.Duration
func (t *TranscodeConfig) GetTickIntervalDuration() time.Duration {
	return time.Duration(t.TickInterval * float64(time.Second))
}

// GetCeilingDuration returns the recording ceiling as a time.Duration
func (r *RecordingConfig) GetCeilingDuration() time.Duration {
	return time.Duration(r.Ceiling * float64(time.Second))
}

// GetTimeoutDuration returns the fetch timeout as a time.Duration
func (f *FetchConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(f.Timeout) * time.Second
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
		},
		Transcode: TranscodeConfig{
			DefaultBitrate: 32,
			BlockSize:      1152,
			SliceBudget:    0.015,
			TickInterval:   0.0167,
		},
		Recording: RecordingConfig{
			SampleRate: 22050,
			Bitrate:    32,
			Ceiling:    10,
		},
		Fetch: FetchConfig{
			Timeout:       30,
			MaxRetries:    3,
			MaxConcurrent: 4,
			MaxBytes:      32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
