// Package config provides configuration loading and validation for the
// sound editor service. It handles YAML-based configuration with
// per-section validation and duration helpers.
package config
