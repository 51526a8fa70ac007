// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Defaults applied by Default and MergeWithDefaults
const (
	DefaultPort             = 5000
	DefaultMaxUploadBytes   = 5 * 1024 * 1024
	DefaultMinTextChars     = 50
	DefaultMinFallbackChars = 100
)

// Environment variables that override file values
const (
	EnvPort           = "PORT"
	EnvVocabularyPath = "ATS_VOCABULARY_PATH"
)

// Config represents the analyzer configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Server
	Port           int   `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`   // HTTP listen port
	MaxUploadBytes int64 `json:"max_upload_bytes,omitempty" validate:"omitempty,min=1"` // Largest accepted upload
	MinTextChars   int   `json:"min_text_chars,omitempty" validate:"omitempty,min=1"`   // Shortest extracted text worth scoring

	// Extraction
	MinFallbackChars int `json:"min_fallback_chars,omitempty" validate:"omitempty,min=1"` // Threshold for low-confidence extraction tiers

	// Scoring
	VocabularyPath string `json:"vocabulary_path,omitempty"` // YAML vocabulary replacing the built-in lists

	// Logging
	JSONLogs bool `json:"json_logs,omitempty"` // Emit JSON log lines
	Debug    bool `json:"debug,omitempty"`     // Enable debug logging
}

// Default returns a Config with every numeric field set to its default.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		MaxUploadBytes:   DefaultMaxUploadBytes,
		MinTextChars:     DefaultMinTextChars,
		MinFallbackChars: DefaultMinFallbackChars,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from PORT and ATS_VOCABULARY_PATH when set.
func (c *Config) ApplyEnv() error {
	if value := os.Getenv(EnvPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config error: invalid %s %q: %w", EnvPort, value, err)
		}
		c.Port = port
	}
	if value := os.Getenv(EnvVocabularyPath); value != "" {
		c.VocabularyPath = value
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Zero values are allowed; they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	if c.VocabularyPath != "" {
		if _, err := os.Stat(c.VocabularyPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: vocabulary file not found: %s", c.VocabularyPath)
		}
	}

	return nil
}

// jsonFieldName reports validation failures under the JSON key
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxUploadBytes == 0 {
		result.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if result.MinTextChars == 0 {
		result.MinTextChars = defaults.MinTextChars
	}
	if result.MinFallbackChars == 0 {
		result.MinFallbackChars = defaults.MinFallbackChars
	}
	if result.VocabularyPath == "" {
		result.VocabularyPath = defaults.VocabularyPath
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
