package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/storage"
	"github.com/MeKo-Tech/layocr/internal/task"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		OCR: OCRConfig{
			PageSegMode:     recognition.DefaultEngineConfig().PageSegMode,
			DefaultLanguage: "eng",
		},
		Layout: LayoutConfig{
			Enabled:             false,
			Endpoint:            "",
			Model:               string(layout.SanskritPubLayNetFasterRCNN),
			ConfidenceThreshold: 0.7,
			TimeoutSec:          60,
			Cache: CacheConfig{
				TTLSec: 86400,
			},
		},
		Task: TaskConfig{
			GroupLevel:   recognition.LevelBlock.String(),
			ImageBaseURL: task.DefaultImageBaseURL,
		},
		Output: OutputConfig{
			Dir:        "output",
			Storage:    storage.ModeLocal,
			PageImages: true,
			Format:     "text",
			S3: storage.S3Config{
				Region: "us-east-1",
			},
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      300,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Recursive: false,
		},
	}
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if err := c.StorageConfig().Validate(); err != nil {
		return err
	}

	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("invalid page segmentation mode: %d (must be between 0 and 13)", c.OCR.PageSegMode)
	}
	if _, err := recognition.ParseLevel(c.Task.GroupLevel); err != nil {
		return fmt.Errorf("invalid task group level: %w", err)
	}

	if c.Layout.Model != "" {
		if _, err := layout.ParseModel(c.Layout.Model); err != nil {
			return err
		}
	}
	if err := validateThreshold(c.Layout.ConfidenceThreshold, "layout.confidence_threshold"); err != nil {
		return err
	}
	if c.Layout.Enabled && c.Layout.Endpoint == "" {
		return errors.New("layout.endpoint is required when layout detection is enabled")
	}
	if c.Layout.TimeoutSec <= 0 {
		return fmt.Errorf("invalid layout timeout: %d (must be positive)", c.Layout.TimeoutSec)
	}
	if c.Layout.Cache.TTLSec < 0 {
		return fmt.Errorf("invalid layout cache ttl: %d (must not be negative)", c.Layout.Cache.TTLSec)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("invalid rate limit: %d/min burst %d (must not be negative)",
			c.Server.RequestsPerMinute, c.Server.RateBurst)
	}

	return nil
}

// EngineConfig converts the OCR section to the recognition engine config.
func (c *Config) EngineConfig() recognition.EngineConfig {
	return recognition.EngineConfig{
		TessdataDir: c.OCR.TessdataDir,
		Languages:   slices.Clone(c.OCR.Languages),
		PageSegMode: c.OCR.PageSegMode,
	}
}

// StorageConfig converts the output section to the storage config.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{Mode: c.Output.Storage, S3: c.Output.S3}
}

// PipelineConfig converts the task and output sections to the
// orchestrator config.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	level, err := recognition.ParseLevel(c.Task.GroupLevel)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		GroupLevel:      level,
		ImageBaseURL:    c.Task.ImageBaseURL,
		WritePageImages: c.Output.PageImages,
	}, nil
}

// RunOptions builds the default run options for lang, falling back to the
// configured default language.
func (c *Config) RunOptions(lang string) pipeline.Options {
	if lang == "" {
		lang = c.OCR.DefaultLanguage
	}
	opts := pipeline.Options{
		Language:  lang,
		OutputDir: c.Output.Dir,
		Layout:    c.Layout.Enabled,
		Threshold: c.Layout.ConfidenceThreshold,
	}
	if m, err := layout.ParseModel(c.Layout.Model); err == nil {
		opts.Model = m
	}
	return opts
}

// LayoutTimeout returns the detector request timeout.
func (c *Config) LayoutTimeout() time.Duration {
	return time.Duration(c.Layout.TimeoutSec) * time.Second
}

// CacheTTL returns the layout cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Layout.Cache.TTLSec) * time.Second
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if math.IsNaN(value) || value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
