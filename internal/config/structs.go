//nolint:lll
package config

import "github.com/MeKo-Tech/layocr/internal/storage"

// Config represents the complete configuration for layocr. It covers the
// run, serve and languages commands and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Recognition engine
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// Layout detection service
	Layout LayoutConfig `mapstructure:"layout" yaml:"layout" json:"layout"`

	// Annotation task documents
	Task TaskConfig `mapstructure:"task" yaml:"task" json:"task"`

	// Artifact output
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch input discovery
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// OCRConfig contains recognition engine settings.
type OCRConfig struct {
	TessdataDir     string   `mapstructure:"tessdata_dir" yaml:"tessdata_dir" json:"tessdata_dir"`
	Languages       []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	PageSegMode     int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	DefaultLanguage string   `mapstructure:"default_language" yaml:"default_language" json:"default_language"`
}

// LayoutConfig contains layout detection settings.
type LayoutConfig struct {
	Enabled             bool        `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint            string      `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Model               string      `mapstructure:"model" yaml:"model" json:"model"`
	ConfidenceThreshold float64     `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	TimeoutSec          int         `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	Cache               CacheConfig `mapstructure:"cache" yaml:"cache" json:"cache"`
}

// CacheConfig contains the Redis layout cache settings. An empty address
// disables the cache.
type CacheConfig struct {
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr" json:"redis_addr"`
	Password  string `mapstructure:"password" yaml:"password" json:"-"`
	DB        int    `mapstructure:"db" yaml:"db" json:"db"`
	TTLSec    int    `mapstructure:"ttl_sec" yaml:"ttl_sec" json:"ttl_sec"`
}

// TaskConfig contains task document settings.
type TaskConfig struct {
	GroupLevel   string `mapstructure:"group_level" yaml:"group_level" json:"group_level"`
	ImageBaseURL string `mapstructure:"image_base_url" yaml:"image_base_url" json:"image_base_url"`
}

// OutputConfig contains artifact output settings.
type OutputConfig struct {
	Dir        string           `mapstructure:"dir" yaml:"dir" json:"dir"`
	Storage    string           `mapstructure:"storage" yaml:"storage" json:"storage"`
	S3         storage.S3Config `mapstructure:"s3" yaml:"s3" json:"s3"`
	PageImages bool             `mapstructure:"page_images" yaml:"page_images" json:"page_images"`
	Format     string           `mapstructure:"format" yaml:"format" json:"format"`
	Report     string           `mapstructure:"report" yaml:"report" json:"report"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting per client address; 0 disables it
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RateBurst         int `mapstructure:"rate_burst" yaml:"rate_burst" json:"rate_burst"`
}

// BatchConfig contains input discovery settings.
type BatchConfig struct {
	Recursive bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include   []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}
