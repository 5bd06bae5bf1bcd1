// Package storage writes output artifacts. Page output directories are
// created exclusively so that two runs never share one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrExists is returned by CreateDir when the directory already exists.
var ErrExists = errors.New("output directory already exists")

// ErrNotEmpty is returned by RemoveDir when the directory holds files.
var ErrNotEmpty = errors.New("output directory is not empty")

// Store is the artifact sink.
type Store interface {
	// CreateDir creates dir and any missing parents. It fails with ErrExists
	// when dir itself already exists.
	CreateDir(ctx context.Context, dir string) error
	// WriteFile writes data to path, replacing any previous content.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Location returns a human-readable location for path.
	Location(path string) string
	// RemoveDir removes dir when it holds no files. A directory that is
	// not empty is left alone and reported with ErrNotEmpty.
	RemoveDir(ctx context.Context, dir string) error
}

// Modes accepted by New.
const (
	ModeLocal = "local"
	ModeS3    = "s3"
)

// Config selects and configures a Store.
type Config struct {
	Mode string   `mapstructure:"storage" yaml:"storage" json:"storage"`
	S3   S3Config `mapstructure:"s3" yaml:"s3" json:"s3"`
}

// S3Config configures the S3 store.
type S3Config struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket" json:"bucket"`
	Region string `mapstructure:"region" yaml:"region" json:"region"`
	Prefix string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// Validate checks the storage configuration.
func (c Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "", ModeLocal:
		return nil
	case ModeS3:
		if c.S3.Bucket == "" {
			return errors.New("output.s3.bucket is required when output.storage is s3")
		}
		return nil
	}
	return fmt.Errorf("unknown output storage: %s (use 'local' or 's3')", c.Mode)
}

// New builds the Store selected by cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Mode, ModeS3) {
		return NewS3FromConfig(ctx, cfg.S3)
	}
	return NewLocal(""), nil
}
