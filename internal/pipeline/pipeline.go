// Package pipeline drives page recognition: it validates a run, expands
// inputs into pages and writes the transcript, markup and task artifacts
// of every page into its own output directory.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/storage"
	"github.com/MeKo-Tech/layocr/internal/task"
)

// Config holds the orchestrator settings that do not change per run.
type Config struct {
	// GroupLevel is the structural level task entries are grouped at.
	GroupLevel recognition.Level
	// ImageBaseURL prefixes page image names in task documents.
	ImageBaseURL string
	// WritePageImages stores the PNG of every PDF page next to its artifacts.
	WritePageImages bool
}

// DefaultConfig returns block-level grouping and the default image URL.
func DefaultConfig() Config {
	return Config{
		GroupLevel:      recognition.LevelBlock,
		ImageBaseURL:    task.DefaultImageBaseURL,
		WritePageImages: true,
	}
}

// Builder constructs an Orchestrator with fluent configuration.
type Builder struct {
	cfg      Config
	adapter  *recognition.Adapter
	detector layout.Detector
	store    storage.Store
}

// NewBuilder creates a new builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithAdapter sets the recognition adapter.
func (b *Builder) WithAdapter(a *recognition.Adapter) *Builder {
	b.adapter = a
	return b
}

// WithDetector sets the layout detector. Without one only direct runs are
// accepted.
func (b *Builder) WithDetector(d layout.Detector) *Builder {
	b.detector = d
	return b
}

// WithStore sets the artifact store. Defaults to the local filesystem.
func (b *Builder) WithStore(s storage.Store) *Builder {
	b.store = s
	return b
}

// WithGroupLevel sets the task grouping level.
func (b *Builder) WithGroupLevel(level recognition.Level) *Builder {
	b.cfg.GroupLevel = level
	return b
}

// WithImageBaseURL sets the base URL for task image references.
func (b *Builder) WithImageBaseURL(base string) *Builder {
	if base != "" {
		b.cfg.ImageBaseURL = base
	}
	return b
}

// WithPageImages toggles writing PDF page images.
func (b *Builder) WithPageImages(enabled bool) *Builder {
	b.cfg.WritePageImages = enabled
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the orchestrator can be built.
func (b *Builder) Validate() error {
	if b.adapter == nil {
		return errors.New("recognition adapter is required")
	}
	if !b.cfg.GroupLevel.Valid() {
		return fmt.Errorf("invalid group level: %d", b.cfg.GroupLevel)
	}
	return nil
}

// Build returns the configured Orchestrator.
func (b *Builder) Build() (*Orchestrator, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	store := b.store
	if store == nil {
		store = storage.NewLocal("")
	}
	return &Orchestrator{cfg: b.cfg, adapter: b.adapter, detector: b.detector, store: store}, nil
}

// Orchestrator runs pages through direct or layout recognition. Pages are
// processed sequentially; one Orchestrator may serve concurrent runs as
// long as they target different output directories.
type Orchestrator struct {
	cfg      Config
	adapter  *recognition.Adapter
	detector layout.Detector
	store    storage.Store
}

// Config returns the orchestrator configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Languages returns the installed recognition languages.
func (o *Orchestrator) Languages() []string { return o.adapter.Languages() }

// LayoutEnabled reports whether a layout detector is configured.
func (o *Orchestrator) LayoutEnabled() bool { return o.detector != nil }

// Store returns the artifact store.
func (o *Orchestrator) Store() storage.Store { return o.store }

// Validate runs the checks that must pass before anything is written. All
// failures are fatal for the run.
func (o *Orchestrator) Validate(opts Options) error {
	if err := o.adapter.ValidateLanguage(opts.Language); err != nil {
		return err
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return &InvalidOutputPathError{Path: opts.OutputDir, Reason: "must not be empty"}
	}
	if strings.Contains(opts.OutputDir, " ") {
		return &InvalidOutputPathError{Path: opts.OutputDir, Reason: "must not contain spaces"}
	}
	if !opts.Layout {
		return nil
	}
	if o.detector == nil {
		return &InvalidOptionsError{Field: "inference", Reason: "no layout detector configured"}
	}
	if !opts.Model.Valid() {
		return &InvalidOptionsError{Field: "model", Reason: fmt.Sprintf("unknown layout model %q", opts.Model)}
	}
	if err := layout.ValidateThreshold(opts.Threshold); err != nil {
		return &InvalidOptionsError{Field: "confidence_threshold", Reason: err.Error()}
	}
	return nil
}
