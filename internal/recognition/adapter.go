package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Engine is the external recognizer. Implementations receive a decoded
// image region and a language code and report the transcript plus word
// boxes with their block/paragraph/line/word ids.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, lang string) (*EngineOutput, error)
	Languages() ([]string, error)
}

// EngineConfig is the engine environment, read once and fixed for the
// lifetime of an Adapter.
type EngineConfig struct {
	TessdataDir string   `mapstructure:"tessdata_dir" yaml:"tessdata_dir" json:"tessdata_dir"`
	Languages   []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	PageSegMode int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
}

// DefaultEngineConfig returns the engine defaults: automatic page
// segmentation and languages discovered from the engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{PageSegMode: 3}
}

// Adapter validates languages against the installed set and turns engine
// output into a token table.
type Adapter struct {
	engine    Engine
	languages []string
}

// NewAdapter resolves the installed-language set once: the configured list
// when given, otherwise whatever the engine reports.
func NewAdapter(engine Engine, cfg EngineConfig) (*Adapter, error) {
	if engine == nil {
		return nil, errors.New("recognition engine is nil")
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		var err error
		langs, err = engine.Languages()
		if err != nil {
			return nil, &EngineError{Op: "languages", Err: err}
		}
	}
	langs = slices.Clone(langs)
	slices.Sort(langs)
	langs = slices.Compact(langs)
	return &Adapter{engine: engine, languages: langs}, nil
}

// Languages returns the installed languages, sorted.
func (a *Adapter) Languages() []string {
	return slices.Clone(a.languages)
}

// ValidateLanguage checks lang against the installed set. Combined
// selectors such as "san+eng" require every part to be installed.
func (a *Adapter) ValidateLanguage(lang string) error {
	if strings.TrimSpace(lang) == "" {
		return &UnsupportedLanguageError{Language: lang, Available: a.Languages()}
	}
	for _, part := range strings.Split(lang, "+") {
		if _, found := slices.BinarySearch(a.languages, part); !found {
			return &UnsupportedLanguageError{Language: lang, Available: a.Languages()}
		}
	}
	return nil
}

// Recognize runs the engine over img. Engine failures are wrapped in
// *EngineError and not retried.
func (a *Adapter) Recognize(ctx context.Context, img image.Image, lang string) (*Result, error) {
	if err := a.ValidateLanguage(lang); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, &EngineError{Op: "recognize", Err: errors.New("input image is nil")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &EngineError{Op: "recognize", Err: err}
	}

	start := time.Now()
	out, err := a.engine.Recognize(ctx, img, lang)
	if err != nil {
		return nil, &EngineError{Op: "recognize", Err: err}
	}
	if out == nil {
		return nil, &EngineError{Op: "recognize", Err: fmt.Errorf("engine returned no output")}
	}

	b := img.Bounds()
	res := &Result{
		Language: lang,
		Text:     NormalizeText(out.Text),
		Tokens:   BuildTable(b.Dx(), b.Dy(), out.Words),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
	slog.Debug("recognized image",
		"lang", lang,
		"width", res.Width,
		"height", res.Height,
		"words", len(out.Words),
		"duration", time.Since(start))
	return res, nil
}
