//go:build tesseract

package recognition

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with libtesseract through gosseract. A
// fresh client is created per call; clients are not shared.
type TesseractEngine struct {
	cfg           EngineConfig
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine.
func NewTesseractEngine(cfg EngineConfig) (*TesseractEngine, error) {
	return &TesseractEngine{cfg: cfg, clientFactory: gosseract.NewClient}, nil
}

// Languages lists the traineddata files of the configured tessdata dir, or
// asks libtesseract when none is configured.
func (e *TesseractEngine) Languages() ([]string, error) {
	if e.cfg.TessdataDir != "" {
		return ListTessdata(e.cfg.TessdataDir)
	}
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list tesseract languages: %w", err)
	}
	return langs, nil
}

// Recognize runs Tesseract over img.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, lang string) (*EngineOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := utils.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if e.cfg.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
			return nil, fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("get word boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			BlockNum:   b.BlockNum,
			ParNum:     b.ParNum,
			LineNum:    b.LineNum,
			WordNum:    b.WordNum,
			Box:        utils.FromRect(b.Box),
			Confidence: b.Confidence,
			Text:       b.Word,
		})
	}
	return &EngineOutput{Text: text, Words: words}, nil
}
