//go:build !tesseract

package recognition

import (
	"context"
	"image"
)

// TesseractEngine is a stub used when the "tesseract" build tag is not set.
// Recognition always fails with ErrEngineNotEnabled.
//
// To enable Tesseract, rebuild with:
//
//	go build -tags tesseract
//
// This requires libtesseract and leptonica to be installed.
type TesseractEngine struct {
	cfg EngineConfig
}

// NewTesseractEngine returns ErrEngineNotEnabled.
func NewTesseractEngine(cfg EngineConfig) (*TesseractEngine, error) {
	return nil, ErrEngineNotEnabled
}

// Languages can still be listed from a tessdata directory.
func (e *TesseractEngine) Languages() ([]string, error) {
	if e != nil && e.cfg.TessdataDir != "" {
		return ListTessdata(e.cfg.TessdataDir)
	}
	return nil, ErrEngineNotEnabled
}

// Recognize returns ErrEngineNotEnabled.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, lang string) (*EngineOutput, error) {
	return nil, ErrEngineNotEnabled
}
