//go:build !tesseract

package recognition

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTesseractStub(t *testing.T) {
	_, err := NewTesseractEngine(DefaultEngineConfig())
	require.ErrorIs(t, err, ErrEngineNotEnabled)

	var e *TesseractEngine
	_, err = e.Languages()
	require.ErrorIs(t, err, ErrEngineNotEnabled)

	_, err = (&TesseractEngine{}).Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)), "eng")
	assert.ErrorIs(t, err, ErrEngineNotEnabled)
}
