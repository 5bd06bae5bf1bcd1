package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateTestImage returns a uniformly filled RGBA image.
func CreateTestImage(width, height int, fill color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, fill)
		}
	}
	return img
}

// PNGBytes encodes img as PNG.
func PNGBytes(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// WritePNG writes img to path as PNG.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, PNGBytes(t, img), 0o600))
}

// WritePDF writes a PDF with one full-page image per page to path.
func WritePDF(t testing.TB, path string, pages ...image.Image) {
	t.Helper()
	data, err := BuildPDF(pages...)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
