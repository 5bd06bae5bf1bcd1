package utils

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	for _, p := range []string{"a.png", "b.JPG", "c.jpeg", "d.bmp", "e.tif", "f.TIFF"} {
		assert.True(t, IsSupportedImage(p), p)
	}
	for _, p := range []string{"a.gif", "b.pdf", "noext", "c.webp"} {
		assert.False(t, IsSupportedImage(p), p)
	}
	assert.True(t, IsPDF("scan.PDF"))
	assert.False(t, IsPDF("scan.png"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "page", Stem("/tmp/in/page.png"))
	assert.Equal(t, "a.b", Stem("a.b.jpeg"))
}

func TestLoadImageRoundTrip(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 12, 8))
	data, err := EncodePNG(img)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 8, meta.Height)
	assert.Equal(t, path, meta.Path)
}

func TestLoadImageErrors(t *testing.T) {
	_, _, err := LoadImage("")
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)

	_, _, err = LoadImage("file.gif")
	require.ErrorAs(t, err, &ipe)

	_, _, err = DecodeImage([]byte("not an image"))
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)

	_, err = EncodePNG(nil)
	require.Error(t, err)
}
