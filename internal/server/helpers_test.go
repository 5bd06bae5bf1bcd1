package server

import (
	"bytes"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/testutil"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// newTestServer builds a server over a real orchestrator with a scripted
// engine and detector. Job ids are fixed to "job".
func newTestServer(t *testing.T, eng *testutil.FakeEngine, det layout.Detector, rl RateLimitConfig) (*Server, string) {
	t.Helper()
	adapter, err := recognition.NewAdapter(eng, recognition.EngineConfig{})
	require.NoError(t, err)
	b := pipeline.NewBuilder().WithAdapter(adapter)
	if det != nil {
		b = b.WithDetector(det)
	}
	orch, err := b.Build()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	srv, err := NewServer(orch, Config{
		CORSOrigin:  "https://annotate.example",
		MaxUploadMB: 1,
		Defaults: pipeline.Options{
			Language:  "eng",
			OutputDir: out,
			Model:     layout.SanskritPubLayNetFasterRCNN,
			Threshold: 0.7,
		},
		RateLimit: rl,
	})
	require.NoError(t, err)
	srv.newJobID = func() string { return "job" }
	return srv, out
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	return testutil.PNGBytes(t, testutil.CreateTestImage(200, 100, color.White))
}

// newUploadRequest builds a multipart POST /ocr request. An empty filename
// omits the file part.
func newUploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile(uploadField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ocr", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func leafRegions() []layout.Region {
	return []layout.Region{
		{Label: "text_top", Box: utils.BoundingBox{Left: 0, Top: 10, Width: 100, Height: 30}, Confidence: 0.9},
		{Label: "text_bottom", Box: utils.BoundingBox{Left: 0, Top: 50, Width: 100, Height: 30}, Confidence: 0.6},
	}
}
