package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/layocr/internal/utils"
)

// Detector is the external layout detector: given a page image, a model
// and a confidence threshold it returns the detected regions by label.
type Detector interface {
	Detect(ctx context.Context, img image.Image, model Model, threshold float64) (*RegionMap, error)
}

// DetectionError wraps a layout-detection failure for one page.
type DetectionError struct {
	Model  Model
	Status int
	Err    error
}

func (e *DetectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("layout detection with %s failed (status %d): %v", e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("layout detection with %s failed: %v", e.Model, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// HTTPDetector calls a layout inference service over HTTP. The page is
// posted as a PNG in the multipart field "image" together with "model" and
// "confidence_threshold".
type HTTPDetector struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDetector creates a detector for endpoint. A zero timeout leaves
// requests unbounded.
func NewHTTPDetector(endpoint string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image, model Model, threshold float64) (*RegionMap, error) {
	if !model.Valid() {
		return nil, &DetectionError{Model: model, Err: fmt.Errorf("unknown model %q", model)}
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, &DetectionError{Model: model, Err: err}
	}

	body, contentType, err := encodeRequest(img, model, threshold)
	if err != nil {
		return nil, &DetectionError{Model: model, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		return nil, &DetectionError{Model: model, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &DetectionError{Model: model, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &DetectionError{Model: model, Status: resp.StatusCode, Err: errors.New(string(bytes.TrimSpace(msg)))}
	}

	regions, err := ParseDetections(resp.Body)
	if err != nil {
		return nil, &DetectionError{Model: model, Status: resp.StatusCode, Err: err}
	}
	slog.Debug("layout detected",
		"model", model,
		"threshold", threshold,
		"regions", regions.Len(),
		"duration", time.Since(start))
	return regions, nil
}

func encodeRequest(img image.Image, model Model, threshold float64) (io.Reader, string, error) {
	data, err := utils.EncodePNG(img)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "page.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", string(model)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("confidence_threshold", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
