package layout

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDetectorDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, string(PubLayNetFasterRCNN), r.FormValue("model"))
		assert.Equal(t, "0.7", r.FormValue("confidence_threshold"))
		f, _, err := r.FormFile("image")
		if assert.NoError(t, err) {
			_ = f.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"B":{"box":[0,10,50,20],"confidence":0.8},"A":{"box":[0,50,50,80],"confidence":0.9}}`))
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, 5*time.Second)
	m, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 60, 100)), PubLayNetFasterRCNN, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, labels(m.Regions()))
	assert.Equal(t, []string{"A", "B"}, labels(Order(m)))
}

func TestHTTPDetectorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, time.Second)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	_, err := d.Detect(context.Background(), img, PubLayNetFasterRCNN, 0.5)
	var de *DetectionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusServiceUnavailable, de.Status)
	assert.Contains(t, err.Error(), "model not loaded")

	_, err = d.Detect(context.Background(), img, Model("nope"), 0.5)
	require.ErrorAs(t, err, &de)

	_, err = d.Detect(context.Background(), img, PubLayNetFasterRCNN, 2)
	require.ErrorAs(t, err, &de)
}

func TestHTTPDetectorUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPDetector(url, time.Second).Detect(
		context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)), PubLayNetFasterRCNN, 0.5)
	var de *DetectionError
	require.ErrorAs(t, err, &de)
	assert.Zero(t, de.Status)
}

type memCache struct {
	data   map[string][]byte
	getErr error
	sets   int
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	m.sets++
	return nil
}

type countingDetector struct {
	calls int
	err   error
}

func (c *countingDetector) Detect(_ context.Context, _ image.Image, _ Model, _ float64) (*RegionMap, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	m := NewRegionMap()
	m.Set(regionAt("text_0", 5))
	m.Set(regionAt("title_0", 1))
	return m, nil
}

func TestCachedDetector(t *testing.T) {
	next := &countingDetector{}
	cache := &memCache{data: map[string][]byte{}}
	d := NewCachedDetector(next, cache, time.Minute)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	first, err := d.Detect(context.Background(), img, PubLayNetFasterRCNN, 0.5)
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), img, PubLayNetFasterRCNN, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first.Regions(), second.Regions())

	// a different threshold is a different key
	_, err = d.Detect(context.Background(), img, PubLayNetFasterRCNN, 0.6)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedDetectorFallsThrough(t *testing.T) {
	next := &countingDetector{}
	cache := &memCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	d := NewCachedDetector(next, cache, time.Minute)

	_, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), PubLayNetFasterRCNN, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)

	next.err = &DetectionError{Model: PubLayNetFasterRCNN, Err: errors.New("boom")}
	_, err = d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), PubLayNetFasterRCNN, 0.5)
	var de *DetectionError
	require.ErrorAs(t, err, &de)
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 8, 8))
	b := image.NewRGBA(image.Rect(0, 0, 9, 8))

	k1, err := CacheKey(a, PubLayNetFasterRCNN, 0.5)
	require.NoError(t, err)
	k2, _ := CacheKey(b, PubLayNetFasterRCNN, 0.5)
	k3, _ := CacheKey(a, PubLayNetMaskRCNNR50, 0.5)
	k4, _ := CacheKey(a, PubLayNetFasterRCNN, 0.5)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, k4)
}
