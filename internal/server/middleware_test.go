package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/layocr/internal/pdf"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/testutil"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

func TestCORSMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewFakeEngine("eng"), nil, RateLimitConfig{})
	called := false
	handler := srv.corsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodOptions, "/ocr", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
	assert.Equal(t, "https://annotate.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewFakeEngine("eng"), nil, RateLimitConfig{RequestsPerMinute: 1})
	handler := srv.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/ocr", nil)
		r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		w := httptest.NewRecorder()
		handler(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, req("192.0.2.1").Code)

	w := req("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, decodeResponse(t, w).Error, "rate limit exceeded")

	assert.Equal(t, http.StatusNoContent, req("192.0.2.2").Code)
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(RateLimitConfig{}))

	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 2})
	require.NotNil(t, rl)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rl.Allow("a", now))
	require.NoError(t, rl.Allow("a", now))

	err := rl.Allow("a", now)
	var limitErr *RateLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Limit)
	assert.InDelta(t, 30*time.Second, limitErr.RetryAfter, float64(time.Millisecond))

	// A rejected request does not consume a token.
	require.NoError(t, rl.Allow("a", now.Add(31*time.Second)))
	assert.Equal(t, 1, rl.Clients())

	require.NoError(t, rl.Allow("b", now.Add(time.Hour)))
	assert.Equal(t, 1, rl.Clients(), "idle clients are dropped")
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:4321"
	assert.Equal(t, "198.51.100.7", getClientIP(r))

	r.Header.Set("X-Real-IP", " 203.0.113.5 ")
	assert.Equal(t, "203.0.113.5", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(r))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&EmptyUploadError{Field: "file"}, http.StatusBadRequest},
		{&RequestError{Field: "inference", Err: errors.New("bad")}, http.StatusBadRequest},
		{&pipeline.UnsupportedFileTypeError{Path: "a.txt", Ext: ".txt"}, http.StatusUnsupportedMediaType},
		{&recognition.UnsupportedLanguageError{Language: "xx"}, http.StatusUnprocessableEntity},
		{&pipeline.InvalidOptionsError{Field: "model"}, http.StatusUnprocessableEntity},
		{&pipeline.InvalidOutputPathError{Path: "a b"}, http.StatusBadRequest},
		{&utils.ImageProcessingError{Operation: "decode", Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{pdf.ErrNoPages, http.StatusUnprocessableEntity},
		{errors.New("pdf is encrypted"), http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestHandlerRoutes(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewFakeEngine("eng"), nil, RateLimitConfig{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/health", "/languages", "/models", "/metrics"} {
		resp, err := http.Get(ts.URL + path) //nolint:noctx // test request
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
