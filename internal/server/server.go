package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates a new OCR server around proc.
func NewServer(proc Processor, config Config) (*Server, error) {
	if proc == nil {
		return nil, errors.New("server requires a processor")
	}
	if config.Defaults.OutputDir == "" {
		return nil, errors.New("server requires an output directory")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}

	return &Server{
		proc:        proc,
		defaults:    config.Defaults,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		limiter:     NewRateLimiter(config.RateLimit),
		newJobID:    uuid.NewString,
	}, nil
}

// Handler returns the routes plus /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
