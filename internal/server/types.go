package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MeKo-Tech/layocr/internal/pipeline"
)

// Processor is the part of the orchestrator the server drives.
type Processor interface {
	Validate(opts pipeline.Options) error
	ProcessDocument(ctx context.Context, name string, data []byte, opts pipeline.Options) (*pipeline.FileResult, error)
	Languages() []string
	LayoutEnabled() bool
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	proc        Processor
	defaults    pipeline.Options
	corsOrigin  string
	maxUploadMB int64
	limiter     *RateLimiter
	newJobID    func() string
}

// Config holds server configuration.
type Config struct {
	CORSOrigin  string
	MaxUploadMB int64
	// Defaults are the run options a request starts from. OutputDir is the
	// root under which every job gets its own directory.
	Defaults  pipeline.Options
	RateLimit RateLimitConfig
}

// RateLimitConfig bounds requests per client address. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Layout  bool   `json:"layout"`
	Time    string `json:"time"`
}

// LanguagesResponse is returned by /languages.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Count     int      `json:"count"`
}

// ModelInfo describes one layout model.
type ModelInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// ModelsResponse is returned by /models.
type ModelsResponse struct {
	Models  []ModelInfo `json:"models"`
	Count   int         `json:"count"`
	Enabled bool        `json:"enabled"`
}

// PageArtifacts carries the files written for one page.
type PageArtifacts struct {
	Name    string          `json:"name"`
	Page    int             `json:"page,omitempty"`
	Mode    pipeline.Mode   `json:"mode"`
	Dir     string          `json:"dir"`
	Text    string          `json:"text"`
	HOCR    string          `json:"hocr,omitempty"`
	Tasks   json.RawMessage `json:"tasks,omitempty"`
	Regions json.RawMessage `json:"regions,omitempty"`
	Words   int             `json:"words"`
	Score   float64         `json:"score"`
	Files   []string        `json:"files,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OCRResponse is returned by POST /ocr.
type OCRResponse struct {
	Success bool            `json:"success"`
	JobID   string          `json:"job_id,omitempty"`
	Source  string          `json:"source,omitempty"`
	Pages   []PageArtifacts `json:"pages,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func newPageArtifacts(p pipeline.PageResult) PageArtifacts {
	a := PageArtifacts{
		Name:  p.Name,
		Page:  p.Page,
		Mode:  p.Mode,
		Dir:   p.Dir,
		Text:  p.Text,
		HOCR:  string(p.HOCR),
		Words: p.Words,
		Score: p.Score,
		Files: p.Files,
		Error: p.Error,
	}
	if len(p.Tasks) > 0 {
		a.Tasks = json.RawMessage(p.Tasks)
	}
	if len(p.RegionsJSON) > 0 {
		a.Regions = json.RawMessage(p.RegionsJSON)
	}
	return a
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/languages", s.corsMiddleware(s.languagesHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/ocr", s.corsMiddleware(s.rateLimitMiddleware(s.ocrHandler)))
}
