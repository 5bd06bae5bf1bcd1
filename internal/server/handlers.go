package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/MeKo-Tech/layocr/internal/version"
)

const uploadField = "file"

// requestOptions is the schema of the JSON "config" form field. Absent
// fields keep the server defaults.
type requestOptions struct {
	Lang                *string  `json:"lang"`
	Inference           *bool    `json:"inference"`
	Model               *string  `json:"model"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	Pages               *string  `json:"pages"`
	Password            *string  `json:"password"`
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Layout:  s.proc != nil && s.proc.LayoutEnabled(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// languagesHandler lists the installed recognition languages.
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	langs := s.proc.Languages()
	writeJSON(w, http.StatusOK, LanguagesResponse{Languages: langs, Count: len(langs)})
}

// modelsHandler lists the layout models a request may select.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	models := layout.Models()
	infos := make([]ModelInfo, len(models))
	for i, m := range models {
		infos[i] = ModelInfo{Name: string(m), Default: m == s.defaults.Model}
	}
	writeJSON(w, http.StatusOK, ModelsResponse{
		Models:  infos,
		Count:   len(infos),
		Enabled: s.proc.LayoutEnabled(),
	})
}

// ocrHandler runs one OCR job on an uploaded image or PDF and returns the
// written artifacts.
func (s *Server) ocrHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename, data, opts, status, err := s.parseOCRRequest(w, r)
	if err != nil {
		ocrRequestsTotal.WithLabelValues("unknown", "rejected").Inc()
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	jobID := s.newJobID()
	name := fmt.Sprintf("%s-%s%s", jobID, utils.Stem(filename), strings.ToLower(filepath.Ext(filename)))
	mode := string(opts.Mode())

	start := time.Now()
	res, err := s.proc.ProcessDocument(r.Context(), name, data, opts)
	duration := time.Since(start)
	ocrProcessingDuration.WithLabelValues(mode).Observe(duration.Seconds())

	if err != nil {
		ocrRequestsTotal.WithLabelValues(mode, "error").Inc()
		slog.Error("OCR job failed", "job", jobID, "file", filename, "error", err)
		s.writeErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	resp := OCRResponse{JobID: jobID, Source: filename}
	for _, p := range res.Pages {
		resp.Pages = append(resp.Pages, newPageArtifacts(p))
	}
	ocrPagesPerJob.Observe(float64(len(res.Pages)))

	status = http.StatusOK
	resp.Success = res.Failed() < len(res.Pages)
	if !resp.Success {
		status = http.StatusInternalServerError
		resp.Error = "no page could be processed"
		if err := res.Err(); err != nil {
			resp.Error = err.Error()
		}
		ocrRequestsTotal.WithLabelValues(mode, "error").Inc()
	} else {
		ocrRequestsTotal.WithLabelValues(mode, "success").Inc()
	}

	slog.Info("OCR job completed",
		"job", jobID,
		"file", filename,
		"mode", mode,
		"pages", len(res.Pages),
		"failed", res.Failed(),
		"duration", duration)
	writeJSON(w, status, resp)
}

// parseOCRRequest reads the upload and the run options. On failure it
// returns the status code to answer with.
func (s *Server) parseOCRRequest(w http.ResponseWriter, r *http.Request) (string, []byte, pipeline.Options, int, error) {
	var opts pipeline.Options
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, opts, http.StatusRequestEntityTooLarge, errors.New("file too large")
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return "", nil, opts, http.StatusBadRequest, &EmptyUploadError{Field: uploadField}
		}
		return "", nil, opts, http.StatusBadRequest, fmt.Errorf("failed to parse form data: %w", err)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, opts, http.StatusBadRequest, &EmptyUploadError{Field: uploadField}
	}
	defer func() { _ = file.Close() }()

	if header.Size == 0 || header.Filename == "" {
		return "", nil, opts, http.StatusBadRequest, &EmptyUploadError{Field: uploadField}
	}
	if !utils.IsSupportedImage(header.Filename) && !utils.IsPDF(header.Filename) {
		err := &pipeline.UnsupportedFileTypeError{
			Path: header.Filename,
			Ext:  strings.ToLower(filepath.Ext(header.Filename)),
		}
		return "", nil, opts, http.StatusUnsupportedMediaType, err
	}
	uploadSizeBytes.Observe(float64(header.Size))

	opts, err = s.decodeOptions(r)
	if err != nil {
		return "", nil, opts, http.StatusBadRequest, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, opts, http.StatusInternalServerError, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, opts, http.StatusOK, nil
}

// decodeOptions applies the request options on top of the server defaults,
// either from the JSON "config" field or from individual form fields.
func (s *Server) decodeOptions(r *http.Request) (pipeline.Options, error) {
	var ro requestOptions

	if raw := r.FormValue("config"); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ro); err != nil {
			return pipeline.Options{}, &RequestError{Field: "config", Err: err}
		}
	} else {
		var err error
		if ro, err = formOptions(r); err != nil {
			return pipeline.Options{}, err
		}
	}

	opts := s.defaults
	if ro.Lang != nil {
		opts.Language = strings.TrimSpace(*ro.Lang)
	}
	if ro.Inference != nil {
		opts.Layout = *ro.Inference
	}
	if ro.Model != nil {
		m, err := layout.ParseModel(*ro.Model)
		if err != nil {
			return pipeline.Options{}, &RequestError{Field: "model", Err: err}
		}
		opts.Model = m
	}
	if ro.ConfidenceThreshold != nil {
		opts.Threshold = *ro.ConfidenceThreshold
	}
	if ro.Pages != nil {
		opts.Pages = *ro.Pages
	}
	if ro.Password != nil {
		opts.Password = *ro.Password
	}
	return opts, nil
}

func formOptions(r *http.Request) (requestOptions, error) {
	var ro requestOptions
	if v, ok := formValue(r, "lang"); ok {
		ro.Lang = &v
	}
	if v, ok := formValue(r, "inference"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ro, &RequestError{Field: "inference", Err: err}
		}
		ro.Inference = &b
	}
	if v, ok := formValue(r, "model"); ok {
		ro.Model = &v
	}
	if v, ok := formValue(r, "confidence_threshold"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return ro, &RequestError{Field: "confidence_threshold", Err: err}
		}
		ro.ConfidenceThreshold = &f
	}
	if v, ok := formValue(r, "pages"); ok {
		ro.Pages = &v
	}
	if v, ok := formValue(r, "password"); ok {
		ro.Password = &v
	}
	return ro, nil
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, OCRResponse{Success: false, Error: message})
}
