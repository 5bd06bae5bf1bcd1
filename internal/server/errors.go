package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/layocr/internal/pdf"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// EmptyUploadError is returned when the request carries no file or an
// empty one.
type EmptyUploadError struct {
	Field string
}

func (e *EmptyUploadError) Error() string {
	return fmt.Sprintf("no file uploaded in field %q", e.Field)
}

// RequestError rejects a malformed request option.
type RequestError struct {
	Field string
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request field %q: %v", e.Field, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// statusFor maps a job error to an HTTP status code.
func statusFor(err error) int {
	var (
		emptyErr *EmptyUploadError
		reqErr   *RequestError
		typeErr  *pipeline.UnsupportedFileTypeError
		langErr  *recognition.UnsupportedLanguageError
		pathErr  *pipeline.InvalidOutputPathError
		optsErr  *pipeline.InvalidOptionsError
		imgErr   *utils.ImageProcessingError
	)
	switch {
	case errors.As(err, &emptyErr), errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.As(err, &typeErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &langErr), errors.As(err, &optsErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &pathErr):
		return http.StatusBadRequest
	case errors.As(err, &imgErr), errors.Is(err, pdf.ErrNoPages), pdf.IsPasswordError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
