package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// InvalidOutputPathError rejects an output directory the run cannot use.
type InvalidOutputPathError struct {
	Path   string
	Reason string
}

func (e *InvalidOutputPathError) Error() string {
	return fmt.Sprintf("invalid output path %q: %s", e.Path, e.Reason)
}

// InvalidOptionsError rejects an inconsistent run configuration, such as a
// layout run without a detector.
type InvalidOptionsError struct {
	Field  string
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnsupportedFileTypeError is returned for inputs that are neither a
// supported image nor a PDF.
type UnsupportedFileTypeError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s (supported: %s, .pdf)",
		e.Ext, e.Path, strings.Join(utils.SupportedImageExtensions, ", "))
}

// IsFatal reports whether err must abort a whole run rather than a single
// file or page.
func IsFatal(err error) bool {
	var langErr *recognition.UnsupportedLanguageError
	var pathErr *InvalidOutputPathError
	var optsErr *InvalidOptionsError
	return errors.As(err, &langErr) || errors.As(err, &pathErr) || errors.As(err, &optsErr)
}
