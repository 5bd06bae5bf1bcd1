package recognition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEngineNotEnabled is returned when the Tesseract engine was not compiled
// in. Rebuild with -tags tesseract to enable it.
var ErrEngineNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

// UnsupportedLanguageError reports a language that is not installed. It is
// fatal for a whole run.
type UnsupportedLanguageError struct {
	Language  string
	Available []string
}

func (e *UnsupportedLanguageError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported language %q: no languages installed", e.Language)
	}
	return fmt.Sprintf("unsupported language %q (installed: %s)", e.Language, strings.Join(e.Available, ", "))
}

// EngineError wraps a failure of the recognition engine. It is not retried.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recognition engine error in %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
