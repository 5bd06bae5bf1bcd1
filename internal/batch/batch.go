// Package batch runs the page pipeline over a list of input files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/layocr/internal/pipeline"
)

// ErrNoInputs is returned when discovery finds nothing to process.
var ErrNoInputs = errors.New("no input files found")

// Processor is the part of the orchestrator a batch needs.
type Processor interface {
	Validate(opts pipeline.Options) error
	ProcessValidatedFile(ctx context.Context, path string, opts pipeline.Options) (*pipeline.FileResult, error)
}

// FileOutcome is the result of one input file. Err is set when the file
// could not be expanded into pages at all.
type FileOutcome struct {
	Path   string               `json:"path"`
	Result *pipeline.FileResult `json:"result,omitempty"`
	Err    error                `json:"-"`
	Error  string               `json:"error,omitempty"`
}

// Result holds the outcome of a batch run.
type Result struct {
	Files    []FileOutcome `json:"files"`
	Duration time.Duration `json:"duration_ns"`
}

// Run validates opts once and then processes files one by one. Fatal
// validation errors abort before anything is written; any other failure is
// logged, recorded and the run moves on to the next file.
func Run(ctx context.Context, proc Processor, files []string, opts pipeline.Options, reporter Reporter) (*Result, error) {
	if err := proc.Validate(opts); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	start := time.Now()
	result := &Result{Files: make([]FileOutcome, 0, len(files))}
	reporter.Start(len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("batch interrupted: %w", err)
		}

		outcome := FileOutcome{Path: path}
		res, err := proc.ProcessValidatedFile(ctx, path, opts)
		outcome.Result = res
		if err != nil {
			if pipeline.IsFatal(err) {
				result.Duration = time.Since(start)
				return result, err
			}
			outcome.Err = err
			outcome.Error = err.Error()
			slog.Error("Skipping file", "path", path, "error", err)
		}
		result.Files = append(result.Files, outcome)
		reporter.File(i+1, len(files), outcome)
	}

	result.Duration = time.Since(start)
	reporter.Done(result.Summary())
	return result, nil
}

// Summary counts files and pages.
type Summary struct {
	Files       int           `json:"files"`
	FailedFiles int           `json:"failed_files"`
	Pages       int           `json:"pages"`
	FailedPages int           `json:"failed_pages"`
	Duration    time.Duration `json:"duration_ns"`
}

// Summary returns the counts of the run. A file counts as failed when it
// could not be opened or any of its pages failed.
func (r *Result) Summary() Summary {
	s := Summary{Files: len(r.Files), Duration: r.Duration}
	for _, f := range r.Files {
		failed := f.Err != nil
		if f.Result != nil {
			s.Pages += len(f.Result.Pages)
			n := f.Result.Failed()
			s.FailedPages += n
			failed = failed || n > 0
		}
		if failed {
			s.FailedFiles++
		}
	}
	return s
}

// Err joins every file and page error of the run.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
		}
		if f.Result != nil {
			if err := f.Result.Err(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
			}
		}
	}
	return errors.Join(errs...)
}
