package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Reporter receives progress updates from Run.
type Reporter interface {
	Start(total int)
	File(current, total int, outcome FileOutcome)
	Done(summary Summary)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Start(int)                  {}
func (NopReporter) File(int, int, FileOutcome) {}
func (NopReporter) Done(Summary)               {}

// ConsoleReporter prints one line per file.
type ConsoleReporter struct {
	writer io.Writer
	prefix string
	mutex  sync.Mutex
	start  time.Time
}

// NewConsoleReporter creates a console reporter writing to w, or stderr
// when w is nil.
func NewConsoleReporter(w io.Writer, prefix string) *ConsoleReporter {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleReporter{writer: w, prefix: prefix}
}

func (c *ConsoleReporter) Start(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.start = time.Now()
	_, _ = fmt.Fprintf(c.writer, "%s0/%d (0.0%%)\n", c.prefix, total)
}

func (c *ConsoleReporter) File(current, total int, outcome FileOutcome) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	percent := float64(current) / float64(total) * 100.0
	status := "ok"
	switch {
	case outcome.Err != nil:
		status = "error: " + outcome.Err.Error()
	case outcome.Result != nil && outcome.Result.Failed() > 0:
		status = fmt.Sprintf("%d of %d pages failed", outcome.Result.Failed(), len(outcome.Result.Pages))
	}
	_, _ = fmt.Fprintf(c.writer, "%s%d/%d (%.1f%%) %s: %s\n", c.prefix, current, total, percent, outcome.Path, status)
}

func (c *ConsoleReporter) Done(s Summary) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "%sCompleted %d files (%d pages, %d failed) in %v\n",
		c.prefix, s.Files, s.Pages, s.FailedPages, time.Since(c.start).Round(time.Millisecond))
}

// LogReporter logs progress with slog.
type LogReporter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogReporter creates a log reporter; a nil logger uses slog.Default.
func NewLogReporter(logger *slog.Logger, level slog.Level) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger, level: level}
}

func (l *LogReporter) Start(total int) {
	l.logger.Log(context.Background(), l.level, "Starting batch", "total", total)
}

func (l *LogReporter) File(current, total int, outcome FileOutcome) {
	attrs := []any{"current", current, "total", total, "path", outcome.Path}
	if outcome.Result != nil {
		attrs = append(attrs, "pages", len(outcome.Result.Pages), "failed_pages", outcome.Result.Failed())
	}
	if outcome.Err != nil {
		attrs = append(attrs, "error", outcome.Err)
	}
	l.logger.Log(context.Background(), l.level, "Processed file", attrs...)
}

func (l *LogReporter) Done(s Summary) {
	l.logger.Log(context.Background(), l.level, "Batch completed",
		"files", s.Files,
		"failed_files", s.FailedFiles,
		"pages", s.Pages,
		"failed_pages", s.FailedPages,
		"duration", s.Duration.Round(time.Millisecond))
}
