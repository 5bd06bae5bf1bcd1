package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/testutil"
)

func newOrchestrator(t *testing.T, eng *testutil.FakeEngine) *pipeline.Orchestrator {
	t.Helper()
	adapter, err := recognition.NewAdapter(eng, recognition.EngineConfig{})
	require.NoError(t, err)
	orch, err := pipeline.NewBuilder().WithAdapter(adapter).Build()
	require.NoError(t, err)
	return orch
}

func inputs(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	testutil.WritePNG(t, a, testutil.CreateTestImage(40, 40, color.White))
	bad := touch(t, filepath.Join(dir, "b.gif"))
	c := filepath.Join(dir, "c.png")
	testutil.WritePNG(t, c, testutil.CreateTestImage(40, 40, color.White))
	return dir, []string{a, bad, c}
}

func TestRunContinuesAfterFileErrors(t *testing.T) {
	eng := testutil.NewFakeEngine("eng")
	eng.Outputs = append(eng.Outputs, testutil.Line(90, "text"))
	orch := newOrchestrator(t, eng)
	_, files := inputs(t)
	out := filepath.Join(t.TempDir(), "out")

	var progress bytes.Buffer
	res, err := Run(context.Background(), orch, files, pipeline.Options{Language: "eng", OutputDir: out},
		NewConsoleReporter(&progress, "ocr: "))
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	var typeErr *pipeline.UnsupportedFileTypeError
	assert.ErrorAs(t, res.Files[1].Err, &typeErr)
	assert.ErrorAs(t, res.Err(), &typeErr)

	s := res.Summary()
	assert.Equal(t, 3, s.Files)
	assert.Equal(t, 1, s.FailedFiles)
	assert.Equal(t, 2, s.Pages)
	assert.Zero(t, s.FailedPages)

	assert.DirExists(t, filepath.Join(out, "a"))
	assert.DirExists(t, filepath.Join(out, "c"))
	assert.Contains(t, progress.String(), "ocr: 3/3 (100.0%)")
	assert.Contains(t, progress.String(), "Completed 3 files")
}

func TestRunFatalValidationWritesNothing(t *testing.T) {
	eng := testutil.NewFakeEngine("eng")
	orch := newOrchestrator(t, eng)
	_, files := inputs(t)
	out := filepath.Join(t.TempDir(), "out")

	_, err := Run(context.Background(), orch, files, pipeline.Options{Language: "xx", OutputDir: out}, nil)
	var langErr *recognition.UnsupportedLanguageError
	require.ErrorAs(t, err, &langErr)
	assert.NoDirExists(t, out)
	assert.Zero(t, eng.Calls())

	_, err = Run(context.Background(), orch, files, pipeline.Options{Language: "eng", OutputDir: "has space"}, nil)
	var pathErr *pipeline.InvalidOutputPathError
	require.ErrorAs(t, err, &pathErr)
}

func TestRunNoInputs(t *testing.T) {
	orch := newOrchestrator(t, testutil.NewFakeEngine("eng"))
	_, err := Run(context.Background(), orch, nil, pipeline.Options{Language: "eng", OutputDir: t.TempDir()}, nil)
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestRunPageFailuresCounted(t *testing.T) {
	eng := testutil.NewFakeEngine("eng")
	eng.Outputs = append(eng.Outputs, testutil.Line(90, "text"))
	eng.Failures[1] = errors.New("engine crashed")
	orch := newOrchestrator(t, eng)
	_, files := inputs(t)

	res, err := Run(context.Background(), orch, files, pipeline.Options{Language: "eng", OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)
	s := res.Summary()
	assert.Equal(t, 1, s.FailedPages)
	assert.Equal(t, 2, s.FailedFiles)
	assert.Equal(t, 2, eng.Calls())
}

func TestRunInterrupted(t *testing.T) {
	orch := newOrchestrator(t, testutil.NewFakeEngine("eng"))
	_, files := inputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, orch, files, pipeline.Options{Language: "eng", OutputDir: t.TempDir()}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Files)
}

func TestResultFormats(t *testing.T) {
	eng := testutil.NewFakeEngine("eng")
	eng.Outputs = append(eng.Outputs, testutil.Line(50, "text"))
	orch := newOrchestrator(t, eng)
	_, files := inputs(t)

	res, err := Run(context.Background(), orch, files, pipeline.Options{Language: "eng", OutputDir: t.TempDir()},
		NewLogReporter(nil, 0))
	require.NoError(t, err)

	text, err := res.Format("text")
	require.NoError(t, err)
	assert.Contains(t, text, "a: 1 words, score 0.500")
	assert.Contains(t, text, "error: unsupported file type")
	assert.Contains(t, text, "3 files, 2 pages, 0 failed pages")

	csvOut, err := res.Format("csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "file,page,mode,dir,words,regions,score,error", lines[0])

	jsonOut, err := res.Format("json")
	require.NoError(t, err)
	var decoded struct {
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &decoded))
	assert.Equal(t, 2, decoded.Summary.Pages)

	_, err = res.Format("xml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, res.Save("csv", path))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, csvOut, string(saved))
}
