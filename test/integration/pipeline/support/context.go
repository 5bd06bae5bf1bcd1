// Package support holds the step definitions of the pipeline feature suite.
package support

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	Engine   *testutil.FakeEngine
	Detector *testutil.FakeDetector

	TempDir   string
	OutputDir string

	LastResult *pipeline.FileResult
	LastError  error
}

// NewTestContext creates an empty scenario context.
func NewTestContext() *TestContext {
	return &TestContext{Engine: testutil.NewFakeEngine()}
}

// Cleanup removes the scenario's temporary files.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.TempDir == "" {
		return nil
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", testCtx.TempDir, err)
	}
	return nil
}

func (testCtx *TestContext) orchestrator() (*pipeline.Orchestrator, error) {
	adapter, err := recognition.NewAdapter(testCtx.Engine, recognition.EngineConfig{})
	if err != nil {
		return nil, err
	}
	b := pipeline.NewBuilder().WithAdapter(adapter)
	if testCtx.Detector != nil {
		var det layout.Detector = testCtx.Detector
		b = b.WithDetector(det)
	}
	return b.Build()
}
