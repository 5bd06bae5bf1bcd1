package testutil

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// FakeEngine is a scripted recognition.Engine. Outputs are returned in call
// order and cycle when exhausted; Failures fails specific 1-based calls.
type FakeEngine struct {
	Langs    []string
	Outputs  []*recognition.EngineOutput
	Failures map[int]error

	mu    sync.Mutex
	calls int
	sizes []image.Point
}

// NewFakeEngine creates an engine reporting langs as installed.
func NewFakeEngine(langs ...string) *FakeEngine {
	return &FakeEngine{Langs: langs, Failures: map[int]error{}}
}

// Languages implements recognition.Engine.
func (f *FakeEngine) Languages() ([]string, error) {
	return f.Langs, nil
}

// Recognize implements recognition.Engine.
func (f *FakeEngine) Recognize(_ context.Context, img image.Image, _ string) (*recognition.EngineOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.sizes = append(f.sizes, img.Bounds().Size())
	if err, ok := f.Failures[f.calls]; ok {
		return nil, err
	}
	if len(f.Outputs) == 0 {
		return &recognition.EngineOutput{}, nil
	}
	return f.Outputs[(f.calls-1)%len(f.Outputs)], nil
}

// Calls returns how many times Recognize ran.
func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Sizes returns the dimensions of every image passed to Recognize.
func (f *FakeEngine) Sizes() []image.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]image.Point(nil), f.sizes...)
}

// Line returns an engine output of one block, paragraph and line holding
// the given words laid out left to right, 40x20 pixels each.
func Line(conf float64, words ...string) *recognition.EngineOutput {
	out := &recognition.EngineOutput{Text: strings.Join(words, " ")}
	for i, w := range words {
		out.Words = append(out.Words, recognition.Word{
			BlockNum:   1,
			ParNum:     1,
			LineNum:    1,
			WordNum:    i + 1,
			Box:        utils.BoundingBox{Left: 10 + i*50, Top: 10, Width: 40, Height: 20},
			Confidence: conf,
			Text:       w,
		})
	}
	return out
}

// FakeDetector returns a fixed set of regions on every call.
type FakeDetector struct {
	Regions []layout.Region
	Err     error

	mu    sync.Mutex
	calls int
}

// Detect implements layout.Detector.
func (f *FakeDetector) Detect(_ context.Context, _ image.Image, model layout.Model, _ float64) (*layout.RegionMap, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, &layout.DetectionError{Model: model, Err: f.Err}
	}
	m := layout.NewRegionMap()
	for _, r := range f.Regions {
		m.Set(r)
	}
	return m, nil
}

// Calls returns how many times Detect ran.
func (f *FakeDetector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
