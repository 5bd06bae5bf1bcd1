package recognition

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	out     *EngineOutput
	err     error
	langs   []string
	langErr error
	calls   int
}

func (f *fakeEngine) Recognize(_ context.Context, _ image.Image, _ string) (*EngineOutput, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeEngine) Languages() ([]string, error) {
	return f.langs, f.langErr
}

func box(l, t, w, h int) utils.BoundingBox {
	return utils.BoundingBox{Left: l, Top: t, Width: w, Height: h}
}

func TestNewAdapterLanguages(t *testing.T) {
	eng := &fakeEngine{langs: []string{"san", "eng", "eng"}}

	a, err := NewAdapter(eng, EngineConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "san"}, a.Languages())

	a, err = NewAdapter(eng, EngineConfig{Languages: []string{"hin"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"hin"}, a.Languages())

	_, err = NewAdapter(&fakeEngine{langErr: errors.New("boom")}, EngineConfig{})
	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)

	_, err = NewAdapter(nil, EngineConfig{})
	require.Error(t, err)
}

func TestValidateLanguage(t *testing.T) {
	a, err := NewAdapter(&fakeEngine{}, EngineConfig{Languages: []string{"eng", "san"}})
	require.NoError(t, err)

	tests := []struct {
		lang    string
		wantErr bool
	}{
		{"eng", false},
		{"san+eng", false},
		{"xx", true},
		{"eng+xx", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			err := a.ValidateLanguage(tt.lang)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ule *UnsupportedLanguageError
			require.ErrorAs(t, err, &ule)
			assert.Equal(t, tt.lang, ule.Language)
			assert.Equal(t, []string{"eng", "san"}, ule.Available)
		})
	}
}

func TestRecognizeUnsupportedLanguageSkipsEngine(t *testing.T) {
	eng := &fakeEngine{out: &EngineOutput{Text: "x"}}
	a, err := NewAdapter(eng, EngineConfig{Languages: []string{"eng"}})
	require.NoError(t, err)

	_, err = a.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), "xx")
	var ule *UnsupportedLanguageError
	require.ErrorAs(t, err, &ule)
	assert.Equal(t, 0, eng.calls)
}

func TestRecognizeEngineError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("tesseract crashed")}
	a, err := NewAdapter(eng, EngineConfig{Languages: []string{"eng"}})
	require.NoError(t, err)

	_, err = a.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), "eng")
	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Contains(t, err.Error(), "tesseract crashed")
	assert.Equal(t, 1, eng.calls)
}

func TestRecognizeCancelledContext(t *testing.T) {
	eng := &fakeEngine{out: &EngineOutput{}}
	a, err := NewAdapter(eng, EngineConfig{Languages: []string{"eng"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Recognize(ctx, image.NewGray(image.Rect(0, 0, 4, 4)), "eng")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, eng.calls)
}

func TestRecognizeBuildsTable(t *testing.T) {
	eng := &fakeEngine{out: &EngineOutput{
		Text: "Hello world\n",
		Words: []Word{
			{BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: 1, Box: box(10, 10, 40, 10), Confidence: 96, Text: "Hello"},
			{BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: 2, Box: box(60, 12, 40, 10), Confidence: 90, Text: "world"},
		},
	}}
	a, err := NewAdapter(eng, EngineConfig{Languages: []string{"eng"}})
	require.NoError(t, err)

	res, err := a.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 200, 100)), "eng")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", res.Text)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 100, res.Height)
	require.Len(t, res.Tokens, 6)
	assert.Len(t, res.Tokens.Words(), 2)
	assert.InDelta(t, 0.96, res.Tokens.Words()[0].Confidence, 1e-9)
	assert.Equal(t, confidence.Absent, res.Tokens[1].Confidence)
}
