package task

import (
	"strings"
	"testing"

	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bb(l, t, w, h int) utils.BoundingBox {
	return utils.BoundingBox{Left: l, Top: t, Width: w, Height: h}
}

func w(block, par, line, n int, box utils.BoundingBox, conf float64, text string) recognition.Word {
	return recognition.Word{BlockNum: block, ParNum: par, LineNum: line, WordNum: n, Box: box, Confidence: conf, Text: text}
}

func TestSynthesizePercentBox(t *testing.T) {
	table := recognition.BuildTable(200, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(100, 50, 20, 25), 50, "left"),
		w(1, 1, 1, 2, bb(130, 50, 20, 25), 100, "right"),
	})

	doc := Synthesize(200, 100, "http://localhost:8081/p.png", table, recognition.LevelBlock)

	assert.Equal(t, "http://localhost:8081/p.png", doc.Data.OCR)
	require.Len(t, doc.Predictions, 1)
	res := doc.Predictions[0].Result
	require.Len(t, res, 2)

	rect, text := res[0], res[1]
	assert.Equal(t, Value{X: 50, Y: 50, Width: 25, Height: 25}, rect.Value)
	assert.Equal(t, FromBBox, rect.FromName)
	assert.Equal(t, TypeRectangle, rect.Type)
	assert.Nil(t, rect.Score)

	assert.Equal(t, FromTranscription, text.FromName)
	assert.Equal(t, TypeTextarea, text.Type)
	assert.Equal(t, ToImage, text.ToName)
	assert.Equal(t, []string{"left right"}, text.Value.Text)
	require.NotNil(t, text.Score)
	assert.InDelta(t, 0.75, *text.Score, 1e-9)

	assert.Equal(t, rect.ID, text.ID)
	assert.Len(t, rect.ID, 10)
	assert.InDelta(t, 0.75, doc.Predictions[0].Score, 1e-9)
}

func TestSynthesizeSkipsEmptyGroupings(t *testing.T) {
	table := recognition.BuildTable(100, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(0, 0, 10, 10), 80, "kept"),
		w(2, 1, 1, 1, bb(0, 50, 10, 10), -1, "  "),
		w(3, 1, 1, 1, bb(0, 80, 10, 10), 40, "also"),
	})

	doc := Synthesize(100, 100, "ref", table, recognition.LevelBlock)
	groups := doc.Groupings()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"kept"}, groups[0].Value.Text)
	assert.Equal(t, []string{"also"}, groups[1].Value.Text)
	assert.NotEqual(t, groups[0].ID, groups[1].ID)
	assert.InDelta(t, 0.6, doc.Predictions[0].Score, 1e-9)
}

func TestSynthesizeLevels(t *testing.T) {
	table := recognition.BuildTable(100, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(0, 0, 10, 10), 90, "a"),
		w(1, 1, 2, 1, bb(0, 20, 10, 10), 70, "b"),
		w(1, 2, 1, 1, bb(0, 40, 10, 10), 50, "c"),
	})

	tests := []struct {
		level recognition.Level
		texts []string
	}{
		{recognition.LevelPage, []string{"a b c"}},
		{recognition.LevelBlock, []string{"a b c"}},
		{recognition.LevelParagraph, []string{"a b", "c"}},
		{recognition.LevelLine, []string{"a", "b", "c"}},
		{recognition.LevelWord, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			doc := Synthesize(100, 100, "ref", table, tt.level)
			var texts []string
			for _, g := range doc.Groupings() {
				texts = append(texts, g.Value.Text[0])
			}
			assert.Equal(t, tt.texts, texts)
		})
	}
}

// Line ids restart in every paragraph, so rows must be matched on their
// full ancestor path and not on the line id alone.
func TestSynthesizeMatchesFullPath(t *testing.T) {
	table := recognition.BuildTable(100, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(0, 0, 10, 10), 100, "first"),
		w(2, 1, 1, 1, bb(0, 50, 10, 10), 0, "second"),
	})

	doc := Synthesize(100, 100, "ref", table, recognition.LevelLine)
	groups := doc.Groupings()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"first"}, groups[0].Value.Text)
	assert.InDelta(t, 1.0, *groups[0].Score, 1e-9)
	assert.InDelta(t, 0.0, *groups[1].Score, 1e-9)
}

func TestSynthesizeNoText(t *testing.T) {
	doc := Synthesize(100, 100, "ref", recognition.BuildTable(100, 100, nil), recognition.LevelBlock)
	require.Len(t, doc.Predictions, 1)
	assert.Empty(t, doc.Predictions[0].Result)
	assert.Zero(t, doc.Predictions[0].Score)

	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result": []`)
}

func TestSynthesizeClampsPercentages(t *testing.T) {
	table := recognition.TokenTable{
		{Level: recognition.LevelBlock, PageNum: 1, BlockNum: 1, Box: bb(-10, 90, 300, 50), Confidence: -1},
		{Level: recognition.LevelWord, PageNum: 1, BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: 1, Box: bb(0, 90, 10, 10), Confidence: 0.5, Text: "x"},
	}
	doc := Synthesize(100, 100, "ref", table, recognition.LevelBlock)
	v := doc.Groupings()[0].Value
	assert.Equal(t, 0.0, v.X)
	assert.Equal(t, 90.0, v.Y)
	assert.Equal(t, 100.0, v.Width)
	assert.Equal(t, 50.0, v.Height)

	empty := Synthesize(0, 0, "ref", table, recognition.LevelBlock)
	assert.Equal(t, 0.0, empty.Groupings()[0].Value.Width)
}

func TestMarshalRoundTrip(t *testing.T) {
	table := recognition.BuildTable(200, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(10, 10, 20, 20), 80, "संस्कृतम्"),
		w(2, 1, 1, 1, bb(10, 50, 20, 20), 60, "a<b>&c"),
	})
	doc := Synthesize(200, 100, "ref", table, recognition.LevelBlock)

	data, err := Marshal(doc)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "संस्कृतम्")
	assert.Contains(t, s, "a<b>&c")
	assert.Contains(t, s, "\n  \"predictions\": [")
	assert.True(t, strings.HasPrefix(s, "{\n  \"data\": {\n    \"ocr\": \"ref\"\n  },"))

	back, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, back.Groupings(), len(doc.Groupings()))
	for i, g := range doc.Groupings() {
		assert.Equal(t, g.Value.Text, back.Groupings()[i].Value.Text)
		assert.Equal(t, *g.Score, *back.Groupings()[i].Score)
	}
	assert.Equal(t, doc.Predictions[0].Score, back.Predictions[0].Score)

	_, err = Unmarshal([]byte("{"))
	assert.Error(t, err)
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8081/page.png", ImageURL("", "page.png"))
	assert.Equal(t, "https://cdn/x/page.png", ImageURL("https://cdn/x/", "/page.png"))
}

func TestMarshalFile(t *testing.T) {
	table := recognition.BuildTable(100, 100, []recognition.Word{
		w(1, 1, 1, 1, bb(0, 0, 10, 10), 90, "one"),
	})
	doc := Synthesize(100, 100, "ref", table, recognition.LevelBlock)

	data, err := MarshalFile(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n"))

	docs, err := UnmarshalFile(data)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ref", docs[0].Data.OCR)

	empty, err := MarshalFile()
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))

	_, err = UnmarshalFile([]byte("{}"))
	assert.Error(t, err)
}
