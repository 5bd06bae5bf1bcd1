package hocr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHeaderAndTitles(t *testing.T) {
	out, err := Render(FromTokens("page.png", "eng", sampleTable()))
	require.NoError(t, err)
	doc := string(out)

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<meta name='ocr-capabilities' content='ocr_page ocr_carea ocr_par ocr_line ocrx_word ocrp_wconf'/>`)
	assert.Contains(t, doc, `<div class='ocr_page' id='page_1' title='image &#34;page.png&#34;; bbox 0 0 400 300; ppageno 0'>`)
	assert.Contains(t, doc, `<div class='ocr_carea' id='block_1_1' title='bbox 10 10 120 60; x_conf 50'>`)
	assert.Contains(t, doc, `<span class='ocr_line' id='line_1_1' title='bbox 10 10 120 30; x_conf 62'>`)
	assert.Contains(t, doc, `<span class='ocrx_word' id='word_1_1' title='bbox 10 10 60 30; x_wconf 75'>Hello</span>`)
	assert.Contains(t, doc, `<p class='ocr_par' id='par_1_1' lang='eng' title='bbox 10 10 120 60'>`)
	assert.True(t, strings.HasSuffix(doc, "</html>\n"))
}

func TestRenderDeterministic(t *testing.T) {
	a, err := Render(FromTokens("page.png", "eng", sampleTable()))
	require.NoError(t, err)
	b, err := Render(FromTokens("page.png", "eng", sampleTable()))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestRenderEscapesText(t *testing.T) {
	page := FromRegions("a<b>.png", "eng", 10, 10, []layout.Region{
		{Label: "r", Box: bb(0, 0, 5, 5), Confidence: 0.5, Text: "<script> & \"x\"", Recognized: true},
	}, nil)

	out, err := Render(page)
	require.NoError(t, err)
	doc := string(out)
	assert.Contains(t, doc, "&lt;script&gt;")
	assert.Contains(t, doc, "&amp;")
	assert.NotContains(t, doc, "<script>")
	// region words carry no position
	assert.Contains(t, doc, `<span class='ocrx_word' id='word_1_1'>&lt;script&gt;</span>`)
}

func TestRenderNil(t *testing.T) {
	_, err := Render(nil)
	assert.Error(t, err)
}

func TestRenderParseRoundTrip(t *testing.T) {
	page := FromTokens("page.png", "eng", sampleTable())
	out, err := Render(page)
	require.NoError(t, err)

	back, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, page.ID, back.ID)
	assert.Equal(t, "page.png", back.Image)
	assert.Equal(t, "eng", back.Lang)
	assert.Equal(t, page.BBox, back.BBox)
	assert.Equal(t, page.System, back.System)
	require.Len(t, back.Blocks, len(page.Blocks))
	for i := range page.Blocks {
		assert.Equal(t, page.Blocks[i].ID, back.Blocks[i].ID)
		assert.Equal(t, page.Blocks[i].BBox, back.Blocks[i].BBox)
		assert.InDelta(t, page.Blocks[i].Confidence, back.Blocks[i].Confidence, 0.01)
	}

	gotWords, wantWords := back.Words(), page.Words()
	require.Len(t, gotWords, len(wantWords))
	for i := range wantWords {
		assert.Equal(t, wantWords[i].ID, gotWords[i].ID)
		assert.Equal(t, wantWords[i].Text, gotWords[i].Text)
		assert.Equal(t, wantWords[i].BBox, gotWords[i].BBox)
	}
	assert.Equal(t, page.Text(), back.Text())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("<html><body><p>nothing</p></body></html>"))
	assert.Error(t, err)
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle("bbox 100 200 300 400; x_wconf 95;")
	assert.Equal(t, []string{"100", "200", "300", "400"}, props["bbox"])
	assert.Equal(t, []string{"95"}, props["x_wconf"])
	assert.Len(t, props, 2)
}
