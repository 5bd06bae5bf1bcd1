package hocr

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/MeKo-Tech/layocr/internal/version"
)

// pageNum is fixed: every document holds exactly one page.
const pageNum = 1

// idCounter hands out page-scoped, 1-based ids per element kind.
type idCounter map[string]int

func (c idCounter) next(kind string) string {
	c[kind]++
	return fmt.Sprintf("%s_%d_%d", kind, pageNum, c[kind])
}

func newPage(ref, lang string, box utils.BoundingBox) *Page {
	return &Page{
		ID:     fmt.Sprintf("page_%d", pageNum),
		Image:  ref,
		Lang:   lang,
		System: "layocr " + version.Version,
		BBox:   box,
	}
}

// FromTokens builds the page tree of a full-page recognition pass. Words
// are grouped by their (block, paragraph, line) ids in table order. Any
// block, paragraph or line without non-whitespace text is left out. Block
// and line confidences are the mean of their word confidences.
func FromTokens(ref, lang string, tokens recognition.TokenTable) *Page {
	structural := make(map[[5]int]utils.BoundingBox)
	var pageBox utils.BoundingBox
	for _, r := range tokens {
		switch r.Level {
		case recognition.LevelPage:
			pageBox = r.Box
		case recognition.LevelBlock, recognition.LevelParagraph, recognition.LevelLine:
			structural[r.Path(r.Level)] = r.Box
		}
	}

	type lineAcc struct {
		path  [5]int
		words []recognition.TokenRow
	}
	type parAcc struct {
		path  [5]int
		lines []*lineAcc
	}
	type blockAcc struct {
		path [5]int
		pars []*parAcc
	}

	var blocks []*blockAcc
	blockIdx := map[[5]int]*blockAcc{}
	parIdx := map[[5]int]*parAcc{}
	lineIdx := map[[5]int]*lineAcc{}

	for _, w := range tokens {
		if w.Level != recognition.LevelWord || strings.TrimSpace(w.Text) == "" {
			continue
		}
		bp, pp, lp := w.Path(recognition.LevelBlock), w.Path(recognition.LevelParagraph), w.Path(recognition.LevelLine)

		b, ok := blockIdx[bp]
		if !ok {
			b = &blockAcc{path: bp}
			blockIdx[bp] = b
			blocks = append(blocks, b)
		}
		p, ok := parIdx[pp]
		if !ok {
			p = &parAcc{path: pp}
			parIdx[pp] = p
			b.pars = append(b.pars, p)
		}
		l, ok := lineIdx[lp]
		if !ok {
			l = &lineAcc{path: lp}
			lineIdx[lp] = l
			p.lines = append(p.lines, l)
		}
		l.words = append(l.words, w)
	}

	boxOf := func(path [5]int, words []recognition.TokenRow) utils.BoundingBox {
		if b, ok := structural[path]; ok {
			return b
		}
		boxes := make([]utils.BoundingBox, len(words))
		for i, w := range words {
			boxes[i] = w.Box
		}
		return utils.UnionAll(boxes)
	}

	ids := idCounter{}
	page := newPage(ref, lang, pageBox)
	for _, b := range blocks {
		block := Block{ID: ids.next("block")}
		var blockWords []recognition.TokenRow
		for _, p := range b.pars {
			par := Paragraph{ID: ids.next("par"), Lang: lang}
			var parWords []recognition.TokenRow
			for _, l := range p.lines {
				line := Line{
					ID:         ids.next("line"),
					BBox:       boxOf(l.path, l.words),
					Confidence: meanConfidence(l.words),
				}
				for _, w := range l.words {
					line.Words = append(line.Words, Word{
						ID:         ids.next("word"),
						BBox:       w.Box,
						Confidence: w.Confidence,
						Text:       w.Text,
					})
				}
				parWords = append(parWords, l.words...)
				par.Lines = append(par.Lines, line)
			}
			par.BBox = boxOf(p.path, parWords)
			blockWords = append(blockWords, parWords...)
			block.Paragraphs = append(block.Paragraphs, par)
		}
		block.BBox = boxOf(b.path, blockWords)
		block.Confidence = meanConfidence(blockWords)
		page.Blocks = append(page.Blocks, block)
	}
	if page.BBox == (utils.BoundingBox{}) {
		page.BBox = unionBlocks(page.Blocks)
	}
	return page
}

// FromRegions builds the page tree of a layout pass: one block per region
// in the given order, each with a single paragraph and line. Words are the
// whitespace-separated tokens of the region text and carry no position.
// The block and line confidence is confidences[label], falling back to the
// region's detector confidence. Regions without text are left out.
func FromRegions(ref, lang string, width, height int, ordered []layout.Region, confidences map[string]float64) *Page {
	ids := idCounter{}
	page := newPage(ref, lang, utils.BoundingBox{Width: width, Height: height})

	for _, r := range ordered {
		tokens := strings.Fields(r.Text)
		if len(tokens) == 0 {
			continue
		}
		conf, ok := confidences[r.Label]
		if !ok {
			conf = r.Confidence
		}

		line := Line{ID: ids.next("line"), BBox: r.Box, Confidence: conf}
		for _, tok := range tokens {
			line.Words = append(line.Words, Word{
				ID:         ids.next("word"),
				Confidence: confidence.Absent,
				Text:       tok,
			})
		}
		block := Block{ID: ids.next("block"), BBox: r.Box, Confidence: conf}
		block.Paragraphs = []Paragraph{{
			ID:    ids.next("par"),
			Lang:  lang,
			BBox:  r.Box,
			Lines: []Line{line},
		}}
		page.Blocks = append(page.Blocks, block)
	}
	if page.BBox.Empty() {
		page.BBox = unionBlocks(page.Blocks)
	}
	return page
}

func meanConfidence(rows []recognition.TokenRow) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Confidence
	}
	return confidence.Aggregate(values)
}

func unionBlocks(blocks []Block) utils.BoundingBox {
	boxes := make([]utils.BoundingBox, len(blocks))
	for i, b := range blocks {
		boxes[i] = b.BBox
	}
	return utils.UnionAll(boxes)
}
