package recognition

import (
	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// BuildTable lays engine words out as a Tesseract-style token table: a page
// row, then a block, paragraph and line row each time the respective id
// changes, followed by the word rows. Structural boxes are the union of the
// words they contain; the page box covers the whole image. Word confidences
// are rescaled from 0..100 to 0..1.
func BuildTable(width, height int, words []Word) TokenTable {
	table := make(TokenTable, 0, len(words)+4)
	table = append(table, TokenRow{
		Level:      LevelPage,
		PageNum:    1,
		Box:        utils.BoundingBox{Width: width, Height: height},
		Confidence: confidence.Absent,
	})

	blockIdx, parIdx, lineIdx := -1, -1, -1
	for i, w := range words {
		var prev *Word
		if i > 0 {
			prev = &words[i-1]
		}
		newBlock := prev == nil || prev.BlockNum != w.BlockNum
		newPar := newBlock || prev.ParNum != w.ParNum
		newLine := newPar || prev.LineNum != w.LineNum

		if newBlock {
			blockIdx = len(table)
			table = append(table, structuralRow(LevelBlock, w))
		}
		if newPar {
			parIdx = len(table)
			table = append(table, structuralRow(LevelParagraph, w))
		}
		if newLine {
			lineIdx = len(table)
			table = append(table, structuralRow(LevelLine, w))
		}

		for _, idx := range []int{blockIdx, parIdx, lineIdx} {
			table[idx].Box = table[idx].Box.Union(w.Box)
		}

		table = append(table, TokenRow{
			Level:      LevelWord,
			PageNum:    1,
			BlockNum:   w.BlockNum,
			ParNum:     w.ParNum,
			LineNum:    w.LineNum,
			WordNum:    w.WordNum,
			Box:        w.Box,
			Confidence: scaleConfidence(w.Confidence),
			Text:       NormalizeWord(w.Text),
		})
	}
	return table
}

func structuralRow(level Level, w Word) TokenRow {
	row := TokenRow{
		Level:      level,
		PageNum:    1,
		BlockNum:   w.BlockNum,
		Confidence: confidence.Absent,
	}
	if level >= LevelParagraph {
		row.ParNum = w.ParNum
	}
	if level >= LevelLine {
		row.LineNum = w.LineNum
	}
	return row
}

func scaleConfidence(c float64) float64 {
	if c < 0 {
		return confidence.Absent
	}
	c /= 100
	if c > 1 {
		c = 1
	}
	return c
}
