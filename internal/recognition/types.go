// Package recognition wraps a text-recognition engine behind a uniform
// contract: recognize(image, language) returns the transcript and a token
// table laid out like Tesseract's TSV output.
package recognition

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/utils"
)

// Level is a structural granularity of the token table.
type Level int

const (
	LevelPage Level = iota + 1
	LevelBlock
	LevelParagraph
	LevelLine
	LevelWord
)

var levelNames = map[Level]string{
	LevelPage:      "page",
	LevelBlock:     "block",
	LevelParagraph: "paragraph",
	LevelLine:      "line",
	LevelWord:      "word",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Valid reports whether l is one of the five structural levels.
func (l Level) Valid() bool {
	return l >= LevelPage && l <= LevelWord
}

// ParseLevel accepts both the plain names (block) and the TSV column names
// (block_num). An empty string selects LevelBlock.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "page", "page_num":
		return LevelPage, nil
	case "", "block", "block_num":
		return LevelBlock, nil
	case "paragraph", "par", "par_num":
		return LevelParagraph, nil
	case "line", "line_num":
		return LevelLine, nil
	case "word", "word_num":
		return LevelWord, nil
	}
	return 0, fmt.Errorf("invalid structural level: %q (must be one of: page, block, paragraph, line, word)", s)
}

// TokenRow is one row of the token table. Rows above word level are
// structural and carry an absent confidence.
type TokenRow struct {
	Level      Level             `json:"level"`
	PageNum    int               `json:"page_num"`
	BlockNum   int               `json:"block_num"`
	ParNum     int               `json:"par_num"`
	LineNum    int               `json:"line_num"`
	WordNum    int               `json:"word_num"`
	Box        utils.BoundingBox `json:"box"`
	Confidence float64           `json:"conf"`
	Text       string            `json:"text"`
}

// ID returns the row's grouping id at the given level.
func (r TokenRow) ID(level Level) int {
	switch level {
	case LevelPage:
		return r.PageNum
	case LevelBlock:
		return r.BlockNum
	case LevelParagraph:
		return r.ParNum
	case LevelLine:
		return r.LineNum
	case LevelWord:
		return r.WordNum
	}
	return 0
}

// Path returns the row's ancestor ids from page down to level. Ids of finer
// levels are zeroed so paths of different rows compare with ==.
func (r TokenRow) Path(level Level) [5]int {
	var p [5]int
	for l := LevelPage; l <= level && l <= LevelWord; l++ {
		p[l-1] = r.ID(l)
	}
	return p
}

// Within reports whether r lies inside the grouping g at g's level.
func (r TokenRow) Within(g TokenRow) bool {
	return r.Level >= g.Level && r.Path(g.Level) == g.Path(g.Level)
}

// TokenTable is the flat token table in engine order.
type TokenTable []TokenRow

// AtLevel returns the rows whose level equals level.
func (t TokenTable) AtLevel(level Level) TokenTable {
	var out TokenTable
	for _, r := range t {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Words returns the word rows.
func (t TokenTable) Words() TokenTable {
	return t.AtLevel(LevelWord)
}

// Word is one recognized word as reported by an engine. Confidence is on
// the engine's 0..100 scale; negative means unknown.
type Word struct {
	BlockNum   int
	ParNum     int
	LineNum    int
	WordNum    int
	Box        utils.BoundingBox
	Confidence float64
	Text       string
}

// EngineOutput is the raw result of one engine call.
type EngineOutput struct {
	Text  string
	Words []Word
}

// Result is what the adapter hands to the synthesizers.
type Result struct {
	Language string
	Text     string
	Tokens   TokenTable
	Width    int
	Height   int
}
