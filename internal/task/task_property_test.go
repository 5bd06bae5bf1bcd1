package task

import (
	"testing"

	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genWord generates a word that may extend past a 100x100 image.
func genWord() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 4),
		gen.IntRange(-20, 150),
		gen.IntRange(-20, 150),
		gen.IntRange(0, 80),
		gen.IntRange(0, 80),
		gen.Float64Range(-1, 100),
	).Map(func(vals []interface{}) recognition.Word {
		block, ok := vals[0].(int)
		if !ok {
			panic("expected int")
		}
		left, _ := vals[1].(int)
		top, _ := vals[2].(int)
		width, _ := vals[3].(int)
		height, _ := vals[4].(int)
		conf, _ := vals[5].(float64)
		return recognition.Word{
			BlockNum: block, ParNum: 1, LineNum: 1, WordNum: 1,
			Box:        utils.BoundingBox{Left: left, Top: top, Width: width, Height: height},
			Confidence: conf,
			Text:       "w",
		}
	})
}

func TestSynthesize_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("percentages stay within [0,100] and scores within [0,1]", prop.ForAll(
		func(words []recognition.Word) bool {
			doc := Synthesize(100, 100, "ref", recognition.BuildTable(100, 100, words), recognition.LevelWord)
			for _, e := range doc.Predictions[0].Result {
				for _, v := range []float64{e.Value.X, e.Value.Y, e.Value.Width, e.Value.Height} {
					if v < 0 || v > 100 {
						return false
					}
				}
				if e.Score != nil && (*e.Score < 0 || *e.Score > 1) {
					return false
				}
			}
			s := doc.Predictions[0].Score
			return s >= 0 && s <= 1
		},
		gen.SliceOf(genWord()),
	))

	properties.Property("every grouping yields a rectangle and a transcription with one id", prop.ForAll(
		func(words []recognition.Word) bool {
			doc := Synthesize(100, 100, "ref", recognition.BuildTable(100, 100, words), recognition.LevelWord)
			res := doc.Predictions[0].Result
			if len(res) != 2*len(words) {
				return false
			}
			for i := 0; i < len(res); i += 2 {
				if res[i].ID != res[i+1].ID || res[i].Type != TypeRectangle || res[i+1].Type != TypeTextarea {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genWord()),
	))

	properties.TestingRun(t)
}
