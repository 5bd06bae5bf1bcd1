// Package task builds annotation-tool task documents from a full-page token
// table: one rectangle and one transcription entry per grouping, with
// bounding boxes given as percentages of the image size.
package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/google/uuid"
)

const (
	// DefaultImageBaseURL is where a local file server exposes page images.
	DefaultImageBaseURL = "http://localhost:8081/"

	idLength = 10
)

// Document is one task.
type Document struct {
	Data        Data         `json:"data"`
	Predictions []Prediction `json:"predictions"`
}

// Data references the page image.
type Data struct {
	OCR string `json:"ocr"`
}

// Prediction holds the entries of one recognition pass and their mean score.
type Prediction struct {
	Result []Entry `json:"result"`
	Score  float64 `json:"score"`
}

// Entry is one annotation result. Rectangle and transcription entries of the
// same grouping share an ID.
type Entry struct {
	ID       string   `json:"id"`
	FromName string   `json:"from_name"`
	ToName   string   `json:"to_name"`
	Type     string   `json:"type"`
	Value    Value    `json:"value"`
	Score    *float64 `json:"score,omitempty"`
}

// Value is a bounding box in percent of the image size plus, for
// transcription entries, the text.
type Value struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Text     []string `json:"text,omitempty"`
}

// Entry kinds.
const (
	FromBBox          = "bbox"
	FromTranscription = "transcription"
	ToImage           = "image"
	TypeRectangle     = "rectangle"
	TypeTextarea      = "textarea"
)

// Synthesize groups tokens at level. Every row at that level is a grouping;
// its members are the rows below it sharing its ids down to level. Member
// texts are joined with single spaces, groupings with empty text are
// skipped. The grouping score is the mean of its members' confidences and
// the prediction score the mean of the grouping scores.
func Synthesize(width, height int, ref string, tokens recognition.TokenTable, level recognition.Level) Document {
	var results []Entry
	var scores []float64

	for _, g := range tokens {
		if g.Level != level {
			continue
		}

		var texts []string
		var confs []float64
		for _, r := range tokens {
			if !r.Within(g) {
				continue
			}
			if r.Text != "" {
				texts = append(texts, r.Text)
			}
			confs = append(confs, r.Confidence)
		}

		text := strings.TrimSpace(strings.Join(texts, " "))
		if text == "" {
			continue
		}

		id := NewID()
		score := confidence.Aggregate(confs)
		box := Value{
			X:      percent(g.Box.Left, width),
			Y:      percent(g.Box.Top, height),
			Width:  percent(g.Box.Width, width),
			Height: percent(g.Box.Height, height),
		}
		withText := box
		withText.Text = []string{text}

		results = append(results,
			Entry{ID: id, FromName: FromBBox, ToName: ToImage, Type: TypeRectangle, Value: box},
			Entry{ID: id, FromName: FromTranscription, ToName: ToImage, Type: TypeTextarea, Value: withText, Score: &score},
		)
		scores = append(scores, score)
	}

	if results == nil {
		results = []Entry{}
	}
	return Document{
		Data:        Data{OCR: ref},
		Predictions: []Prediction{{Result: results, Score: confidence.Aggregate(scores)}},
	}
}

// NewID returns a short random id.
func NewID() string {
	return uuid.NewString()[:idLength]
}

// ImageURL maps a page image filename to the URL the annotation tool loads
// it from.
func ImageURL(base, filename string) string {
	if base == "" {
		base = DefaultImageBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(filename, "/")
}

// Marshal encodes d with two-space indentation, keeping non-ASCII text and
// HTML characters literal.
func Marshal(d Document) ([]byte, error) {
	return encode(d)
}

// MarshalFile encodes docs as an import file: a JSON array of tasks.
func MarshalFile(docs ...Document) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	return encode(docs)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode task document: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a task document.
func Unmarshal(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("failed to decode task document: %w", err)
	}
	return d, nil
}

// UnmarshalFile decodes an import file written by MarshalFile.
func UnmarshalFile(data []byte) ([]Document, error) {
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode task file: %w", err)
	}
	return docs, nil
}

// Groupings returns the transcription entries of the first prediction.
func (d Document) Groupings() []Entry {
	if len(d.Predictions) == 0 {
		return nil
	}
	var out []Entry
	for _, e := range d.Predictions[0].Result {
		if e.Type == TypeTextarea {
			out = append(out, e)
		}
	}
	return out
}

// percent expresses v as a percentage of total, clamped to [0, 100].
func percent(v, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * float64(v) / float64(total)
	return min(max(p, 0), 100)
}
