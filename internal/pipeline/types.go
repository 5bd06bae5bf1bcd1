package pipeline

import (
	"errors"
	"image"
	"time"

	"github.com/MeKo-Tech/layocr/internal/layout"
)

// Mode selects how a page is recognized.
type Mode string

const (
	// ModeDirect recognizes the whole page in one engine call.
	ModeDirect Mode = "direct"
	// ModeLayout detects layout regions first and recognizes each region.
	ModeLayout Mode = "layout"
)

// Artifact file name suffixes.
const (
	TranscriptSuffix = ".txt"
	MarkupSuffix     = ".hocr"
	TasksSuffix      = "_ocr_tasks.json"
	RegionsFile      = "regions.json"
	PageImageSuffix  = ".png"
)

// Options are the per-run settings.
type Options struct {
	Language  string       `json:"lang"`
	OutputDir string       `json:"output_dir"`
	Layout    bool         `json:"inference"`
	Model     layout.Model `json:"model,omitempty"`
	Threshold float64      `json:"confidence_threshold,omitempty"`
	// Pages restricts PDF inputs to a page range such as "1-3,5".
	Pages string `json:"pages,omitempty"`
	// Password opens encrypted PDF inputs.
	Password string `json:"-"`
}

// Mode returns the execution mode the options select.
func (o Options) Mode() Mode {
	if o.Layout {
		return ModeLayout
	}
	return ModeDirect
}

// PageInput is one page image ready for recognition.
type PageInput struct {
	Source string
	// Number is the 1-based PDF page number, 0 for single images.
	Number int
	// Name is the output stem: "<stem>" or "<stem>-p<N>".
	Name string
	// Ref identifies the page image in the markup and task documents.
	Ref   string
	Image image.Image
	// PageImage, when set, is written next to the artifacts as Ref.
	PageImage []byte
}

// PageResult describes the artifacts produced for one page.
type PageResult struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Name   string `json:"name"`
	Dir    string `json:"dir"`
	Mode   Mode   `json:"mode"`

	Text    string  `json:"text"`
	Words   int     `json:"words"`
	Regions int     `json:"regions,omitempty"`
	Score   float64 `json:"score"`

	HOCR        []byte `json:"-"`
	Tasks       []byte `json:"-"`
	RegionsJSON []byte `json:"-"`

	Files    []string      `json:"files"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// FileResult groups the page results of one input file.
type FileResult struct {
	Source string       `json:"source"`
	Pages  []PageResult `json:"pages"`
}

// Failed returns the number of pages that did not produce artifacts.
func (r *FileResult) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the page errors, nil when every page succeeded.
func (r *FileResult) Err() error {
	var errs []error
	for _, p := range r.Pages {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}
