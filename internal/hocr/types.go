// Package hocr builds, renders and parses hOCR positional markup for a
// single page: page, block (ocr_carea), paragraph, line and word.
package hocr

import (
	"strings"

	"github.com/MeKo-Tech/layocr/internal/utils"
)

// Page is one recognized page.
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID     string
	Image  string // source reference, echoed into the title
	Lang   string
	System string
	BBox   utils.BoundingBox
	Blocks []Block
}

// Class returns the hOCR class.
func (Page) Class() string { return "ocr_page" }

// Block is a content area.
// Corresponds to hOCR element with class: 'ocr_carea'
type Block struct {
	ID         string
	BBox       utils.BoundingBox
	Confidence float64 // 0..1, confidence.Absent when unknown
	Paragraphs []Paragraph
}

// Class returns the hOCR class.
func (Block) Class() string { return "ocr_carea" }

// Paragraph corresponds to hOCR element with class: 'ocr_par'
type Paragraph struct {
	ID    string
	Lang  string
	BBox  utils.BoundingBox
	Lines []Line
}

// Class returns the hOCR class.
func (Paragraph) Class() string { return "ocr_par" }

// Line corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID         string
	BBox       utils.BoundingBox
	Confidence float64
	Words      []Word
}

// Class returns the hOCR class.
func (Line) Class() string { return "ocr_line" }

// Word corresponds to hOCR element with class: 'ocrx_word'. A zero BBox
// means the position is unknown.
type Word struct {
	ID         string
	BBox       utils.BoundingBox
	Confidence float64
	Text       string
}

// Class returns the hOCR class.
func (Word) Class() string { return "ocrx_word" }

// Words returns every word of the page in document order.
func (p *Page) Words() []Word {
	var out []Word
	for _, b := range p.Blocks {
		for _, par := range b.Paragraphs {
			for _, l := range par.Lines {
				out = append(out, l.Words...)
			}
		}
	}
	return out
}

// Text returns the page text, one line per hOCR line and a blank line
// between blocks.
func (p *Page) Text() string {
	var sb strings.Builder
	for i, b := range p.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, par := range b.Paragraphs {
			for _, l := range par.Lines {
				for j, w := range l.Words {
					if j > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(w.Text)
				}
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
