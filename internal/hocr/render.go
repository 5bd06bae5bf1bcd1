package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":       html.EscapeString,
	"bbox":      bboxProp,
	"conf":      confProp,
	"pageTitle": pageTitle,
	"wordTitle": wordTitle,
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// Render serializes p. The output depends only on p.
func Render(p *Page) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("error rendering hOCR template: page is nil")
	}
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("error rendering hOCR template: %w", err)
	}
	return buf.Bytes(), nil
}

func bboxProp(b utils.BoundingBox) string {
	return fmt.Sprintf("bbox %d %d %d %d", b.Left, b.Top, b.Right(), b.Bottom())
}

// confProp writes a 0..1 confidence as a floored percentage.
func confProp(key string, v float64) string {
	if confidence.IsAbsent(v) {
		return ""
	}
	return fmt.Sprintf("; %s %d", key, confidence.Percent(v))
}

func pageTitle(p *Page) string {
	var parts []string
	if p.Image != "" {
		parts = append(parts, fmt.Sprintf("image %q", p.Image))
	}
	parts = append(parts, bboxProp(p.BBox), "ppageno 0")
	return strings.Join(parts, "; ")
}

func wordTitle(w Word) string {
	title := ""
	if w.BBox != (utils.BoundingBox{}) {
		title = bboxProp(w.BBox)
	}
	if c := confProp("x_wconf", w.Confidence); c != "" {
		if title == "" {
			return strings.TrimPrefix(c, "; ")
		}
		title += c
	}
	return title
}
