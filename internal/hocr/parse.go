package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/utils"
	"golang.org/x/net/html"
)

// Parse reads the first ocr_page of an hOCR document. Confidences are read
// back on the 0..1 scale at the precision they were written with.
func Parse(data []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	pageNode := find(doc, func(n *html.Node) bool { return hasClass(n, "ocr_page") })
	if pageNode == nil {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}

	page := &Page{ID: attr(pageNode, "id")}
	if htmlNode := find(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "html" }); htmlNode != nil {
		page.Lang = attr(htmlNode, "lang")
	}
	if meta := find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "meta" && attr(n, "name") == "ocr-system"
	}); meta != nil {
		page.System = attr(meta, "content")
	}
	props := ParseTitle(attr(pageNode, "title"))
	page.BBox = bboxFrom(props)
	if img, ok := props["image"]; ok {
		page.Image = strings.Trim(strings.Join(img, " "), `"`)
	}

	for _, bn := range children(pageNode, "ocr_carea") {
		bp := ParseTitle(attr(bn, "title"))
		block := Block{ID: attr(bn, "id"), BBox: bboxFrom(bp), Confidence: confFrom(bp, "x_conf")}
		for _, pn := range children(bn, "ocr_par") {
			par := Paragraph{ID: attr(pn, "id"), Lang: attr(pn, "lang"), BBox: bboxFrom(ParseTitle(attr(pn, "title")))}
			for _, ln := range children(pn, "ocr_line") {
				lp := ParseTitle(attr(ln, "title"))
				line := Line{ID: attr(ln, "id"), BBox: bboxFrom(lp), Confidence: confFrom(lp, "x_conf")}
				for _, wn := range children(ln, "ocrx_word") {
					wp := ParseTitle(attr(wn, "title"))
					line.Words = append(line.Words, Word{
						ID:         attr(wn, "id"),
						BBox:       bboxFrom(wp),
						Confidence: confFrom(wp, "x_wconf"),
						Text:       textOf(wn),
					})
				}
				par.Lines = append(par.Lines, line)
			}
			block.Paragraphs = append(block.Paragraphs, par)
		}
		page.Blocks = append(page.Blocks, block)
	}
	return page, nil
}

// ParseTitle breaks down an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

func bboxFrom(props map[string][]string) utils.BoundingBox {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return utils.BoundingBox{}
	}
	var c [4]int
	for i := range c {
		c[i], _ = strconv.Atoi(v[i])
	}
	return utils.FromCorners(c[0], c[1], c[2], c[3])
}

func confFrom(props map[string][]string, key string) float64 {
	v, ok := props[key]
	if !ok || len(v) == 0 {
		return confidence.Absent
	}
	n, err := strconv.ParseFloat(v[0], 64)
	if err != nil {
		return confidence.Absent
	}
	return n / 100
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// children returns the descendants of n with the given class, not
// descending into matches.
func children(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if hasClass(c, class) {
				out = append(out, c)
				continue
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
