// Package pdf expands a PDF document into page images using pdfcpu.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/MeKo-Tech/layocr/internal/utils"
)

// ErrNoPages is returned when no page of the document carries a decodable image.
var ErrNoPages = errors.New("pdf contains no page images")

// Page is one page image of a document. Number is 1-based.
type Page struct {
	Number int
	Image  image.Image
}

// Options controls page extraction.
type Options struct {
	// Pages selects pages, e.g. "1-3,5". Empty selects all pages.
	Pages string
	// Password opens encrypted documents.
	Password string
}

// ExtractPages reads the PDF at path and returns one image per page.
func ExtractPages(path string, opts Options) ([]Page, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading user-provided PDF file path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	return extract(f, opts)
}

// ExtractPagesFromBytes is ExtractPages for an in-memory document.
func ExtractPagesFromBytes(data []byte, opts Options) ([]Page, error) {
	return extract(bytes.NewReader(data), opts)
}

// extract keeps the largest image of every page. Scanned PDFs carry one
// full-page image; smaller images are usually logos or thumbnails.
func extract(rs io.ReadSeeker, opts Options) ([]Page, error) {
	pageNumbers, err := parsePageRange(opts.Pages)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", opts.Pages, err)
	}

	var selected []string
	for _, n := range pageNumbers {
		selected = append(selected, strconv.Itoa(n))
	}

	conf := model.NewDefaultConfiguration()
	if opts.Password != "" {
		conf.UserPW = opts.Password
		conf.OwnerPW = opts.Password
	}

	largest := make(map[int]image.Image)
	digest := func(img model.Image, _ bool, _ int) error {
		data, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("failed to read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		decoded, _, err := utils.DecodeImage(data)
		if err != nil {
			slog.Debug("Skipping undecodable PDF image", "page", img.PageNr, "name", img.Name, "error", err)
			return nil
		}
		if prev, ok := largest[img.PageNr]; !ok || area(decoded) > area(prev) {
			largest[img.PageNr] = decoded
		}
		return nil
	}

	if err := api.ExtractImages(rs, selected, digest, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	if len(largest) == 0 {
		return nil, ErrNoPages
	}

	pages := make([]Page, 0, len(largest))
	for n, img := range largest {
		pages = append(pages, Page{Number: n, Image: img})
	}
	slices.SortFunc(pages, func(a, b Page) int { return a.Number - b.Number })
	return pages, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// IsPasswordError reports whether err looks like an encryption failure.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for part := range strings.SplitSeq(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token ("3") or a range token ("1-5").
func parseRangeToken(part string) ([]int, error) {
	if !strings.Contains(part, "-") {
		page, err := strconv.Atoi(part)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		return []int{page}, nil
	}

	bounds := strings.Split(part, "-")
	if len(bounds) != 2 {
		return nil, fmt.Errorf("invalid range format: %s", part)
	}
	start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil || start < 1 {
		return nil, fmt.Errorf("invalid start page: %s", bounds[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid end page: %s", bounds[1])
	}
	if start > end {
		return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}
