package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/layocr/internal/pdf"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// ProcessFile validates opts and processes the image or PDF at path.
// A failing page is recorded in the result and does not stop the others.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string, opts Options) (*FileResult, error) {
	if err := o.Validate(opts); err != nil {
		return nil, err
	}
	return o.ProcessValidatedFile(ctx, path, opts)
}

// ProcessValidatedFile is ProcessFile for options that already passed
// Validate, as in a batch that validates once up front.
func (o *Orchestrator) ProcessValidatedFile(ctx context.Context, path string, opts Options) (*FileResult, error) {
	if err := checkFileType(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided input path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return o.processDocument(ctx, path, data, opts)
}

// ProcessDocument validates opts and processes an in-memory upload named
// name. The name only selects the file type and the output stem.
func (o *Orchestrator) ProcessDocument(ctx context.Context, name string, data []byte, opts Options) (*FileResult, error) {
	if err := o.Validate(opts); err != nil {
		return nil, err
	}
	if err := checkFileType(name); err != nil {
		return nil, err
	}
	return o.processDocument(ctx, name, data, opts)
}

func checkFileType(path string) error {
	if utils.IsSupportedImage(path) || utils.IsPDF(path) {
		return nil
	}
	return &UnsupportedFileTypeError{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
}

func (o *Orchestrator) processDocument(ctx context.Context, source string, data []byte, opts Options) (*FileResult, error) {
	inputs, err := o.expand(source, data, opts)
	if err != nil {
		return nil, err
	}

	result := &FileResult{Source: source}
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := o.ProcessPage(ctx, in, opts)
		result.Pages = append(result.Pages, res)
	}
	slog.Info("Processed file",
		"source", source,
		"mode", opts.Mode(),
		"pages", len(result.Pages),
		"failed", result.Failed())
	return result, nil
}

// expand turns an input document into page inputs.
func (o *Orchestrator) expand(source string, data []byte, opts Options) ([]PageInput, error) {
	stem := utils.Stem(source)

	if !utils.IsPDF(source) {
		img, _, err := utils.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", source, err)
		}
		return []PageInput{{
			Source: source,
			Name:   stem,
			Ref:    filepath.Base(source),
			Image:  img,
		}}, nil
	}

	pages, err := pdf.ExtractPagesFromBytes(data, pdf.Options{Pages: opts.Pages, Password: opts.Password})
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", source, err)
	}
	inputs := make([]PageInput, 0, len(pages))
	for _, p := range pages {
		name := fmt.Sprintf("%s-p%d", stem, p.Number)
		in := PageInput{
			Source: source,
			Number: p.Number,
			Name:   name,
			Ref:    name + PageImageSuffix,
			Image:  p.Image,
		}
		if o.cfg.WritePageImages {
			png, err := utils.EncodePNG(p.Image)
			if err != nil {
				return nil, err
			}
			in.PageImage = png
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
