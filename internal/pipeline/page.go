package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/hocr"
	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/task"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

type artifact struct {
	name string
	data []byte
}

// ProcessPage recognizes one page and writes its artifacts into a freshly
// created directory <OutputDir>/<Name>. Options must already be validated.
// Errors are reported in the result; a page that failed before writing any
// file leaves no directory behind.
func (o *Orchestrator) ProcessPage(ctx context.Context, in PageInput, opts Options) PageResult {
	start := time.Now()
	res := PageResult{
		Source: in.Source,
		Page:   in.Number,
		Name:   in.Name,
		Dir:    filepath.Join(opts.OutputDir, in.Name),
		Mode:   opts.Mode(),
	}

	err := o.processPage(ctx, in, opts, &res)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		slog.Error("Page failed", "source", in.Source, "page", in.Number, "dir", res.Dir, "error", err)
	} else {
		slog.Debug("Page processed",
			"source", in.Source,
			"page", in.Number,
			"mode", res.Mode,
			"words", res.Words,
			"duration", res.Duration)
	}
	recordPage(&res)
	return res
}

func (o *Orchestrator) processPage(ctx context.Context, in PageInput, opts Options, res *PageResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.store.CreateDir(ctx, res.Dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err := o.writeArtifacts(ctx, in, opts, res)
	if err != nil && len(res.Files) == 0 {
		// Nothing was written; free the name so a rerun can claim it.
		if rmErr := o.store.RemoveDir(context.WithoutCancel(ctx), res.Dir); rmErr != nil {
			slog.Warn("Failed to remove empty page directory", "dir", res.Dir, "error", rmErr)
		}
	}
	return err
}

func (o *Orchestrator) writeArtifacts(ctx context.Context, in PageInput, opts Options, res *PageResult) error {
	var err error
	if opts.Layout {
		err = o.runLayout(ctx, in, opts, res)
	} else {
		err = o.runDirect(ctx, in, opts, res)
	}
	if err != nil {
		return err
	}

	files := []artifact{
		{in.Name + TranscriptSuffix, []byte(res.Text)},
		{in.Name + MarkupSuffix, res.HOCR},
	}
	if res.Tasks != nil {
		files = append(files, artifact{in.Name + TasksSuffix, res.Tasks})
	}
	if res.RegionsJSON != nil {
		files = append(files, artifact{RegionsFile, res.RegionsJSON})
	}
	if in.PageImage != nil {
		files = append(files, artifact{in.Ref, in.PageImage})
	}
	for _, f := range files {
		path := filepath.Join(res.Dir, f.name)
		if err := o.store.WriteFile(ctx, path, f.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		res.Files = append(res.Files, o.store.Location(path))
	}
	return nil
}

// runDirect recognizes the grayscale page in one call and derives both the
// markup and the task document from the token table.
func (o *Orchestrator) runDirect(ctx context.Context, in PageInput, opts Options, res *PageResult) error {
	rec, err := o.adapter.Recognize(ctx, utils.Grayscale(in.Image), opts.Language)
	if err != nil {
		return err
	}

	page := hocr.FromTokens(in.Ref, opts.Language, rec.Tokens)
	markup, err := hocr.Render(page)
	if err != nil {
		return err
	}

	doc := task.Synthesize(rec.Width, rec.Height, task.ImageURL(o.cfg.ImageBaseURL, in.Ref), rec.Tokens, o.cfg.GroupLevel)
	tasks, err := task.MarshalFile(doc)
	if err != nil {
		return err
	}

	res.Text = rec.Text
	res.Words = len(page.Words())
	res.Score = doc.Predictions[0].Score
	res.HOCR = markup
	res.Tasks = tasks
	return nil
}

// runLayout detects regions on the color page, recognizes them one by one
// in region order and builds the markup from the label-keyed results.
func (o *Orchestrator) runLayout(ctx context.Context, in PageInput, opts Options, res *PageResult) error {
	regions, err := o.detector.Detect(ctx, in.Image, opts.Model, opts.Threshold)
	if err != nil {
		return err
	}

	confidences := make(map[string]float64, regions.Len())
	var transcript strings.Builder
	for _, r := range layout.Order(regions) {
		confidences[r.Label] = r.Confidence
		crop := utils.CropImageBox(in.Image, r.Box)
		if crop.Bounds().Empty() {
			slog.Debug("Skipping empty layout region", "label", r.Label, "box", r.Box)
			regions.SetText(r.Label, "")
			continue
		}
		rec, err := o.adapter.Recognize(ctx, utils.Grayscale(crop), opts.Language)
		if err != nil {
			return fmt.Errorf("region %s: %w", r.Label, err)
		}
		regions.SetText(r.Label, rec.Text)
		if text := strings.TrimSpace(rec.Text); text != "" {
			transcript.WriteString(text)
			transcript.WriteByte('\n')
		}
	}

	ordered := layout.Order(regions)
	b := in.Image.Bounds()
	page := hocr.FromRegions(in.Ref, opts.Language, b.Dx(), b.Dy(), ordered, confidences)
	markup, err := hocr.Render(page)
	if err != nil {
		return err
	}
	dump, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode regions: %w", err)
	}

	res.Text = transcript.String()
	res.Words = len(page.Words())
	res.Regions = len(ordered)
	res.Score = meanRegionConfidence(page)
	res.HOCR = markup
	res.RegionsJSON = dump
	return nil
}

func meanRegionConfidence(p *hocr.Page) float64 {
	values := make([]float64, len(p.Blocks))
	for i, b := range p.Blocks {
		values[i] = b.Confidence
	}
	return confidence.Aggregate(values)
}
