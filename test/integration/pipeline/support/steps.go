package support

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/layocr/internal/hocr"
	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/task"
	"github.com/MeKo-Tech/layocr/internal/testutil"
	"github.com/MeKo-Tech/layocr/internal/utils"
)

// RegisterSteps registers every step of the suite.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the recognition engine has the languages "([^"]*)"$`, testCtx.theEngineHasLanguages)
	sc.Step(`^a clean output directory$`, testCtx.aCleanOutputDirectory)
	sc.Step(`^the engine recognizes "([^"]*)" with confidence (\d+)$`, testCtx.theEngineRecognizes)
	sc.Step(`^the engine fails on call (\d+)$`, testCtx.theEngineFailsOnCall)
	sc.Step(`^the layout detector finds regions:$`, testCtx.theLayoutDetectorFindsRegions)
	sc.Step(`^an image "([^"]*)"$`, testCtx.anImage)
	sc.Step(`^a PDF "([^"]*)" with (\d+) pages$`, testCtx.aPDFWithPages)
	sc.Step(`^I process "([^"]*)" in (direct|layout) mode with language "([^"]*)"$`, testCtx.iProcess)

	sc.Step(`^the run succeeds$`, testCtx.theRunSucceeds)
	sc.Step(`^the run fails with an unsupported language error$`, testCtx.theRunFailsWithUnsupportedLanguage)
	sc.Step(`^page (\d+) failed$`, testCtx.pageFailed)
	sc.Step(`^page (\d+) succeeded$`, testCtx.pageSucceeded)
	sc.Step(`^the directory "([^"]*)" contains "([^"]*)"$`, testCtx.theDirectoryContains)
	sc.Step(`^the directory "([^"]*)" does not exist$`, testCtx.theDirectoryDoesNotExist)
	sc.Step(`^the transcript "([^"]*)" is "([^"]*)"$`, testCtx.theTranscriptIs)
	sc.Step(`^the markup "([^"]*)" has (\d+) words$`, testCtx.theMarkupHasWords)
	sc.Step(`^the markup "([^"]*)" has block confidences "([^"]*)"$`, testCtx.theMarkupHasBlockConfidences)
	sc.Step(`^the task file "([^"]*)" has a prediction score between 0 and 1$`, testCtx.theTaskFileHasScore)
	sc.Step(`^the output directory is empty$`, testCtx.theOutputDirectoryIsEmpty)
	sc.Step(`^the engine was not called$`, testCtx.theEngineWasNotCalled)
}

func (testCtx *TestContext) theEngineHasLanguages(langs string) error {
	testCtx.Engine.Langs = strings.Split(langs, ",")
	return nil
}

func (testCtx *TestContext) aCleanOutputDirectory() error {
	dir, err := os.MkdirTemp("", "layocr-feature-*")
	if err != nil {
		return err
	}
	testCtx.TempDir = dir
	testCtx.OutputDir = filepath.Join(dir, "out")
	return nil
}

func (testCtx *TestContext) theEngineRecognizes(text string, conf int) error {
	testCtx.Engine.Outputs = append(testCtx.Engine.Outputs, testutil.Line(float64(conf), strings.Fields(text)...))
	return nil
}

func (testCtx *TestContext) theEngineFailsOnCall(call int) error {
	testCtx.Engine.Failures[call] = errors.New("engine crashed")
	return nil
}

func (testCtx *TestContext) theLayoutDetectorFindsRegions(table *godog.Table) error {
	det := &testutil.FakeDetector{}
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 6 {
			return fmt.Errorf("region row %d: expected 6 cells, got %d", i, len(row.Cells))
		}
		nums := make([]float64, 5)
		for j := range nums {
			v, err := strconv.ParseFloat(row.Cells[j+1].Value, 64)
			if err != nil {
				return fmt.Errorf("region row %d: %w", i, err)
			}
			nums[j] = v
		}
		det.Regions = append(det.Regions, layout.Region{
			Label:      row.Cells[0].Value,
			Box:        utils.BoundingBox{Left: int(nums[0]), Top: int(nums[1]), Width: int(nums[2]), Height: int(nums[3])},
			Confidence: nums[4],
		})
	}
	testCtx.Detector = det
	return nil
}

func (testCtx *TestContext) anImage(name string) error {
	data, err := utils.EncodePNG(testutil.CreateTestImage(200, 100, color.White))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(testCtx.TempDir, name), data, 0o600)
}

func (testCtx *TestContext) aPDFWithPages(name string, pages int) error {
	imgs := make([]image.Image, pages)
	for i := range imgs {
		imgs[i] = testutil.CreateTestImage(120+10*i, 80, color.White)
	}
	data, err := testutil.BuildPDF(imgs...)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(testCtx.TempDir, name), data, 0o600)
}

func (testCtx *TestContext) iProcess(name, mode, lang string) error {
	orch, err := testCtx.orchestrator()
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		Language:  lang,
		OutputDir: testCtx.OutputDir,
		Layout:    mode == string(pipeline.ModeLayout),
		Model:     layout.SanskritPubLayNetFasterRCNN,
		Threshold: 0.7,
	}
	testCtx.LastResult, testCtx.LastError = orch.ProcessFile(context.Background(), filepath.Join(testCtx.TempDir, name), opts)
	return nil
}

func (testCtx *TestContext) theRunSucceeds() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected success, got %w", testCtx.LastError)
	}
	if testCtx.LastResult == nil || len(testCtx.LastResult.Pages) == 0 {
		return errors.New("expected at least one page result")
	}
	return nil
}

func (testCtx *TestContext) theRunFailsWithUnsupportedLanguage() error {
	var langErr *recognition.UnsupportedLanguageError
	if !errors.As(testCtx.LastError, &langErr) {
		return fmt.Errorf("expected UnsupportedLanguageError, got %v", testCtx.LastError)
	}
	if !pipeline.IsFatal(testCtx.LastError) {
		return errors.New("expected the error to be fatal")
	}
	return nil
}

func (testCtx *TestContext) page(number int) (*pipeline.PageResult, error) {
	if testCtx.LastResult == nil {
		return nil, errors.New("no result")
	}
	for i := range testCtx.LastResult.Pages {
		if testCtx.LastResult.Pages[i].Page == number {
			return &testCtx.LastResult.Pages[i], nil
		}
	}
	return nil, fmt.Errorf("page %d not in result", number)
}

func (testCtx *TestContext) pageFailed(number int) error {
	p, err := testCtx.page(number)
	if err != nil {
		return err
	}
	if p.Err == nil {
		return fmt.Errorf("expected page %d to fail", number)
	}
	return nil
}

func (testCtx *TestContext) pageSucceeded(number int) error {
	p, err := testCtx.page(number)
	if err != nil {
		return err
	}
	if p.Err != nil {
		return fmt.Errorf("expected page %d to succeed, got %w", number, p.Err)
	}
	return nil
}

func (testCtx *TestContext) theDirectoryContains(dir, files string) error {
	got := testutil.ListTree(filepath.Join(testCtx.OutputDir, dir))
	want := strings.Split(files, ",")
	if !slices.Equal(got, want) {
		return fmt.Errorf("directory %s: expected %v, got %v", dir, want, got)
	}
	return nil
}

func (testCtx *TestContext) theDirectoryDoesNotExist(dir string) error {
	if path := filepath.Join(testCtx.OutputDir, dir); testutil.DirExists(path) {
		return fmt.Errorf("expected %s to be absent", path)
	}
	return nil
}

func (testCtx *TestContext) readOutput(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(testCtx.OutputDir, filepath.FromSlash(rel)))
}

func (testCtx *TestContext) theTranscriptIs(rel, want string) error {
	data, err := testCtx.readOutput(rel)
	if err != nil {
		return err
	}
	want = strings.ReplaceAll(want, `\n`, "\n")
	if string(data) != want {
		return fmt.Errorf("transcript %s: expected %q, got %q", rel, want, string(data))
	}
	return nil
}

func (testCtx *TestContext) parseMarkup(rel string) (*hocr.Page, error) {
	data, err := testCtx.readOutput(rel)
	if err != nil {
		return nil, err
	}
	return hocr.Parse(data)
}

func (testCtx *TestContext) theMarkupHasWords(rel string, n int) error {
	page, err := testCtx.parseMarkup(rel)
	if err != nil {
		return err
	}
	if got := len(page.Words()); got != n {
		return fmt.Errorf("markup %s: expected %d words, got %d", rel, n, got)
	}
	return nil
}

func (testCtx *TestContext) theMarkupHasBlockConfidences(rel, confs string) error {
	page, err := testCtx.parseMarkup(rel)
	if err != nil {
		return err
	}
	want := strings.Split(confs, ",")
	if len(page.Blocks) != len(want) {
		return fmt.Errorf("markup %s: expected %d blocks, got %d", rel, len(want), len(page.Blocks))
	}
	for i, w := range want {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return err
		}
		if diff := page.Blocks[i].Confidence - v; diff > 1e-9 || diff < -1e-9 {
			return fmt.Errorf("block %d: expected confidence %v, got %v", i, v, page.Blocks[i].Confidence)
		}
	}
	return nil
}

func (testCtx *TestContext) theTaskFileHasScore(rel string) error {
	data, err := testCtx.readOutput(rel)
	if err != nil {
		return err
	}
	docs, err := task.UnmarshalFile(data)
	if err != nil {
		return err
	}
	if len(docs) == 0 || len(docs[0].Predictions) == 0 {
		return fmt.Errorf("task file %s has no predictions", rel)
	}
	if s := docs[0].Predictions[0].Score; s < 0 || s > 1 {
		return fmt.Errorf("prediction score %v outside [0,1]", s)
	}
	return nil
}

func (testCtx *TestContext) theOutputDirectoryIsEmpty() error {
	if files := testutil.ListTree(testCtx.OutputDir); len(files) > 0 {
		return fmt.Errorf("expected no output, found %v", files)
	}
	return nil
}

func (testCtx *TestContext) theEngineWasNotCalled() error {
	if n := testCtx.Engine.Calls(); n != 0 {
		return fmt.Errorf("expected no engine calls, got %d", n)
	}
	return nil
}
