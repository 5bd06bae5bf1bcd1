package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/layocr/internal/confidence"
	"github.com/MeKo-Tech/layocr/internal/hocr"
)

// pageSummary is the inspect output for one hOCR file.
type pageSummary struct {
	File       string  `json:"file"`
	Image      string  `json:"image"`
	Lang       string  `json:"lang,omitempty"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Blocks     int     `json:"blocks"`
	Lines      int     `json:"lines"`
	Words      int     `json:"words"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text,omitempty"`
}

// inspectCmd summarizes hOCR files written by run.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file.hocr>...",
	Short: "Summarize hOCR files",
	Long: `Parse hOCR files and print the page size, the number of blocks, lines and
words, the mean word confidence and optionally the text.

Examples:
  layocr inspect output/scan/scan.hocr
  layocr inspect output/*/*.hocr --format json --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		withText, _ := cmd.Flags().GetBool("text")
		if format != "text" && format != "json" {
			return fmt.Errorf("unsupported format: %s (use text or json)", format)
		}

		summaries := make([]pageSummary, 0, len(args))
		for _, path := range args {
			s, err := summarizeHOCR(path, withText)
			if err != nil {
				return err
			}
			summaries = append(summaries, s)
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}
		for _, s := range summaries {
			_, _ = fmt.Fprintf(out, "%s: %s %dx%d, %d blocks, %d lines, %d words, confidence %.3f\n",
				s.File, s.Image, s.Width, s.Height, s.Blocks, s.Lines, s.Words, s.Confidence)
			if withText {
				_, _ = fmt.Fprintln(out, s.Text)
			}
		}
		return nil
	},
}

func summarizeHOCR(path string, withText bool) (pageSummary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided input path is expected
	if err != nil {
		return pageSummary{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	page, err := hocr.Parse(data)
	if err != nil {
		return pageSummary{}, fmt.Errorf("%s: %w", path, err)
	}

	s := pageSummary{
		File:   path,
		Image:  page.Image,
		Lang:   page.Lang,
		Width:  page.BBox.Width,
		Height: page.BBox.Height,
		Blocks: len(page.Blocks),
	}
	var confs []float64
	for _, b := range page.Blocks {
		for _, par := range b.Paragraphs {
			s.Lines += len(par.Lines)
		}
	}
	for _, w := range page.Words() {
		s.Words++
		confs = append(confs, w.Confidence)
	}
	s.Confidence = confidence.Aggregate(confs)
	if withText {
		s.Text = page.Text()
	}
	return s, nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "text", "output format: text or json")
	inspectCmd.Flags().Bool("text", false, "include the page text")
}
