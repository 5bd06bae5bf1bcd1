package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Format renders the per-page outcome of the run as json, csv or text.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case "json":
		return r.formatJSON()
	case "csv":
		return r.formatCSV()
	case "", "text":
		return r.formatText(), nil
	}
	return "", fmt.Errorf("unsupported format: %s (use text, json or csv)", format)
}

// Save writes the formatted result to outputFile, or stdout when empty.
func (r *Result) Save(format, outputFile string) error {
	output, err := r.Format(format)
	if err != nil {
		return err
	}
	if outputFile == "" {
		_, _ = fmt.Fprint(os.Stdout, output)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func (r *Result) formatJSON() (string, error) {
	out := struct {
		Summary Summary       `json:"summary"`
		Files   []FileOutcome `json:"files"`
	}{r.Summary(), r.Files}
	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "page", "mode", "dir", "words", "regions", "score", "error"}}
	for _, f := range r.Files {
		if f.Result == nil {
			rows = append(rows, []string{f.Path, "", "", "", "0", "0", "0", f.Error})
			continue
		}
		for _, p := range f.Result.Pages {
			rows = append(rows, []string{
				f.Path,
				strconv.Itoa(p.Page),
				string(p.Mode),
				p.Dir,
				strconv.Itoa(p.Words),
				strconv.Itoa(p.Regions),
				fmt.Sprintf("%.3f", p.Score),
				p.Error,
			})
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (r *Result) formatText() string {
	var output strings.Builder
	for i, f := range r.Files {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", f.Path)
		if f.Err != nil {
			fmt.Fprintf(&output, "error: %v\n", f.Err)
			continue
		}
		if f.Result == nil {
			continue
		}
		for _, p := range f.Result.Pages {
			if p.Err != nil {
				fmt.Fprintf(&output, "%s: error: %v\n", p.Name, p.Err)
				continue
			}
			fmt.Fprintf(&output, "%s: %d words, score %.3f -> %s\n", p.Name, p.Words, p.Score, p.Dir)
		}
	}
	s := r.Summary()
	fmt.Fprintf(&output, "\n%d files, %d pages, %d failed pages\n", s.Files, s.Pages, s.FailedPages)
	return output.String()
}
