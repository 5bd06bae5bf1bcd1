package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/layocr/internal/batch"
	"github.com/MeKo-Tech/layocr/internal/config"
	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
)

// runCmd processes images and PDFs and writes the page artifacts.
var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Recognize images and PDFs and write transcripts, hOCR and annotation tasks",
	Long: `Recognize the given images and PDFs page by page.

For every page a directory <output>/<name> is created holding:
  <name>.txt              plain transcript
  <name>.hocr             hOCR markup
  <name>_ocr_tasks.json   Label Studio tasks (direct mode)
  regions.json            layout regions (with --inference)

PDF pages are named <stem>-p<N>. The run stops before writing anything when
the language is not installed or the output directory is unusable; any other
failure skips the page or file and the run continues. A failed page leaves
no directory behind, so the same input can be run again.

Supported formats: PNG, JPEG, BMP, TIFF, PDF

Examples:
  layocr run scan.png --lang eng
  layocr run book.pdf --lang san --pages 1-10 --output out
  layocr run leaves/ --recursive --inference --threshold 0.6
  layocr run scans/ --format csv --report report.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRunCommand,
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	lang, _ := cmd.Flags().GetString("lang")
	opts := cfg.RunOptions(lang)
	opts.Pages, _ = cmd.Flags().GetString("pages")
	opts.Password, _ = cmd.Flags().GetString("password")
	if cmd.Flags().Changed("model") {
		// An explicit model that does not parse must fail validation, not
		// fall back to the default.
		m, _ := cmd.Flags().GetString("model")
		if parsed, err := layout.ParseModel(m); err == nil {
			opts.Model = parsed
		} else {
			opts.Model = layout.Model(m)
		}
	}

	files, err := batch.Discover(args, cfg.Batch.Recursive, cfg.Batch.Include, cfg.Batch.Exclude)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, closer, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	var reporter batch.Reporter = batch.NopReporter{}
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		reporter = batch.NewConsoleReporter(cmd.ErrOrStderr(), "")
	}

	res, err := batch.Run(ctx, orch, files, opts, reporter)
	if err != nil {
		if pipeline.IsFatal(err) {
			slog.Error("Run aborted", "error", err)
		}
		if res == nil {
			return err
		}
	}

	if reportErr := writeReport(cmd, res, cfg.Output.Format, cfg.Output.Report); reportErr != nil {
		return reportErr
	}
	if err != nil {
		return err
	}
	if s := res.Summary(); s.FailedFiles > 0 || s.FailedPages > 0 {
		return fmt.Errorf("%d of %d files and %d of %d pages failed", s.FailedFiles, s.Files, s.FailedPages, s.Pages)
	}
	return nil
}

// applyRunFlags overrides configuration values with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("inference") {
		cfg.Layout.Enabled, _ = flags.GetBool("inference")
	}
	if flags.Changed("layout-endpoint") {
		cfg.Layout.Endpoint, _ = flags.GetString("layout-endpoint")
	}
	if flags.Changed("threshold") {
		cfg.Layout.ConfidenceThreshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("group-level") {
		cfg.Task.GroupLevel, _ = flags.GetString("group-level")
	}
	if flags.Changed("image-base-url") {
		cfg.Task.ImageBaseURL, _ = flags.GetString("image-base-url")
	}
	if flags.Changed("page-images") {
		cfg.Output.PageImages, _ = flags.GetBool("page-images")
	}
	if flags.Changed("recursive") {
		cfg.Batch.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("include") {
		cfg.Batch.Include, _ = flags.GetStringSlice("include")
	}
	if flags.Changed("exclude") {
		cfg.Batch.Exclude, _ = flags.GetStringSlice("exclude")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("report") {
		cfg.Output.Report, _ = flags.GetString("report")
	}
	if flags.Changed("storage") {
		cfg.Output.Storage, _ = flags.GetString("storage")
	}
	if flags.Changed("s3-bucket") {
		cfg.Output.S3.Bucket, _ = flags.GetString("s3-bucket")
	}
	if flags.Changed("languages") {
		cfg.OCR.Languages, _ = flags.GetStringSlice("languages")
	}
}

func writeReport(cmd *cobra.Command, res *batch.Result, format, report string) error {
	if report != "" {
		return res.Save(format, report)
	}
	out, err := res.Format(format)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("lang", "l", "", "recognition language, e.g. eng, san or san+eng (default from config)")
	runCmd.Flags().StringP("output", "o", "output", "output root directory (must not contain spaces)")
	runCmd.Flags().Bool("inference", false, "detect layout regions before recognition")
	runCmd.Flags().String("layout-endpoint", "", "layout detection service URL")
	runCmd.Flags().String("model", "", "layout model (see 'layocr serve' /models)")
	runCmd.Flags().Float64("threshold", 0.7, "layout detection confidence threshold (0..1)")
	runCmd.Flags().String("pages", "", "PDF page range, e.g. 1-3,5")
	runCmd.Flags().String("password", "", "password for encrypted PDFs")
	runCmd.Flags().String("group-level", "block", "task grouping level: page, block, paragraph, line or word")
	runCmd.Flags().String("image-base-url", "", "base URL of the page images referenced by tasks")
	runCmd.Flags().Bool("page-images", true, "write PDF page images next to the artifacts")
	runCmd.Flags().StringSlice("languages", nil, "installed language list override")
	runCmd.Flags().String("storage", "local", "artifact storage: local or s3")
	runCmd.Flags().String("s3-bucket", "", "S3 bucket for --storage s3")

	runCmd.Flags().BoolP("recursive", "r", false, "process directories recursively")
	runCmd.Flags().StringSlice("include", nil, "include file patterns (e.g. *.png)")
	runCmd.Flags().StringSlice("exclude", nil, "exclude file patterns")

	runCmd.Flags().StringP("format", "f", "text", "report format: text, json or csv")
	runCmd.Flags().String("report", "", "write the report to a file instead of stdout")
	runCmd.Flags().Bool("progress", false, "show per-file progress on stderr")
}
