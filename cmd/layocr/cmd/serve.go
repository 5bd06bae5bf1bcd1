package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/layocr/internal/config"
	"github.com/MeKo-Tech/layocr/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for OCR API",
	Long: `Start an HTTP server that runs OCR jobs on uploaded images and PDFs.

The server provides the following endpoints:
  POST /ocr       - Run a job; multipart field "file" plus lang, inference,
                    model, confidence_threshold (or a JSON "config" field)
  GET  /health    - Health check endpoint
  GET  /languages - Installed recognition languages
  GET  /models    - Layout models
  GET  /metrics   - Prometheus metrics

Every job writes its artifacts under <output>/<job id>-<name>.

Examples:
  layocr serve
  layocr serve --port 8080 --output /srv/ocr
  layocr serve --host 0.0.0.0 --layout-endpoint http://layout:5000/detect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		applyServeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		orch, closer, err := buildOrchestrator(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		defer func() { _ = closer() }()

		ocrServer, err := server.NewServer(orch, server.Config{
			CORSOrigin:  cfg.Server.CORSOrigin,
			MaxUploadMB: int64(cfg.Server.MaxUploadMB),
			Defaults:    cfg.RunOptions(""),
			RateLimit: server.RateLimitConfig{
				RequestsPerMinute: cfg.Server.RequestsPerMinute,
				Burst:             cfg.Server.RateBurst,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           ocrServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
		}

		go func() {
			slog.Info("Starting OCR server",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"layout", orch.LayoutEnabled(),
				"languages", orch.Languages())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}
		return nil
	},
}

// applyServeFlags overrides configuration values with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		cfg.Server.MaxUploadMB, _ = flags.GetInt("max-upload-size")
	}
	if flags.Changed("timeout") {
		cfg.Server.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("requests-per-minute") {
		cfg.Server.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("output") {
		cfg.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("lang") {
		cfg.OCR.DefaultLanguage, _ = flags.GetString("lang")
	}
	if flags.Changed("layout-endpoint") {
		cfg.Layout.Endpoint, _ = flags.GetString("layout-endpoint")
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 300, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Int("requests-per-minute", 0, "per-client request limit (0 disables)")
	serveCmd.Flags().StringP("output", "o", "output", "root directory for job artifacts")
	serveCmd.Flags().StringP("lang", "l", "eng", "default recognition language")
	serveCmd.Flags().String("layout-endpoint", "", "layout detection service URL")
}
