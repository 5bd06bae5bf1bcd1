package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/layocr/internal/config"
	"github.com/MeKo-Tech/layocr/internal/layout"
	"github.com/MeKo-Tech/layocr/internal/pipeline"
	"github.com/MeKo-Tech/layocr/internal/recognition"
	"github.com/MeKo-Tech/layocr/internal/storage"
)

// newEngine creates the recognition engine. Tests replace it.
var newEngine = func(cfg recognition.EngineConfig) (recognition.Engine, error) {
	eng, err := recognition.NewTesseractEngine(cfg)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// newDetector creates the layout detector for cfg, nil when no endpoint is
// configured. The returned closer releases the cache connection.
var newDetector = func(ctx context.Context, cfg *config.Config) (layout.Detector, func() error, error) {
	noop := func() error { return nil }
	if cfg.Layout.Endpoint == "" {
		return nil, noop, nil
	}

	var det layout.Detector = layout.NewHTTPDetector(cfg.Layout.Endpoint, cfg.LayoutTimeout())
	if cfg.Layout.Cache.RedisAddr == "" {
		return det, noop, nil
	}

	cache, err := layout.NewRedisCache(ctx, layout.RedisOptions{
		Addr:     cfg.Layout.Cache.RedisAddr,
		Password: cfg.Layout.Cache.Password,
		DB:       cfg.Layout.Cache.DB,
	})
	if err != nil {
		return nil, noop, err
	}
	slog.Info("Layout cache enabled", "addr", cfg.Layout.Cache.RedisAddr, "ttl", cfg.CacheTTL())
	return layout.NewCachedDetector(det, cache, cfg.CacheTTL()), cache.Close, nil
}

// buildOrchestrator wires engine, detector and store from cfg.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, func() error, error) {
	engCfg := cfg.EngineConfig()
	eng, err := newEngine(engCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create recognition engine: %w", err)
	}
	adapter, err := recognition.NewAdapter(eng, engCfg)
	if err != nil {
		return nil, nil, err
	}

	pc, err := cfg.PipelineConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output store: %w", err)
	}

	det, closeDetector, err := newDetector(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create layout detector: %w", err)
	}

	b := pipeline.NewBuilder().
		WithAdapter(adapter).
		WithStore(store).
		WithGroupLevel(pc.GroupLevel).
		WithImageBaseURL(pc.ImageBaseURL).
		WithPageImages(pc.WritePageImages)
	if det != nil {
		b = b.WithDetector(det)
	}

	orch, err := b.Build()
	if err != nil {
		_ = closeDetector()
		return nil, nil, err
	}
	return orch, closeDetector, nil
}
