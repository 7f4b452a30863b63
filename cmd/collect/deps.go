package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"misinfo/internal/adapter/sink"
	"misinfo/internal/collector/document"
	"misinfo/internal/collector/twitter"
	"misinfo/internal/collector/web"
	"misinfo/internal/collector/youtube"
	"misinfo/internal/config"
	"misinfo/internal/logger"
	"misinfo/internal/orchestrator"
)

// deps are the collectors built from configuration. Platforms without
// credentials are left nil and reported as not configured when used.
type deps struct {
	cfg  *config.Config
	web  *web.Collector
	orch *orchestrator.Orchestrator
}

func loadDeps(ctx context.Context, sendToBackend bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel))

	backend := sink.NewClient(cfg.APIBaseURL)
	webCollector := web.New(backend)

	opts := []orchestrator.Option{
		orchestrator.WithBackend(sendToBackend),
		orchestrator.WithWeb(webCollector),
		orchestrator.WithDocuments(document.New(backend, cfg.UnidocLicenseKey)),
	}

	if cfg.YouTubeAPIKey != "" {
		videos, err := youtube.New(ctx, cfg.YouTubeAPIKey, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create youtube collector: %w", err)
		}
		opts = append(opts, orchestrator.WithYouTube(videos))
	} else {
		slog.WarnContext(ctx, "youtube collector not available", "reason", "YOUTUBE_API_KEY not set")
	}

	if cfg.TwitterBearerToken != "" {
		opts = append(opts, orchestrator.WithTwitter(twitter.New(cfg.TwitterAPIURL, cfg.TwitterBearerToken, backend)))
	} else {
		slog.WarnContext(ctx, "twitter collector not available", "reason", "TWITTER_BEARER_TOKEN not set")
	}

	return &deps{cfg: cfg, web: webCollector, orch: orchestrator.New(opts...)}, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
