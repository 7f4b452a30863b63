package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"misinfo/internal/app"
	"misinfo/internal/config"
	"misinfo/internal/logger"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 2. Infrastructure
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	// 3. Application
	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, log, nil)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	defer application.Close()

	// 4. Worker (Checker Consumer)
	if cfg.EnableCheckerWorker {
		if application.CheckerConsumer == nil {
			slog.Warn("checker worker enabled but no GEMINI_API_KEY set, skipping")
		} else {
			nsqCfg := nsq.NewConfig()
			nsqCfg.MaxAttempts = cfg.CheckerMaxAttempts
			consumer, err := nsq.NewConsumer(config.TopicContentCollected, config.ChannelChecker, nsqCfg)
			if err != nil {
				return fmt.Errorf("nsq consumer: %w", err)
			}
			consumer.AddHandler(application.CheckerConsumer)
			if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
				slog.Error("failed to connect to NSQLookupd", "error", err)
			} else {
				slog.Info("NSQ checker consumer connected", "topic", config.TopicContentCollected)
			}
			defer consumer.Stop()
		}
	}

	if !cfg.EnableAPI {
		slog.Info("API disabled, running workers only")
		<-ctx.Done()
		return nil
	}

	// 5. Start Server
	return application.Run(ctx)
}
