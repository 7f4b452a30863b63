package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/generative-ai-go/genai"

	"misinfo/features/claims"
	"misinfo/features/content"
	"misinfo/features/evidence"
	"misinfo/features/job"
	"misinfo/features/stats"
	"misinfo/internal/adapter/gemini"
	"misinfo/internal/config"
	"misinfo/internal/metrics"
	"misinfo/internal/middleware"
	"misinfo/internal/retrieval"
	"misinfo/internal/worker"
)

const serviceName = "misinformation-collector"

// VectorStore is the evidence index as the backend sees it.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Search(ctx context.Context, vec []float32, limit int) ([]retrieval.Evidence, error)
	Count(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// Options overrides the collaborators New would otherwise build from config.
type Options struct {
	Embedder   retrieval.Embedder
	Checker    worker.Checker
	Blobs      content.BlobStore
	ClaimAudit *retrieval.AuditLog
}

type App struct {
	Handler         http.Handler
	ContentService  *content.Service
	CheckerConsumer *worker.CheckerConsumer
	Metrics         *metrics.Metrics

	port    int
	closers []io.Closer
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	logger *slog.Logger,
	opts *Options,
) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	a := &App{Metrics: metrics.New(), port: cfg.ServerPort}

	blobs := opts.Blobs
	if blobs == nil {
		var err error
		blobs, err = newBlobStore(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		if c, ok := blobs.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	// Feature: Content
	contentRepo := content.NewPostgresRepo(db)
	contentService := content.NewService(contentRepo, blobs, taskPub, a.Metrics, cfg.GCSPublicUploads)
	contentHandler := content.NewHandler(contentService, cfg.MaxUploadSizeMB)
	a.ContentService = contentService

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	jobService := job.NewService(jobRepo, taskPub, logger)
	jobHandler := job.NewHandler(jobService)

	// Feature: Evidence
	evidenceHandler := evidence.NewHandler(evidence.NewPostgresRepo(db))

	// Feature: Stats
	var index stats.EvidenceIndex
	if vecStore != nil {
		index = vecStore
	}
	statsHandler := stats.NewHandler(contentRepo, jobRepo, index)

	// Adapters: Gemini
	embedder := opts.Embedder
	if embedder == nil && cfg.GeminiAPIKey != "" {
		e, err := gemini.NewEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingModel, genai.TaskTypeRetrievalQuery)
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		a.closers = append(a.closers, e)
		embedder = e
	}

	checker := opts.Checker
	if checker == nil && cfg.GeminiAPIKey != "" {
		c, err := gemini.NewChecker(context.Background(), cfg.GeminiAPIKey, cfg.CheckerModel)
		if err != nil {
			return nil, fmt.Errorf("gemini checker: %w", err)
		}
		a.closers = append(a.closers, c)
		checker = c
	}
	if checker != nil {
		a.CheckerConsumer = worker.NewCheckerConsumer(checker, contentRepo, jobRepo, a.Metrics, cfg.CheckerMaxAttempts)
	}

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.CorrelationHeader)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /collect", middleware.CorrelationID(enableCORS(contentHandler.Collect)))
	mux.Handle("POST /upload", middleware.CorrelationID(enableCORS(contentHandler.Upload)))
	mux.Handle("GET /content/{id}", middleware.CorrelationID(enableCORS(contentHandler.Get)))

	mux.Handle("GET /jobs/failed", middleware.CorrelationID(enableCORS(jobHandler.List)))
	mux.Handle("POST /jobs/{id}/retry", middleware.CorrelationID(enableCORS(jobHandler.Retry)))

	mux.Handle("GET /evidence/{id}", middleware.CorrelationID(enableCORS(evidenceHandler.Get)))
	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	// Feature: Claims
	if embedder != nil && vecStore != nil {
		audit := opts.ClaimAudit
		if audit == nil {
			var err error
			audit, err = retrieval.OpenAuditLog(cfg.ClaimLogPath)
			if err != nil {
				slog.Warn("failed to open claim audit log, falling back to stdout", "path", cfg.ClaimLogPath, "error", err)
				audit = retrieval.NewAuditLog(os.Stdout)
			} else {
				a.closers = append(a.closers, audit)
			}
		}
		claimsHandler := claims.NewHandler(retrieval.NewService(embedder, vecStore, audit))
		mux.Handle("POST /claims/verify", middleware.CorrelationID(enableCORS(claimsHandler.Verify)))
	} else {
		slog.Warn("claim verification disabled, no embedder or evidence index configured")
	}

	mux.HandleFunc("OPTIONS /", enableCORS(func(w http.ResponseWriter, r *http.Request) {}))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"` + serviceName + `"}`))
	})
	mux.Handle("GET /metrics", a.Metrics.Handler())

	a.Handler = a.Metrics.Middleware(mux)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	port := a.port
	if port == 0 {
		port = 8081
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the model and storage clients New created.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
