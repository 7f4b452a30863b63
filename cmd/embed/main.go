// Command embed builds evidence embeddings from a fact-check CSV, exports
// them, uploads the exports and rebuilds the evidence index.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"misinfo/features/evidence"
	"misinfo/internal/adapter/gcs"
	"misinfo/internal/adapter/gemini"
	"misinfo/internal/app"
	"misinfo/internal/config"
	"misinfo/internal/embedding"
	"misinfo/internal/logger"
)

type embedFlags struct {
	csv            string
	out            string
	limit          int
	batchSize      int
	format         string
	skipIndex      bool
	skipUpload     bool
	importMetadata bool
}

func newRootCommand() *cobra.Command {
	var f embedFlags

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Create evidence embeddings and rebuild the evidence index",
		Long: `Embed the title of every row of a fact-check CSV (title, description, link,
guid, pubDate and an optional id), write evidence_embeddings.json and
evidence_embeddings_metadata.json, upload both to BUCKET_URI and replace the
contents of the INDEX vector index.

Examples:
  embed --csv factchecks.csv --out ./exports
  embed --csv factchecks.csv --limit 1 --skip-index --format array`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := embedding.ParseFormat(f.format)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), f, format)
		},
	}

	cmd.Flags().StringVar(&f.csv, "csv", "", "fact-check CSV to embed")
	cmd.Flags().StringVar(&f.out, "out", ".", "directory for the export files")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "embed at most this many rows (0 = all)")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", embedding.DefaultBatchSize, "rows per progress log line")
	cmd.Flags().StringVar(&f.format, "format", string(embedding.FormatJSONL), "export format (jsonl or array)")
	cmd.Flags().BoolVar(&f.skipIndex, "skip-index", false, "do not overwrite the vector index")
	cmd.Flags().BoolVar(&f.skipUpload, "skip-upload", false, "do not upload exports to BUCKET_URI")
	cmd.Flags().BoolVar(&f.importMetadata, "import-metadata", false, "upsert the metadata records into the evidence table")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func run(ctx context.Context, out io.Writer, f embedFlags, format embedding.Format) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel))

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, genai.TaskTypeRetrievalDocument)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer embedder.Close()

	var opts []embedding.Option

	if cfg.BucketURI != "" && !f.skipUpload {
		store, err := gcs.NewStoreFromURI(ctx, cfg.BucketURI)
		if err != nil {
			return fmt.Errorf("failed to create bucket store: %w", err)
		}
		defer store.Close()
		opts = append(opts, embedding.WithUploader(store))
	} else {
		slog.InfoContext(ctx, "skipping upload", "bucket_uri", cfg.BucketURI)
	}

	if !f.skipIndex {
		index, err := app.NewVectorStore(cfg)
		if err != nil {
			return err
		}
		if err := index.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("weaviate schema error: %w", err)
		}
		opts = append(opts, embedding.WithIndex(index))
	}

	if f.importMetadata {
		db, err := app.OpenDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := app.Migrate(db, cfg.MigrationPath); err != nil {
			return err
		}
		opts = append(opts, embedding.WithImporter(evidence.NewPostgresRepo(db)))
	}

	res, err := embedding.New(embedder, opts...).Run(ctx, embedding.Options{
		CSVPath:   f.csv,
		OutDir:    f.out,
		Limit:     f.limit,
		BatchSize: f.batchSize,
		Format:    format,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Embedded %d rows\n", res.Rows)
	fmt.Fprintf(out, "Full export: %s\n", res.FullPath)
	fmt.Fprintf(out, "Metadata export: %s\n", res.MetadataPath)
	for _, u := range res.Uploaded {
		fmt.Fprintf(out, "Uploaded: %s\n", u)
	}
	if !f.skipIndex {
		fmt.Fprintf(out, "Index %s now holds %d records\n", cfg.Index, res.Indexed)
	}
	if f.importMetadata {
		fmt.Fprintf(out, "Imported %d metadata records\n", res.Imported)
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
