// Package embedding turns a CSV of fact-check articles into embedding
// exports, uploads them, and rebuilds the evidence index from them.
package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"misinfo/features/evidence"
)

const DefaultBatchSize = 20

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Uploader interface {
	Put(ctx context.Context, name, contentType string, r io.Reader, public bool) (string, error)
}

// Index is a vector index that can be replaced wholesale.
type Index interface {
	Overwrite(ctx context.Context, records []Record) (int, error)
}

type MetadataImporter interface {
	UpsertBatch(ctx context.Context, items []evidence.Evidence) (int, error)
}

type Options struct {
	CSVPath   string
	OutDir    string
	Limit     int
	BatchSize int
	Format    Format
}

type Result struct {
	Rows         int      `json:"rows"`
	FullPath     string   `json:"full_path"`
	MetadataPath string   `json:"metadata_path"`
	Uploaded     []string `json:"uploaded,omitempty"`
	Indexed      int      `json:"indexed"`
	Imported     int      `json:"imported"`
}

type Pipeline struct {
	embedder Embedder
	uploader Uploader
	index    Index
	importer MetadataImporter
}

type Option func(*Pipeline)

func WithUploader(u Uploader) Option { return func(p *Pipeline) { p.uploader = u } }

func WithIndex(i Index) Option { return func(p *Pipeline) { p.index = i } }

func WithImporter(m MetadataImporter) Option { return func(p *Pipeline) { p.importer = m } }

func New(e Embedder, opts ...Option) *Pipeline {
	p := &Pipeline{embedder: e}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes every configured stage in order and stops at the first error.
// Stages without a collaborator are skipped.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	f, err := os.Open(opts.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	rows, err := ReadCSV(f, opts.Limit)
	f.Close()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "csv loaded", "path", opts.CSVPath, "rows", len(rows))

	records, err := p.Embed(ctx, rows, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	res := &Result{Rows: len(records)}
	res.FullPath, res.MetadataPath, err = WriteExports(opts.OutDir, records, opts.Format)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "exports written", "full", res.FullPath, "metadata", res.MetadataPath)

	if p.uploader != nil {
		for _, path := range []string{res.FullPath, res.MetadataPath} {
			url, err := p.upload(ctx, path)
			if err != nil {
				return nil, err
			}
			res.Uploaded = append(res.Uploaded, url)
		}
	}

	if p.index != nil {
		res.Indexed, err = p.index.Overwrite(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("overwrite index: %w", err)
		}
		slog.InfoContext(ctx, "index overwritten", "records", res.Indexed)
	}

	if p.importer != nil {
		res.Imported, err = p.importer.UpsertBatch(ctx, toEvidence(records))
		if err != nil {
			return nil, fmt.Errorf("import metadata: %w", err)
		}
		slog.InfoContext(ctx, "metadata imported", "records", res.Imported)
	}

	return res, nil
}

// Embed calls the model once per row title. batchSize only sets how often
// progress is logged.
func (p *Pipeline) Embed(ctx context.Context, rows []Row, batchSize int) ([]Record, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := p.embedder.Embed(ctx, row.Title)
		if err != nil {
			return nil, fmt.Errorf("embed row %s: %w", row.ID, err)
		}
		records = append(records, Record{ID: row.ID, Embedding: vec, Metadata: row.metadata()})

		if (i+1)%batchSize == 0 || i == len(rows)-1 {
			slog.InfoContext(ctx, "embedding progress", "done", i+1, "total", len(rows))
		}
	}
	if len(records) > 0 {
		slog.DebugContext(ctx, "embedding dimension", "dim", len(records[0].Embedding))
	}
	return records, nil
}

// WriteExports writes the full and metadata-only files into dir.
func WriteExports(dir string, records []Record, format Format) (string, string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	full := filepath.Join(dir, FullFileName)
	if err := writeFile(full, func(w io.Writer) error { return WriteRecords(w, records, format) }); err != nil {
		return "", "", err
	}
	meta := filepath.Join(dir, MetadataFileName)
	if err := writeFile(meta, func(w io.Writer) error { return WriteRecords(w, metadataOnly(records), format) }); err != nil {
		return "", "", err
	}
	return full, meta, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is built from the output dir
	if err != nil {
		return "", err
	}
	defer f.Close()

	url, err := p.uploader.Put(ctx, filepath.Base(path), "application/json", f, false)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	slog.InfoContext(ctx, "export uploaded", "url", url)
	return url, nil
}

func toEvidence(records []Record) []evidence.Evidence {
	out := make([]evidence.Evidence, len(records))
	for i, r := range records {
		out[i] = evidence.Evidence{
			ID:            r.ID,
			Text:          r.Metadata.Text,
			Description:   r.Metadata.Description,
			Source:        r.Metadata.Source,
			GUID:          r.Metadata.GUID,
			PublishedDate: r.Metadata.PublishedDate,
		}
	}
	return out
}
