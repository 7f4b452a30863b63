// Package document turns local files into Content Records, dispatching on the
// MIME type sniffed from the file's content.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/unidoc/unioffice/common/license"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

const (
	SourceFile  = "file_upload"
	SourceBatch = "batch_upload"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeText = "text/plain"
)

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindDOCX
	kindDOC
	kindText
	kindImage
	kindVideo
)

var kindByMIME = map[string]kind{
	mimePDF:           kindPDF,
	mimeDOCX:          kindDOCX,
	mimeDOC:           kindDOC,
	mimeText:          kindText,
	"image/jpeg":      kindImage,
	"image/png":       kindImage,
	"image/gif":       kindImage,
	"video/mp4":       kindVideo,
	"video/x-msvideo": kindVideo,
	"video/quicktime": kindVideo,
}

type Processor struct {
	sink collector.Sink
}

// New returns a processor. A non-empty licenseKey activates the metered
// office-document license needed to open .docx files.
func New(sink collector.Sink, licenseKey string) *Processor {
	if licenseKey != "" {
		if err := license.SetMeteredKey(licenseKey); err != nil {
			slog.Warn("failed to activate office document license", "error", err)
		}
	}
	return &Processor{sink: sink}
}

// ProcessFile reads one file into a record. Unknown types still produce a
// record describing the file but are never sent to the backend.
func (p *Processor) ProcessFile(ctx context.Context, path, source string, sendToBackend bool) (*record.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.ErrorContext(ctx, "file not found", "path", path)
			return nil, fmt.Errorf("%s: %w", path, collector.ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}

	var rec *record.Record
	switch k := classify(mt); k {
	case kindPDF:
		rec, err = processPDF(path)
	case kindDOCX:
		rec, err = processDOCX(path)
	case kindDOC:
		slog.WarnContext(ctx, "legacy .doc files are read as text", "path", path)
		rec, err = processText(path)
	case kindText:
		rec, err = processText(path)
	case kindImage:
		rec, err = processImage(path)
	case kindVideo:
		rec, err = processVideo(path, mt.String())
	default:
		slog.WarnContext(ctx, "unsupported file type", "path", path, "mime_type", mt.String())
		rec := unknownFile(path, mt.String())
		decorate(rec, path, info.Size(), source)
		return rec, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "error processing file", "path", path, "error", err)
		return nil, fmt.Errorf("process %s: %w", path, err)
	}

	decorate(rec, path, info.Size(), source)
	if sendToBackend {
		collector.Push(ctx, p.sink, rec)
	}
	return rec, nil
}

// ProcessDirectory walks dir recursively and returns the records of every
// file that could be processed.
func (p *Processor) ProcessDirectory(ctx context.Context, dir, source string, sendToBackend bool) ([]*record.Record, error) {
	if _, err := os.Stat(dir); err != nil {
		slog.ErrorContext(ctx, "directory not found", "path", dir)
		return nil, fmt.Errorf("%s: %w", dir, collector.ErrNotFound)
	}

	var results []*record.Record
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		slog.InfoContext(ctx, "processing file", "path", path)
		rec, err := p.ProcessFile(ctx, path, source, sendToBackend)
		if err != nil {
			return nil
		}
		results = append(results, rec)
		return nil
	})

	slog.InfoContext(ctx, "batch processing complete", "path", dir, "processed", len(results))
	return results, err
}

// classify walks up the MIME hierarchy so that e.g. text/csv lands on text/plain.
func classify(mt *mimetype.MIME) kind {
	for m := mt; m != nil; m = m.Parent() {
		for name, k := range kindByMIME {
			if m.Is(name) {
				return k
			}
		}
	}
	return kindUnknown
}

func decorate(rec *record.Record, path string, size int64, source string) {
	rec.Source = source
	rec.Set("filename", filepath.Base(path))
	rec.Set("file_size", size)
	rec.Set("file_path", path)
}

func processText(path string) (*record.Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path chosen by the operator running the CLI
	if err != nil {
		return nil, err
	}
	rec := record.New("", record.TypeTextDocument, strings.ToValidUTF8(string(data), "�"))
	rec.Set("encoding", "utf-8")
	rec.Set("mime_type", mimeText)
	return rec, nil
}

func unknownFile(path, mimeType string) *record.Record {
	if mimeType == "" {
		mimeType = "unknown"
	}
	rec := record.New("", record.TypeUnknownFile, "Unknown file type: "+filepath.Base(path))
	rec.Set("file_extension", filepath.Ext(path))
	rec.Set("mime_type", mimeType)
	return rec
}
