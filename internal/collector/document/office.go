package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pdfcpuapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/unidoc/unioffice/document"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

func processPDF(path string) (*record.Record, error) {
	f, err := os.Open(path) // #nosec G304 -- path chosen by the operator running the CLI
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTCONTENT
	pdf, err := pdfcpuapi.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, err
	}

	text, err := extractPDFText(pdf)
	if err != nil {
		return nil, err
	}

	rec := record.New("", record.TypePDFDocument, text)
	rec.Set("pages", pdf.PageCount)
	rec.Set("mime_type", mimePDF)
	return rec, nil
}

// extractPDFText decodes the painted text of every page, in page order.
func extractPDFText(pdf *model.Context) (string, error) {
	var pages []string
	for nr := 1; nr <= pdf.PageCount; nr++ {
		r, err := pdfcpu.ExtractPageContent(pdf, nr)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", nr, err)
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", nr, err)
		}
		if text := contentText(stream); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

func processDOCX(path string) (*record.Record, error) {
	doc, err := document.Open(path)
	if err != nil {
		if strings.Contains(err.Error(), "license required") {
			return nil, fmt.Errorf("word documents need UNIDOC_LICENSE_API_KEY: %w", errors.Join(collector.ErrNotConfigured, err))
		}
		return nil, err
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	var sb strings.Builder
	for _, p := range paragraphs {
		for _, run := range p.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}

	rec := record.New("", record.TypeWordDocument, strings.TrimSpace(sb.String()))
	rec.Set("paragraphs", len(paragraphs))
	rec.Set("mime_type", mimeDOCX)
	return rec, nil
}
