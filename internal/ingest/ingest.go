package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// DocType is the document family an upload belongs to.
type DocType string

const (
	DocPDF     DocType = "pdf"
	DocText    DocType = "text"
	DocUnknown DocType = "unknown"
)

// DetectDocType classifies a file by extension.
func DetectDocType(path string) DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return DocPDF
	case ".docx", ".txt", ".rtf", ".odt":
		return DocText
	default:
		return DocUnknown
	}
}

// Extractor pulls per-page text out of uploaded documents.
type Extractor struct {
	Logger *logger.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{Logger: logger.New("ingest")}
}

// ExtractFile reads the document at path and returns its pages. Unknown
// extensions are an error; a PDF page that fails to parse is skipped,
// not fatal.
func (e *Extractor) ExtractFile(path string) ([]cards.PageText, error) {
	switch DetectDocType(path) {
	case DocPDF:
		return e.extractPDF(path)
	case DocText:
		return e.extractWithCat(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
}

func (e *Extractor) extractPDF(path string) ([]cards.PageText, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := f.NumPage()
	e.Logger.Debug("extracting pdf", "path", path, "pages", numPages)

	var pages []cards.PageText
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			e.Logger.Error("skipping unreadable page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		pages = append(pages, cards.PageText{
			PageNumber: i,
			Text:       content,
		})
	}
	return pages, nil
}

// extractWithCat handles .docx, .txt, .rtf and .odt. These formats have
// no page structure the extractor can see, so everything lands on one
// page.
func (e *Extractor) extractWithCat(path string) ([]cards.PageText, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("extract document text: %w", err)
	}
	return []cards.PageText{{PageNumber: 1, Text: text}}, nil
}

// protectExtract bounds GetPlainText, which can hang on malformed
// content streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errors.New("page extraction timed out")
	}
}
