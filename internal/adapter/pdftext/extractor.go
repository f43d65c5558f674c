package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"quizlet/internal/domain"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extractor implements domain.TextExtractor using github.com/ledongthuc/pdf.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new PDF text extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract reads the whole document from memory and concatenates the text of
// every page that yields any. Pages without text (scanned images, broken
// content streams) are skipped; only an unreadable container is an error.
func (e *Extractor) Extract(ctx context.Context, document []byte) (*domain.ExtractionResult, error) {
	if len(document) == 0 {
		return nil, domain.NewDocumentFormatError(errors.New("document is empty"))
	}

	reader, numPages, err := openReader(document)
	if err != nil {
		e.logger.Warn("Failed to open PDF", zap.Int("size_bytes", len(document)), zap.Error(err))
		return nil, domain.NewDocumentFormatError(err)
	}

	result := &domain.ExtractionResult{PageCount: numPages}
	var text strings.Builder

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := pageText(reader, pageNum)
		if err != nil {
			e.logger.Debug("Skipping page that failed to extract",
				zap.Int("page", pageNum),
				zap.Error(err))
			result.SkippedPages = append(result.SkippedPages, pageNum)
			continue
		}
		if content == "" {
			e.logger.Debug("Skipping page without text", zap.Int("page", pageNum))
			result.SkippedPages = append(result.SkippedPages, pageNum)
			continue
		}

		text.WriteString(content)
	}

	result.Text = text.String()

	e.logger.Info("Extracted text from PDF",
		zap.Int("pages", numPages),
		zap.Int("skipped_pages", len(result.SkippedPages)),
		zap.Int("chars", len(result.Text)))

	return result, nil
}

// openReader parses the container. The library panics on some malformed
// inputs, so those are turned into errors here.
func openReader(document []byte) (r *pdf.Reader, numPages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, numPages, err = nil, 0, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r, r.NumPage(), nil
}

func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed page content: %v", rec)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", errors.New("page object is missing")
	}
	return page.GetPlainText(nil)
}

// Static assertion to ensure Extractor implements TextExtractor
var _ domain.TextExtractor = (*Extractor)(nil)
