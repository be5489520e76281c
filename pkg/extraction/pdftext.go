package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

const MethodPDFTextLayer = "pdf-text-layer"

// PDFTextStrategy reads the embedded text layer of a PDF. Scanned pages have
// no text layer and produce little or nothing, which the gate then rejects.
type PDFTextStrategy struct{}

func NewPDFTextStrategy() *PDFTextStrategy {
	return &PDFTextStrategy{}
}

func (s *PDFTextStrategy) Name() string {
	return MethodPDFTextLayer
}

func (s *PDFTextStrategy) Supports(mimeType string) bool {
	return isPDF(mimeType)
}

func (s *PDFTextStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text layer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text layer: %w", err)
	}
	return buf.String(), nil
}
