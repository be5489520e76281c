package extraction

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

const MethodPlainText = "plain-text"

// PlainTextStrategy decodes text uploads as UTF-8.
type PlainTextStrategy struct{}

func NewPlainTextStrategy() *PlainTextStrategy {
	return &PlainTextStrategy{}
}

func (s *PlainTextStrategy) Name() string {
	return MethodPlainText
}

func (s *PlainTextStrategy) Supports(mimeType string) bool {
	return strings.HasPrefix(baseMime(mimeType), "text/")
}

func (s *PlainTextStrategy) Extract(_ context.Context, doc Document) (string, error) {
	if !utf8.Valid(doc.Data) {
		return "", errors.New("document is not valid utf-8")
	}
	text := strings.TrimPrefix(string(doc.Data), "\ufeff")
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

// baseMime strips parameters such as "; charset=utf-8".
func baseMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func isPDF(mimeType string) bool {
	return baseMime(mimeType) == "application/pdf"
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(baseMime(mimeType), "image/")
}
