package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/llm/gemini"

	"google.golang.org/genai"
)

const (
	MethodGeminiOCR = "gemini-vision-ocr"

	defaultOCRModel = "gemini-2.5-flash"

	ocrPrompt = "Transcribe all text in this document exactly as written, preserving line breaks, " +
		"character names and stage directions. Output only the transcription."
)

type fileStore interface {
	Upload(ctx context.Context, r io.Reader, config *genai.UploadFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOCRStrategy uploads the document to the Gemini Files API and asks a
// vision model for a transcription. The uploaded file is deleted on every
// exit path.
type GeminiOCRStrategy struct {
	files  fileStore
	models contentModel
	model  string
	logger logger.ILogger
}

func NewGeminiOCRStrategy(ctx context.Context, apiKey, model string, log logger.ILogger) (*GeminiOCRStrategy, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini ocr: api key required")
	}
	if model == "" {
		model = defaultOCRModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiOCRStrategy{
		files:  client.Files,
		models: client.Models,
		model:  model,
		logger: log,
	}, nil
}

func (s *GeminiOCRStrategy) Name() string {
	return MethodGeminiOCR
}

func (s *GeminiOCRStrategy) Supports(mimeType string) bool {
	return isPDF(mimeType) || isImage(mimeType)
}

func (s *GeminiOCRStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	file, err := s.files.Upload(ctx, bytes.NewReader(doc.Data), &genai.UploadFileConfig{
		MIMEType:    baseMime(doc.MimeType),
		DisplayName: doc.Filename,
	})
	if err != nil {
		return "", gemini.Classify(MethodGeminiOCR, err)
	}
	defer s.release(file.Name)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ocrPrompt),
			genai.NewPartFromURI(file.URI, file.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := s.models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", gemini.Classify(MethodGeminiOCR, err)
	}
	if resp == nil {
		return "", errors.New("gemini ocr: nil response")
	}
	return resp.Text(), nil
}

// release deletes the uploaded file with a context that outlives the request.
func (s *GeminiOCRStrategy) release(name string) {
	if name == "" {
		return
	}
	if _, err := s.files.Delete(context.Background(), name, nil); err != nil {
		s.logger.Warn(module, "Failed to delete uploaded OCR file", map[string]interface{}{
			"file":  name,
			"error": err.Error(),
		})
	}
}
