package extraction

import (
	"context"
	"errors"
	"io"
	"testing"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeFiles struct {
	uploaded []byte
	deleted  []string
	upErr    error
}

func (f *fakeFiles) Upload(_ context.Context, r io.Reader, cfg *genai.UploadFileConfig) (*genai.File, error) {
	if f.upErr != nil {
		return nil, f.upErr
	}
	data, _ := io.ReadAll(r)
	f.uploaded = data
	return &genai.File{Name: "files/abc123", URI: "https://example.test/files/abc123", MIMEType: cfg.MIMEType}, nil
}

func (f *fakeFiles) Delete(_ context.Context, name string, _ *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error) {
	f.deleted = append(f.deleted, name)
	return &genai.DeleteFileResponse{}, nil
}

type fakeModel struct {
	text string
	err  error
}

func (m *fakeModel) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(m.text, genai.RoleModel),
		}},
	}, nil
}

func newTestOCR(files *fakeFiles, model *fakeModel) *GeminiOCRStrategy {
	return &GeminiOCRStrategy{files: files, models: model, model: "test-model", logger: logger.NewNop()}
}

func TestGeminiOCR_DeletesFileOnSuccess(t *testing.T) {
	files := &fakeFiles{}
	s := newTestOCR(files, &fakeModel{text: "ALEX: Hello."})

	text, err := s.Extract(context.Background(), Document{Data: []byte("img"), MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "ALEX: Hello.", text)
	assert.Equal(t, []byte("img"), files.uploaded)
	assert.Equal(t, []string{"files/abc123"}, files.deleted)
}

func TestGeminiOCR_DeletesFileOnFailure(t *testing.T) {
	files := &fakeFiles{}
	s := newTestOCR(files, &fakeModel{err: genai.APIError{Code: 429, Message: "quota"}})

	_, err := s.Extract(context.Background(), Document{Data: []byte("img"), MimeType: "image/png"})
	assert.ErrorIs(t, err, llm.ErrQuota)
	assert.Equal(t, []string{"files/abc123"}, files.deleted)
}

func TestGeminiOCR_UploadFailureDeletesNothing(t *testing.T) {
	files := &fakeFiles{upErr: errors.New("network down")}
	s := newTestOCR(files, &fakeModel{})

	_, err := s.Extract(context.Background(), Document{Data: []byte("img"), MimeType: "image/png"})
	assert.ErrorIs(t, err, llm.ErrTransient)
	assert.Empty(t, files.deleted)
}

func TestGeminiOCR_Supports(t *testing.T) {
	s := newTestOCR(&fakeFiles{}, &fakeModel{})
	assert.True(t, s.Supports("application/pdf"))
	assert.True(t, s.Supports("image/jpeg"))
	assert.False(t, s.Supports("text/plain"))
}
