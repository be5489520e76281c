package service

import (
	"context"
	"strings"
	"time"

	"ai-sceneguide-be/internal/dto"
	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/extraction"
	"ai-sceneguide-be/pkg/generation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const previewRunes = 280

var supportedMimeTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/tiff",
	"image/webp",
	"image/gif",
	"text/plain",
}

type IUploadService interface {
	Upload(ctx context.Context, ownerId uuid.UUID, filename string, data []byte) (*dto.UploadResponse, error)
}

type documentExtractor interface {
	Extract(ctx context.Context, doc extraction.Document) (*extraction.Extraction, error)
}

type uploadSessionStore interface {
	Save(session *entity.UploadSession)
	Get(sessionId uuid.UUID) (*entity.UploadSession, bool)
}

type uploadService struct {
	extractor documentExtractor
	sessions  uploadSessionStore
	logger    logger.ILogger
}

func NewUploadService(extractor documentExtractor, sessions uploadSessionStore, log logger.ILogger) IUploadService {
	return &uploadService{
		extractor: extractor,
		sessions:  sessions,
		logger:    log,
	}
}

func (s *uploadService) Upload(ctx context.Context, ownerId uuid.UUID, filename string, data []byte) (*dto.UploadResponse, error) {
	if len(data) == 0 {
		return nil, extraction.ErrEmptyDocument
	}

	mimeType, ok := DetectMimeType(data)
	if !ok {
		s.logger.Warn("UPLOAD", "Rejected unsupported file", map[string]interface{}{
			"filename":  filename,
			"mime_type": mimeType,
		})
		return nil, ErrUnsupportedMedia
	}

	result, err := s.extractor.Extract(ctx, extraction.Document{
		Data:     data,
		MimeType: mimeType,
		Filename: filename,
	})
	if err != nil {
		return nil, err
	}

	session := &entity.UploadSession{
		Id:               uuid.New(),
		OwnerId:          ownerId,
		Filename:         filename,
		MimeType:         mimeType,
		Text:             result.Text,
		Confidence:       string(result.Confidence),
		ExtractionMethod: result.Method,
		WordCount:        result.WordCount,
		GatePassed:       result.GatePassed,
		CreatedAt:        time.Now(),
	}
	s.sessions.Save(session)

	s.logger.Info("UPLOAD", "Upload session created", map[string]interface{}{
		"upload_id":  session.Id.String(),
		"method":     session.ExtractionMethod,
		"confidence": session.Confidence,
		"words":      session.WordCount,
	})

	return &dto.UploadResponse{
		UploadId:         session.Id,
		Filename:         session.Filename,
		MimeType:         session.MimeType,
		ExtractionMethod: session.ExtractionMethod,
		Confidence:       session.Confidence,
		WordCount:        session.WordCount,
		GatePassed:       session.GatePassed,
		Preview:          generation.Excerpt(session.Text, previewRunes),
		CreatedAt:        session.CreatedAt,
	}, nil
}

// DetectMimeType sniffs the content and reports whether it is a format the
// extraction chain accepts. Parameters such as charset are dropped.
func DetectMimeType(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for _, supported := range supportedMimeTypes {
		if detected.Is(supported) {
			return supported, true
		}
	}
	return strings.Split(detected.String(), ";")[0], false
}
