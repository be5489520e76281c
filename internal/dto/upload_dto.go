package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadResponse struct {
	UploadId         uuid.UUID `json:"upload_id"`
	Filename         string    `json:"filename"`
	MimeType         string    `json:"mime_type"`
	ExtractionMethod string    `json:"extraction_method"`
	Confidence       string    `json:"confidence"`
	WordCount        int       `json:"word_count"`
	GatePassed       bool      `json:"gate_passed"`
	Preview          string    `json:"preview"`
	CreatedAt        time.Time `json:"created_at"`
}
