package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateGuideRequest struct {
	UploadId           string `json:"upload_id" validate:"omitempty,uuid"`
	RawText            string `json:"raw_text" validate:"required_without=UploadId,max=60000"`
	CharacterName      string `json:"character_name" validate:"required,max=120"`
	ProductionTitle    string `json:"production_title" validate:"max=200"`
	ProductionType     string `json:"production_type" validate:"max=120"`
	SecondaryRequested bool   `json:"secondary_requested"`
	Provider           string `json:"provider" validate:"omitempty,oneof=anthropic openai gemini ollama huggingface"`
}

type RetrySecondaryRequest struct {
	Provider string `json:"provider" validate:"omitempty,oneof=anthropic openai gemini ollama huggingface"`
}

type UpdateGuideFlagsRequest struct {
	IsFavorite *bool `json:"is_favorite"`
	IsPublic   *bool `json:"is_public"`
}

type GuideResponse struct {
	Id                   uuid.UUID  `json:"guide_id"`
	CharacterName        string     `json:"character_name"`
	ProductionTitle      string     `json:"production_title"`
	ProductionType       string     `json:"production_type"`
	PrimaryHtml          string     `json:"primary_html"`
	SecondaryRequested   bool       `json:"secondary_requested"`
	SecondaryCompleted   bool       `json:"secondary_completed"`
	SecondaryHtml        *string    `json:"secondary_html,omitempty"`
	Status               string     `json:"status"`
	Degraded             bool       `json:"degraded"`
	ProviderUsed         string     `json:"provider_used"`
	ExtractionMethod     string     `json:"extraction_method"`
	ExtractionConfidence string     `json:"extraction_confidence,omitempty"`
	RetrievalSources     []string   `json:"retrieval_sources"`
	IsFavorite           bool       `json:"is_favorite"`
	IsPublic             bool       `json:"is_public"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

type GuideSummaryResponse struct {
	Id                 uuid.UUID `json:"guide_id"`
	CharacterName      string    `json:"character_name"`
	ProductionTitle    string    `json:"production_title"`
	Status             string    `json:"status"`
	SecondaryCompleted bool      `json:"secondary_completed"`
	Degraded           bool      `json:"degraded"`
	IsFavorite         bool      `json:"is_favorite"`
	IsPublic           bool      `json:"is_public"`
	CreatedAt          time.Time `json:"created_at"`
}

type HealthResponse struct {
	Status          string           `json:"status"`
	StorageBackend  string           `json:"storage_backend"`
	StorageHealthy  bool             `json:"storage_healthy"`
	Providers       []string         `json:"providers"`
	Extractors      []string         `json:"extractors"`
	CorpusDocuments int              `json:"corpus_documents"`
	Events          map[string]int64 `json:"events"`
}
