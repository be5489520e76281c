package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Guide struct {
	Id                   uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	OwnerId              uuid.UUID                   `gorm:"type:uuid;not null;index"`
	CharacterName        string                      `gorm:"type:varchar(255);not null"`
	ProductionTitle      string                      `gorm:"type:varchar(255);not null"`
	ProductionType       string                      `gorm:"type:varchar(100)"`
	SceneText            string                      `gorm:"type:text"`
	PrimaryHtml          string                      `gorm:"type:text;not null"`
	SecondaryRequested   bool                        `gorm:"not null;default:false"`
	SecondaryHtml        *string                     `gorm:"type:text"`
	SecondaryCompleted   bool                        `gorm:"not null;default:false"`
	Status               string                      `gorm:"type:varchar(32);not null;index"`
	Degraded             bool                        `gorm:"not null;default:false"`
	ProviderUsed         string                      `gorm:"type:varchar(64)"`
	ExtractionMethod     string                      `gorm:"type:varchar(64)"`
	ExtractionConfidence string                      `gorm:"type:varchar(16)"`
	RetrievalSources     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	IsFavorite           bool                        `gorm:"not null;default:false"`
	IsPublic             bool                        `gorm:"not null;default:false"`
	CreatedAt            time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt            time.Time                   `gorm:"autoUpdateTime"`
}

func (Guide) TableName() string {
	return "guides"
}
