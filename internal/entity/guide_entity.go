package entity

import (
	"time"

	"github.com/google/uuid"
)

type GuideStatus string

const (
	GuideStatusCreated             GuideStatus = "created"
	GuideStatusPrimaryGenerating   GuideStatus = "primary_generating"
	GuideStatusPrimaryReady        GuideStatus = "primary_ready"
	GuideStatusSecondaryGenerating GuideStatus = "secondary_generating"
	GuideStatusSecondaryReady      GuideStatus = "secondary_ready"
	GuideStatusSecondaryFailed     GuideStatus = "secondary_failed"
)

var guideTransitions = map[GuideStatus][]GuideStatus{
	GuideStatusCreated:             {GuideStatusPrimaryGenerating},
	GuideStatusPrimaryGenerating:   {GuideStatusPrimaryReady},
	GuideStatusPrimaryReady:        {GuideStatusSecondaryGenerating},
	GuideStatusSecondaryGenerating: {GuideStatusSecondaryGenerating, GuideStatusSecondaryReady, GuideStatusSecondaryFailed},
	GuideStatusSecondaryFailed:     {GuideStatusSecondaryGenerating},
}

// CanTransition reports whether a guide may move from s to next. A guide
// left in secondary_generating by a crashed process may be resumed.
func (s GuideStatus) CanTransition(next GuideStatus) bool {
	for _, allowed := range guideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Guide struct {
	Id                   uuid.UUID
	OwnerId              uuid.UUID
	CharacterName        string
	ProductionTitle      string
	ProductionType       string
	SceneText            string
	PrimaryHtml          string
	SecondaryRequested   bool
	SecondaryHtml        *string
	SecondaryCompleted   bool
	Status               GuideStatus
	Degraded             bool
	ProviderUsed         string
	ExtractionMethod     string
	ExtractionConfidence string
	RetrievalSources     []string
	IsFavorite           bool
	IsPublic             bool
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// GuidePatch lists the mutable fields of a guide. Nil fields are left as is.
type GuidePatch struct {
	SecondaryRequested *bool
	SecondaryHtml      *string
	SecondaryCompleted *bool
	Status             *GuideStatus
	IsFavorite         *bool
	IsPublic           *bool
}

func (p GuidePatch) IsEmpty() bool {
	return p.SecondaryRequested == nil && p.SecondaryHtml == nil && p.SecondaryCompleted == nil &&
		p.Status == nil && p.IsFavorite == nil && p.IsPublic == nil
}

// Apply writes the non-nil fields of p onto g.
func (p GuidePatch) Apply(g *Guide) {
	if p.SecondaryRequested != nil {
		g.SecondaryRequested = *p.SecondaryRequested
	}
	if p.SecondaryHtml != nil {
		html := *p.SecondaryHtml
		g.SecondaryHtml = &html
	}
	if p.SecondaryCompleted != nil {
		g.SecondaryCompleted = *p.SecondaryCompleted
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.IsFavorite != nil {
		g.IsFavorite = *p.IsFavorite
	}
	if p.IsPublic != nil {
		g.IsPublic = *p.IsPublic
	}
}
