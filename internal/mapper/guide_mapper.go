package mapper

import (
	"time"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/model"
)

type GuideMapper struct{}

func NewGuideMapper() *GuideMapper {
	return &GuideMapper{}
}

func (m *GuideMapper) ToEntity(g *model.Guide) *entity.Guide {
	if g == nil {
		return nil
	}

	var updatedAt *time.Time
	if !g.UpdatedAt.IsZero() {
		t := g.UpdatedAt
		updatedAt = &t
	}

	return &entity.Guide{
		Id:                   g.Id,
		OwnerId:              g.OwnerId,
		CharacterName:        g.CharacterName,
		ProductionTitle:      g.ProductionTitle,
		ProductionType:       g.ProductionType,
		SceneText:            g.SceneText,
		PrimaryHtml:          g.PrimaryHtml,
		SecondaryRequested:   g.SecondaryRequested,
		SecondaryHtml:        g.SecondaryHtml,
		SecondaryCompleted:   g.SecondaryCompleted,
		Status:               entity.GuideStatus(g.Status),
		Degraded:             g.Degraded,
		ProviderUsed:         g.ProviderUsed,
		ExtractionMethod:     g.ExtractionMethod,
		ExtractionConfidence: g.ExtractionConfidence,
		RetrievalSources:     []string(g.RetrievalSources),
		IsFavorite:           g.IsFavorite,
		IsPublic:             g.IsPublic,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *GuideMapper) ToModel(g *entity.Guide) *model.Guide {
	if g == nil {
		return nil
	}

	var updatedAt time.Time
	if g.UpdatedAt != nil {
		updatedAt = *g.UpdatedAt
	}

	return &model.Guide{
		Id:                   g.Id,
		OwnerId:              g.OwnerId,
		CharacterName:        g.CharacterName,
		ProductionTitle:      g.ProductionTitle,
		ProductionType:       g.ProductionType,
		SceneText:            g.SceneText,
		PrimaryHtml:          g.PrimaryHtml,
		SecondaryRequested:   g.SecondaryRequested,
		SecondaryHtml:        g.SecondaryHtml,
		SecondaryCompleted:   g.SecondaryCompleted,
		Status:               string(g.Status),
		Degraded:             g.Degraded,
		ProviderUsed:         g.ProviderUsed,
		ExtractionMethod:     g.ExtractionMethod,
		ExtractionConfidence: g.ExtractionConfidence,
		RetrievalSources:     g.RetrievalSources,
		IsFavorite:           g.IsFavorite,
		IsPublic:             g.IsPublic,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *GuideMapper) ToEntities(guides []*model.Guide) []*entity.Guide {
	entities := make([]*entity.Guide, len(guides))
	for i, g := range guides {
		entities[i] = m.ToEntity(g)
	}
	return entities
}

// ToColumns converts a patch into a column map so zero values such as false
// are written.
func (m *GuideMapper) ToColumns(p entity.GuidePatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.SecondaryRequested != nil {
		cols["secondary_requested"] = *p.SecondaryRequested
	}
	if p.SecondaryHtml != nil {
		cols["secondary_html"] = *p.SecondaryHtml
	}
	if p.SecondaryCompleted != nil {
		cols["secondary_completed"] = *p.SecondaryCompleted
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.IsFavorite != nil {
		cols["is_favorite"] = *p.IsFavorite
	}
	if p.IsPublic != nil {
		cols["is_public"] = *p.IsPublic
	}
	return cols
}
