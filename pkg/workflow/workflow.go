package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/events"
	"ai-sceneguide-be/pkg/generation"
	"ai-sceneguide-be/pkg/llm"
	"ai-sceneguide-be/pkg/methodology"
	"ai-sceneguide-be/pkg/prompt"

	"github.com/google/uuid"
)

const module = "WORKFLOW"

var ErrInvalidInput = errors.New("guide request is missing required fields")

// Store is the subset of the guide store the workflow writes through.
type Store interface {
	Create(ctx context.Context, guide *entity.Guide) error
	Get(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error
}

type Retriever interface {
	Query(characterName, productionType, sceneText string) []methodology.Result
}

type Assembler interface {
	Assemble(ext prompt.Extracted, docs []methodology.Result, meta prompt.Meta) (llm.Request, error)
}

type Generator interface {
	Generate(ctx context.Context, req llm.Request, preference string) (generation.Result, error)
}

// Input is everything a single guide run needs.
type Input struct {
	OwnerId            uuid.UUID
	CharacterName      string
	ProductionTitle    string
	ProductionType     string
	SceneText          string
	Confidence         string
	ExtractionMethod   string
	SecondaryRequested bool
	Provider           string
}

// Outcome is the guide as it stands when Run returns.
type Outcome struct {
	Guide *entity.Guide
	// SecondaryErr is set when the secondary pass failed. It never fails Run.
	SecondaryErr error
}

type GuideWorkflow struct {
	store     Store
	retriever Retriever
	assembler Assembler
	generator Generator
	publisher events.Publisher
	logger    logger.ILogger
}

func New(store Store, retriever Retriever, assembler Assembler, generator Generator, publisher events.Publisher, log logger.ILogger) *GuideWorkflow {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &GuideWorkflow{
		store:     store,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		publisher: publisher,
		logger:    log,
	}
}

// Run executes the primary pass and, when requested, the secondary pass.
// The guide becomes visible only once the primary content is stored. A
// secondary failure is recorded on the guide and reported in the outcome.
func (w *GuideWorkflow) Run(ctx context.Context, in Input) (*Outcome, error) {
	if in.OwnerId == uuid.Nil || strings.TrimSpace(in.CharacterName) == "" {
		return nil, ErrInvalidInput
	}

	status := entity.GuideStatusCreated
	w.transition(uuid.Nil, &status, entity.GuideStatusPrimaryGenerating)

	docs := w.retriever.Query(in.CharacterName, in.ProductionType, in.SceneText)
	req, err := w.assembler.Assemble(
		prompt.Extracted{Text: in.SceneText, Confidence: in.Confidence, Method: in.ExtractionMethod},
		docs,
		prompt.Meta{
			CharacterName:   in.CharacterName,
			ProductionTitle: in.ProductionTitle,
			ProductionType:  in.ProductionType,
			Variant:         prompt.VariantPrimary,
			ProviderHint:    in.Provider,
		},
	)
	if err != nil {
		return nil, err
	}

	result, err := w.generator.Generate(ctx, req, in.Provider)
	if err != nil {
		return nil, fmt.Errorf("primary generation: %w", err)
	}

	guide := &entity.Guide{
		OwnerId:              in.OwnerId,
		CharacterName:        in.CharacterName,
		ProductionTitle:      in.ProductionTitle,
		ProductionType:       in.ProductionType,
		SceneText:            in.SceneText,
		PrimaryHtml:          result.Text,
		SecondaryRequested:   in.SecondaryRequested,
		Degraded:             result.Degraded,
		ProviderUsed:         result.ProviderUsed,
		ExtractionMethod:     in.ExtractionMethod,
		ExtractionConfidence: in.Confidence,
		RetrievalSources:     sourceIDs(docs),
	}
	w.transition(guide.Id, &status, entity.GuideStatusPrimaryReady)
	guide.Status = status

	if err := w.store.Create(ctx, guide); err != nil {
		return nil, err
	}
	w.logger.Info(module, "Primary guide stored", map[string]interface{}{
		"guide_id":  guide.Id.String(),
		"provider":  guide.ProviderUsed,
		"degraded":  guide.Degraded,
		"sources":   len(docs),
		"secondary": guide.SecondaryRequested,
	})
	w.publish(ctx, events.GuidePrimaryReady, guide, map[string]interface{}{"degraded": guide.Degraded})

	outcome := &Outcome{Guide: guide}
	if guide.SecondaryRequested {
		outcome.SecondaryErr = w.secondary(ctx, guide, docs, in.Provider)
	}
	return outcome, nil
}

// RetrySecondary runs the secondary pass again for an existing guide. A
// guide whose secondary pass already completed is returned unchanged.
func (w *GuideWorkflow) RetrySecondary(ctx context.Context, guideId, ownerId uuid.UUID, provider string) (*Outcome, error) {
	guide, err := w.store.Get(ctx, guideId, ownerId)
	if err != nil {
		return nil, err
	}
	if guide.SecondaryCompleted {
		return &Outcome{Guide: guide}, nil
	}

	if !guide.SecondaryRequested {
		requested := true
		if err := w.store.Update(ctx, guide.Id, entity.GuidePatch{SecondaryRequested: &requested}); err != nil {
			return nil, err
		}
		guide.SecondaryRequested = true
	}

	docs := w.retriever.Query(guide.CharacterName, guide.ProductionType, guide.SceneText)
	return &Outcome{
		Guide:        guide,
		SecondaryErr: w.secondary(ctx, guide, docs, provider),
	}, nil
}

// secondary never touches the primary content. Every failure, panics
// included, ends in secondary_failed.
func (w *GuideWorkflow) secondary(ctx context.Context, guide *entity.Guide, docs []methodology.Result, provider string) (err error) {
	status := guide.Status
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("secondary pass panicked: %v", r)
		}
		if err != nil {
			w.failSecondary(ctx, guide, &status, err)
		}
	}()

	w.transition(guide.Id, &status, entity.GuideStatusSecondaryGenerating)
	if err := w.store.Update(ctx, guide.Id, entity.GuidePatch{Status: &status}); err != nil {
		return fmt.Errorf("mark secondary generating: %w", err)
	}
	guide.Status = status

	req, err := w.assembler.Assemble(
		prompt.Extracted{Text: guide.SceneText, Confidence: guide.ExtractionConfidence, Method: guide.ExtractionMethod},
		docs,
		prompt.Meta{
			CharacterName:   guide.CharacterName,
			ProductionTitle: guide.ProductionTitle,
			ProductionType:  guide.ProductionType,
			Variant:         prompt.VariantSimplified,
			PrimaryOutput:   guide.PrimaryHtml,
			ProviderHint:    provider,
		},
	)
	if err != nil {
		return fmt.Errorf("assemble secondary prompt: %w", err)
	}

	result, err := w.generator.Generate(ctx, req, provider)
	if err != nil {
		return fmt.Errorf("secondary generation: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return errors.New("secondary generation returned no content")
	}

	w.transition(guide.Id, &status, entity.GuideStatusSecondaryReady)
	html := result.Text
	completed := true
	if err := w.store.Update(ctx, guide.Id, entity.GuidePatch{
		SecondaryHtml:      &html,
		SecondaryCompleted: &completed,
		Status:             &status,
	}); err != nil {
		status = entity.GuideStatusSecondaryGenerating
		return fmt.Errorf("store secondary content: %w", err)
	}

	guide.SecondaryHtml = &html
	guide.SecondaryCompleted = true
	guide.Status = status

	w.logger.Info(module, "Secondary guide stored", map[string]interface{}{
		"guide_id": guide.Id.String(),
		"provider": result.ProviderUsed,
		"degraded": result.Degraded,
	})
	w.publish(ctx, events.GuideSecondaryReady, guide, map[string]interface{}{"degraded": result.Degraded})
	return nil
}

func (w *GuideWorkflow) failSecondary(ctx context.Context, guide *entity.Guide, status *entity.GuideStatus, cause error) {
	w.logger.Error(module, "Secondary pass failed", map[string]interface{}{
		"guide_id": guide.Id.String(),
		"error":    cause.Error(),
	})

	if *status != entity.GuideStatusSecondaryGenerating {
		*status = entity.GuideStatusSecondaryGenerating
	}
	w.transition(guide.Id, status, entity.GuideStatusSecondaryFailed)
	completed := false
	if err := w.store.Update(ctx, guide.Id, entity.GuidePatch{
		SecondaryCompleted: &completed,
		Status:             status,
	}); err != nil {
		w.logger.Error(module, "Failed to record secondary failure", map[string]interface{}{
			"guide_id": guide.Id.String(),
			"error":    err.Error(),
		})
	}
	guide.SecondaryCompleted = false
	guide.Status = *status

	w.publish(ctx, events.GuideSecondaryFailed, guide, nil)
}

func (w *GuideWorkflow) transition(guideId uuid.UUID, current *entity.GuideStatus, next entity.GuideStatus) {
	if !current.CanTransition(next) {
		w.logger.Warn(module, "Unexpected status transition", map[string]interface{}{
			"guide_id": guideId.String(),
			"from":     string(*current),
			"to":       string(next),
		})
	}
	w.logger.Debug(module, "Status transition", map[string]interface{}{
		"guide_id": guideId.String(),
		"from":     string(*current),
		"to":       string(next),
	})
	*current = next
}

func (w *GuideWorkflow) publish(ctx context.Context, eventType string, guide *entity.Guide, extra map[string]interface{}) {
	event := events.NewGuideEvent(eventType, guide.Id.String(), guide.OwnerId.String(), extra)
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.Warn(module, "Failed to publish event", map[string]interface{}{
			"event":    eventType,
			"guide_id": guide.Id.String(),
			"error":    err.Error(),
		})
	}
}

func sourceIDs(docs []methodology.Result) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Document.ID)
	}
	return ids
}
