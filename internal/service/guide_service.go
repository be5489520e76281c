package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-sceneguide-be/internal/dto"
	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/extraction"
	"ai-sceneguide-be/pkg/lock"
	"ai-sceneguide-be/pkg/workflow"

	"github.com/google/uuid"
)

const (
	MethodRawText = "raw-text"

	DefaultGenerationLockTTL = 10 * time.Minute
)

type IGuideService interface {
	Generate(ctx context.Context, ownerId uuid.UUID, req *dto.GenerateGuideRequest) (*dto.GuideResponse, error)
	Show(ctx context.Context, ownerId, id uuid.UUID) (*dto.GuideResponse, error)
	GetAll(ctx context.Context, ownerId uuid.UUID) ([]*dto.GuideSummaryResponse, error)
	UpdateFlags(ctx context.Context, ownerId, id uuid.UUID, req *dto.UpdateGuideFlagsRequest) (*dto.GuideResponse, error)
	RetrySecondary(ctx context.Context, ownerId, id uuid.UUID, provider string) (*dto.GuideResponse, error)
}

type guideRunner interface {
	Run(ctx context.Context, in workflow.Input) (*workflow.Outcome, error)
	RetrySecondary(ctx context.Context, guideId, ownerId uuid.UUID, provider string) (*workflow.Outcome, error)
}

type guideReader interface {
	Get(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error)
	List(ctx context.Context, ownerId uuid.UUID) ([]*entity.Guide, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error
}

type guideService struct {
	workflow guideRunner
	store    guideReader
	sessions uploadSessionStore
	locker   lock.Locker
	lockTTL  time.Duration
	logger   logger.ILogger
}

func NewGuideService(
	runner guideRunner,
	store guideReader,
	sessions uploadSessionStore,
	locker lock.Locker,
	lockTTL time.Duration,
	log logger.ILogger,
) IGuideService {
	if lockTTL <= 0 {
		lockTTL = DefaultGenerationLockTTL
	}
	return &guideService{
		workflow: runner,
		store:    store,
		sessions: sessions,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   log,
	}
}

type sceneSource struct {
	text       string
	confidence string
	method     string
	lockKey    string
}

func (s *guideService) resolveScene(ownerId uuid.UUID, req *dto.GenerateGuideRequest) (*sceneSource, error) {
	if req.UploadId != "" {
		uploadId, err := uuid.Parse(req.UploadId)
		if err != nil {
			return nil, ErrUploadNotFound
		}
		session, ok := s.sessions.Get(uploadId)
		if !ok || session.OwnerId != ownerId {
			return nil, ErrUploadNotFound
		}
		return &sceneSource{
			text:       session.Text,
			confidence: session.Confidence,
			method:     session.ExtractionMethod,
			lockKey:    "upload:" + uploadId.String(),
		}, nil
	}

	text := strings.TrimSpace(req.RawText)
	return &sceneSource{
		text:       text,
		confidence: string(extraction.DefaultConfidencePolicy.Classify(extraction.CountWords(text))),
		method:     MethodRawText,
		lockKey:    lock.TextKey(ownerId.String(), text),
	}, nil
}

func (s *guideService) acquire(ctx context.Context, key string) (func(), error) {
	release, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrGenerationInProgress
		}
		return nil, err
	}
	return release, nil
}

// Generate runs the whole workflow. The run is detached from the request
// context so a client disconnect does not abandon a half-written guide.
func (s *guideService) Generate(ctx context.Context, ownerId uuid.UUID, req *dto.GenerateGuideRequest) (*dto.GuideResponse, error) {
	source, err := s.resolveScene(ownerId, req)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, source.lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	outcome, err := s.workflow.Run(context.WithoutCancel(ctx), workflow.Input{
		OwnerId:            ownerId,
		CharacterName:      strings.TrimSpace(req.CharacterName),
		ProductionTitle:    strings.TrimSpace(req.ProductionTitle),
		ProductionType:     strings.TrimSpace(req.ProductionType),
		SceneText:          source.text,
		Confidence:         source.confidence,
		ExtractionMethod:   source.method,
		SecondaryRequested: req.SecondaryRequested,
		Provider:           req.Provider,
	})
	if err != nil {
		return nil, err
	}

	if outcome.SecondaryErr != nil {
		s.logger.Warn("GUIDE", "Guide returned without secondary content", map[string]interface{}{
			"guide_id": outcome.Guide.Id.String(),
		})
	}
	return toGuideResponse(outcome.Guide), nil
}

func (s *guideService) Show(ctx context.Context, ownerId, id uuid.UUID) (*dto.GuideResponse, error) {
	guide, err := s.store.Get(ctx, id, ownerId)
	if err != nil {
		return nil, err
	}
	return toGuideResponse(guide), nil
}

func (s *guideService) GetAll(ctx context.Context, ownerId uuid.UUID) ([]*dto.GuideSummaryResponse, error) {
	guides, err := s.store.List(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GuideSummaryResponse, 0, len(guides))
	for _, g := range guides {
		res = append(res, &dto.GuideSummaryResponse{
			Id:                 g.Id,
			CharacterName:      g.CharacterName,
			ProductionTitle:    g.ProductionTitle,
			Status:             string(g.Status),
			SecondaryCompleted: g.SecondaryCompleted,
			Degraded:           g.Degraded,
			IsFavorite:         g.IsFavorite,
			IsPublic:           g.IsPublic,
			CreatedAt:          g.CreatedAt,
		})
	}
	return res, nil
}

func (s *guideService) UpdateFlags(ctx context.Context, ownerId, id uuid.UUID, req *dto.UpdateGuideFlagsRequest) (*dto.GuideResponse, error) {
	// Ownership check before the write; Update itself is keyed by id only.
	if _, err := s.store.Get(ctx, id, ownerId); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, id, entity.GuidePatch{
		IsFavorite: req.IsFavorite,
		IsPublic:   req.IsPublic,
	}); err != nil {
		return nil, err
	}
	return s.Show(ctx, ownerId, id)
}

func (s *guideService) RetrySecondary(ctx context.Context, ownerId, id uuid.UUID, provider string) (*dto.GuideResponse, error) {
	release, err := s.acquire(ctx, "guide:"+id.String())
	if err != nil {
		return nil, err
	}
	defer release()

	outcome, err := s.workflow.RetrySecondary(context.WithoutCancel(ctx), id, ownerId, provider)
	if err != nil {
		return nil, err
	}
	return toGuideResponse(outcome.Guide), nil
}

func toGuideResponse(g *entity.Guide) *dto.GuideResponse {
	sources := g.RetrievalSources
	if sources == nil {
		sources = []string{}
	}
	return &dto.GuideResponse{
		Id:                   g.Id,
		CharacterName:        g.CharacterName,
		ProductionTitle:      g.ProductionTitle,
		ProductionType:       g.ProductionType,
		PrimaryHtml:          g.PrimaryHtml,
		SecondaryRequested:   g.SecondaryRequested,
		SecondaryCompleted:   g.SecondaryCompleted,
		SecondaryHtml:        g.SecondaryHtml,
		Status:               string(g.Status),
		Degraded:             g.Degraded,
		ProviderUsed:         g.ProviderUsed,
		ExtractionMethod:     g.ExtractionMethod,
		ExtractionConfidence: g.ExtractionConfidence,
		RetrievalSources:     sources,
		IsFavorite:           g.IsFavorite,
		IsPublic:             g.IsPublic,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            g.UpdatedAt,
	}
}
