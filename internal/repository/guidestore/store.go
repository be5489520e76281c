package guidestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/repository/contract"

	"github.com/google/uuid"
)

const module = "GUIDE_STORE"

var (
	ErrStorageUnavailable = errors.New("no guide storage backend is configured")
	ErrGuideNotFound      = contract.ErrGuideNotFound
	ErrInvalidPatch       = errors.New("invalid guide update")
	ErrInvalidGuide       = errors.New("invalid guide")
)

type BackendKind string

const (
	BackendPrimary   BackendKind = "primary"
	BackendSecondary BackendKind = "secondary"
)

// Backend is the storage target chosen at startup.
type Backend struct {
	Kind BackendKind
	Repo contract.GuideRepository
}

// SelectBackend picks the primary repository when it could be constructed,
// otherwise the secondary one. It is called once; callers never re-probe.
func SelectBackend(primary, secondary contract.GuideRepository) (Backend, error) {
	switch {
	case primary != nil:
		return Backend{Kind: BackendPrimary, Repo: primary}, nil
	case secondary != nil:
		return Backend{Kind: BackendSecondary, Repo: secondary}, nil
	default:
		return Backend{}, ErrStorageUnavailable
	}
}

// GuideStore exposes the same operations whichever backend answers.
type GuideStore struct {
	backend Backend
	logger  logger.ILogger
	now     func() time.Time
}

func New(backend Backend, log logger.ILogger) (*GuideStore, error) {
	if backend.Repo == nil {
		return nil, ErrStorageUnavailable
	}
	return &GuideStore{backend: backend, logger: log, now: time.Now}, nil
}

func (s *GuideStore) Kind() BackendKind {
	return s.backend.Kind
}

// Create persists a complete guide in a single write. Id and CreatedAt are
// filled in when empty.
func (s *GuideStore) Create(ctx context.Context, guide *entity.Guide) error {
	if guide.Id == uuid.Nil {
		guide.Id = uuid.New()
	}
	if guide.CreatedAt.IsZero() {
		guide.CreatedAt = s.now()
	}
	if err := validateGuide(guide); err != nil {
		return err
	}

	if err := s.backend.Repo.Create(ctx, guide); err != nil {
		s.logger.Error(module, "Failed to create guide", map[string]interface{}{
			"backend":  string(s.backend.Kind),
			"guide_id": guide.Id.String(),
			"error":    err.Error(),
		})
		return fmt.Errorf("create guide: %w", err)
	}
	return nil
}

func (s *GuideStore) Get(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error) {
	guide, err := s.backend.Repo.FindByIdAndOwner(ctx, id, ownerId)
	if err != nil {
		if errors.Is(err, contract.ErrGuideNotFound) {
			return nil, ErrGuideNotFound
		}
		return nil, fmt.Errorf("get guide: %w", err)
	}
	return guide, nil
}

// Update applies the non-nil fields of patch. A patch that would mark the
// secondary pass complete without secondary content is rejected.
func (s *GuideStore) Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	if err := s.backend.Repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, contract.ErrGuideNotFound) {
			return ErrGuideNotFound
		}
		s.logger.Error(module, "Failed to update guide", map[string]interface{}{
			"backend":  string(s.backend.Kind),
			"guide_id": id.String(),
			"error":    err.Error(),
		})
		return fmt.Errorf("update guide: %w", err)
	}
	return nil
}

// List returns the owner's guides, newest first.
func (s *GuideStore) List(ctx context.Context, ownerId uuid.UUID) ([]*entity.Guide, error) {
	guides, err := s.backend.Repo.FindAllByOwner(ctx, ownerId)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	return guides, nil
}

func (s *GuideStore) Ping(ctx context.Context) error {
	return s.backend.Repo.Ping(ctx)
}

func validateGuide(g *entity.Guide) error {
	switch {
	case g.OwnerId == uuid.Nil:
		return fmt.Errorf("%w: owner is required", ErrInvalidGuide)
	case strings.TrimSpace(g.PrimaryHtml) == "":
		return fmt.Errorf("%w: primary content is required", ErrInvalidGuide)
	case g.SecondaryCompleted && (g.SecondaryHtml == nil || strings.TrimSpace(*g.SecondaryHtml) == ""):
		return fmt.Errorf("%w: secondary marked complete without content", ErrInvalidGuide)
	case !g.SecondaryRequested && (g.SecondaryCompleted || g.SecondaryHtml != nil):
		return fmt.Errorf("%w: secondary content on a guide that did not request it", ErrInvalidGuide)
	}
	return nil
}

func validatePatch(p entity.GuidePatch) error {
	if p.SecondaryHtml != nil && strings.TrimSpace(*p.SecondaryHtml) == "" {
		return fmt.Errorf("%w: secondary content cannot be cleared", ErrInvalidPatch)
	}
	if p.SecondaryCompleted != nil && *p.SecondaryCompleted {
		if p.SecondaryHtml == nil || strings.TrimSpace(*p.SecondaryHtml) == "" {
			return fmt.Errorf("%w: secondary marked complete without content", ErrInvalidPatch)
		}
	}
	if p.SecondaryRequested != nil && !*p.SecondaryRequested {
		return fmt.Errorf("%w: secondary request cannot be withdrawn", ErrInvalidPatch)
	}
	return nil
}
