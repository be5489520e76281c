package contract

import (
	"context"
	"errors"

	"ai-sceneguide-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrGuideNotFound  = errors.New("guide not found")
	ErrDuplicateGuide = errors.New("guide already exists")
)

// GuideRepository is implemented by every storage backend. Implementations
// return real booleans and ErrGuideNotFound regardless of how rows are stored.
type GuideRepository interface {
	Create(ctx context.Context, guide *entity.Guide) error
	FindByIdAndOwner(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error
	FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Guide, error)
	Ping(ctx context.Context) error
}
