package implementation

import (
	"context"
	"errors"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/mapper"
	"ai-sceneguide-be/internal/model"
	"ai-sceneguide-be/internal/repository/contract"
	"ai-sceneguide-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type GuideRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GuideMapper
}

func NewGuideRepository(db *gorm.DB) contract.GuideRepository {
	return &GuideRepositoryImpl{
		db:     db,
		mapper: mapper.NewGuideMapper(),
	}
}

func (r *GuideRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GuideRepositoryImpl) Create(ctx context.Context, guide *entity.Guide) error {
	m := r.mapper.ToModel(guide)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return contract.ErrDuplicateGuide
		}
		return err
	}
	*guide = *r.mapper.ToEntity(m)
	return nil
}

func (r *GuideRepositoryImpl) FindByIdAndOwner(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error) {
	var m model.Guide
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.ByOwnerID{OwnerID: ownerId},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrGuideNotFound
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GuideRepositoryImpl) Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error {
	cols := r.mapper.ToColumns(patch)
	if len(cols) == 0 {
		return nil
	}

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Guide{}), specification.ByID{ID: id})
	result := query.Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrGuideNotFound
	}
	return nil
}

func (r *GuideRepositoryImpl) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Guide, error) {
	var models []*model.Guide
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByOwnerID{OwnerID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GuideRepositoryImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
