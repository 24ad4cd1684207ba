package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type CourseSourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sources []*types.CourseSource) ([]*types.CourseSource, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CourseSource, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CourseSource, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type courseSourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseSourceRepo(db *gorm.DB, baseLog *logger.Logger) CourseSourceRepo {
	return &courseSourceRepo{db: db, log: baseLog.With("repo", "CourseSourceRepo")}
}

func (r *courseSourceRepo) Create(ctx context.Context, tx *gorm.DB, sources []*types.CourseSource) ([]*types.CourseSource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sources) == 0 {
		return []*types.CourseSource{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *courseSourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CourseSource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CourseSource
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSourceRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CourseSource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CourseSource
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSourceRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.CourseSource{}).Error
}
