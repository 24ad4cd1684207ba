package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type StudySessionRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StudySession, error)
	ListByUserFeature(ctx context.Context, tx *gorm.DB, userID uuid.UUID, feature types.Feature) ([]*types.StudySession, error)
	CountByUserFeature(ctx context.Context, tx *gorm.DB, userID uuid.UUID, feature types.Feature) (int64, error)
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.StudySession) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type studySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	return &studySessionRepo{db: db, log: baseLog.With("repo", "StudySessionRepo")}
}

func (r *studySessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.StudySession
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *studySessionRepo) ListByUserFeature(ctx context.Context, tx *gorm.DB, userID uuid.UUID, feature types.Feature) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StudySession
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND feature = ?", userID, feature).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *studySessionRepo) CountByUserFeature(ctx context.Context, tx *gorm.DB, userID uuid.UUID, feature types.Feature) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.StudySession{}).
		Where("user_id = ? AND feature = ?", userID, feature).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Upsert writes the full record, replacing any stored version. This is
// the last-write-wins merge the reconciler relies on.
func (r *studySessionRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.StudySession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

func (r *studySessionRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.StudySession{}).Error
}
