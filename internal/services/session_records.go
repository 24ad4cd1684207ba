package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/repos"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// sessionRecords adapts StudySessionRepo to the reconciler's Records
// interface (no transaction threading: session writes are single-row).
type sessionRecords struct {
	repo repos.StudySessionRepo
}

func NewSessionRecords(repo repos.StudySessionRepo) session.Records {
	return &sessionRecords{repo: repo}
}

func (r *sessionRecords) GetByID(ctx context.Context, id uuid.UUID) (*types.StudySession, error) {
	return r.repo.GetByID(ctx, nil, id)
}

func (r *sessionRecords) ListByUserFeature(ctx context.Context, userID uuid.UUID, feature types.Feature) ([]*types.StudySession, error) {
	return r.repo.ListByUserFeature(ctx, nil, userID, feature)
}

func (r *sessionRecords) CountByUserFeature(ctx context.Context, userID uuid.UUID, feature types.Feature) (int64, error) {
	return r.repo.CountByUserFeature(ctx, nil, userID, feature)
}

func (r *sessionRecords) Upsert(ctx context.Context, rec *types.StudySession) error {
	return r.repo.Upsert(ctx, nil, rec)
}

func (r *sessionRecords) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.repo.DeleteByID(ctx, nil, id)
}
