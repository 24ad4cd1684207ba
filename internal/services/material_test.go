package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type fakeSourceRepo struct {
	sources map[uuid.UUID]*types.CourseSource
	deleted []uuid.UUID
}

func (f *fakeSourceRepo) Create(ctx context.Context, tx *gorm.DB, sources []*types.CourseSource) ([]*types.CourseSource, error) {
	for _, s := range sources {
		f.sources[s.ID] = s
	}
	return sources, nil
}

func (f *fakeSourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CourseSource, error) {
	var out []*types.CourseSource
	for _, id := range ids {
		if s, ok := f.sources[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSourceRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CourseSource, error) {
	var out []*types.CourseSource
	for _, s := range f.sources {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSourceRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(f.sources, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Emit(userID uuid.UUID, event sse.SSEEvent, data any) {}

func TestDeleteAttachmentSourceWithoutBucket(t *testing.T) {
	userID := uuid.New()
	src := &types.CourseSource{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           "scan.pdf",
		AttachmentKey:  "users/x/sources/scan.pdf",
		AttachmentMIME: "application/pdf",
	}
	repo := &fakeSourceRepo{sources: map[uuid.UUID]*types.CourseSource{src.ID: src}}
	ms := NewMaterialService(nil, logger.NewNop(), repo, nil, noopNotifier{})

	if err := ms.DeleteSource(context.Background(), userID, src.ID); err != nil {
		t.Fatalf("delete without bucket: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != src.ID {
		t.Fatalf("expected source record deleted, got %v", repo.deleted)
	}
}

func TestDeleteSourceRejectsForeignOwner(t *testing.T) {
	src := &types.CourseSource{ID: uuid.New(), UserID: uuid.New(), Name: "cours.txt", Content: "texte"}
	repo := &fakeSourceRepo{sources: map[uuid.UUID]*types.CourseSource{src.ID: src}}
	ms := NewMaterialService(nil, logger.NewNop(), repo, nil, noopNotifier{})

	if err := ms.DeleteSource(context.Background(), uuid.New(), src.ID); err == nil {
		t.Fatal("expected an ownership error")
	}
	if len(repo.deleted) != 0 {
		t.Fatal("source record must survive a foreign delete attempt")
	}
}
