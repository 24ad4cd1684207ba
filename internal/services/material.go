package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/repos"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// MaterialUpload is one file or text blob handed to UploadSources.
type MaterialUpload struct {
	Name     string
	Category string
	MIMEType string
	Data     []byte
}

// MaterialUploadResult reports per-file outcome; one bad file never fails
// the batch.
type MaterialUploadResult struct {
	Name   string              `json:"name"`
	Source *types.CourseSource `json:"source,omitempty"`
	Error  string              `json:"error,omitempty"`
}

type MaterialService interface {
	UploadSources(ctx context.Context, userID uuid.UUID, uploads []MaterialUpload) ([]MaterialUploadResult, error)
	ListSources(ctx context.Context, userID uuid.UUID) ([]*types.CourseSource, error)
	DeleteSource(ctx context.Context, userID uuid.UUID, sourceID uuid.UUID) error
}

type materialService struct {
	db         *gorm.DB
	log        *logger.Logger
	sourceRepo repos.CourseSourceRepo
	bucket     BucketService
	notifier   StudyNotifier
}

func NewMaterialService(
	db *gorm.DB,
	log *logger.Logger,
	sourceRepo repos.CourseSourceRepo,
	bucket BucketService,
	notifier StudyNotifier,
) MaterialService {
	return &materialService{
		db:         db,
		log:        log.With("service", "MaterialService"),
		sourceRepo: sourceRepo,
		bucket:     bucket,
		notifier:   notifier,
	}
}

const maxConcurrentUploads = 4

// UploadSources ingests a batch of course documents concurrently. Plain
// text lands in the content column; binary files are stored in the
// bucket and referenced by key so generation calls can attach them.
func (ms *materialService) UploadSources(ctx context.Context, userID uuid.UUID, uploads []MaterialUpload) ([]MaterialUploadResult, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	results := make([]MaterialUploadResult, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)

	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			results[i] = ms.uploadOne(gctx, userID, up)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Source != nil {
			ms.notifier.Emit(userID, sse.SSEEventSourceUploaded, r.Source)
		}
	}
	return results, nil
}

func (ms *materialService) uploadOne(ctx context.Context, userID uuid.UUID, up MaterialUpload) MaterialUploadResult {
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return MaterialUploadResult{Name: up.Name, Error: "missing file name"}
	}
	if len(up.Data) == 0 {
		return MaterialUploadResult{Name: name, Error: "empty file"}
	}

	source := &types.CourseSource{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Category: strings.TrimSpace(up.Category),
	}

	if isTextUpload(up.MIMEType, up.Data) {
		source.Content = string(bytes.ToValidUTF8(up.Data, []byte("�")))
	} else if ms.bucket == nil {
		return MaterialUploadResult{Name: name, Error: "binary uploads are not enabled"}
	} else {
		key := fmt.Sprintf("users/%s/sources/%s-%s", userID, source.ID, sanitizeKeyPart(name))
		if err := ms.bucket.UploadFile(ctx, key, bytes.NewReader(up.Data)); err != nil {
			ms.log.Warn("Source upload to bucket failed", "name", name, "error", err)
			return MaterialUploadResult{Name: name, Error: "storage upload failed"}
		}
		source.AttachmentKey = key
		source.AttachmentMIME = up.MIMEType
	}

	if _, err := ms.sourceRepo.Create(ctx, nil, []*types.CourseSource{source}); err != nil {
		ms.log.Warn("Source record create failed", "name", name, "error", err)
		return MaterialUploadResult{Name: name, Error: "could not save document"}
	}
	return MaterialUploadResult{Name: name, Source: source}
}

func (ms *materialService) ListSources(ctx context.Context, userID uuid.UUID) ([]*types.CourseSource, error) {
	return ms.sourceRepo.ListByUser(ctx, nil, userID)
}

func (ms *materialService) DeleteSource(ctx context.Context, userID uuid.UUID, sourceID uuid.UUID) error {
	sources, err := ms.sourceRepo.GetByIDs(ctx, nil, []uuid.UUID{sourceID})
	if err != nil {
		return fmt.Errorf("Failed to load source: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("source not found")
	}
	source := sources[0]
	if source.UserID != userID {
		return fmt.Errorf("source does not belong to user")
	}
	if source.HasAttachment() && ms.bucket != nil {
		if err := ms.bucket.DeleteFile(ctx, source.AttachmentKey); err != nil {
			// Orphaned objects are cheaper than blocking the delete.
			ms.log.Warn("Failed to delete bucket object", "key", source.AttachmentKey, "error", err)
		}
	}
	return ms.sourceRepo.DeleteByID(ctx, nil, sourceID)
}

func isTextUpload(mimeType string, data []byte) bool {
	mt := strings.ToLower(mimeType)
	if strings.HasPrefix(mt, "text/") || mt == "application/json" || strings.HasSuffix(mt, "markdown") {
		return true
	}
	if mt != "" {
		return false
	}
	return utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}

func sanitizeKeyPart(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
