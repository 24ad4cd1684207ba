package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/relevance"
	"github.com/parastudy/parastudy-backend/internal/repos"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// SourcePicker runs the relevance selector over a user's documents and
// loads the bytes of any selected attachments. Every generation service
// goes through it so prompts see the same context everywhere.
type SourcePicker struct {
	log        *logger.Logger
	sourceRepo repos.CourseSourceRepo
	bucket     BucketService
}

func NewSourcePicker(log *logger.Logger, sourceRepo repos.CourseSourceRepo, bucket BucketService) *SourcePicker {
	return &SourcePicker{
		log:        log.With("component", "SourcePicker"),
		sourceRepo: sourceRepo,
		bucket:     bucket,
	}
}

// Pick returns the rendered context block and the inline attachments for
// one query. Attachment download failures degrade to text-only context.
func (sp *SourcePicker) Pick(ctx context.Context, userID uuid.UUID, query string) (string, []gemini.Attachment, error) {
	all, err := sp.sourceRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return "", nil, err
	}
	if len(all) == 0 {
		return "", nil, nil
	}

	inputs := toRelevanceSources(all)
	byKey := make(map[relevance.Source]*types.CourseSource, len(all))
	for i, s := range all {
		byKey[inputs[i]] = s
	}

	selected := relevance.Select(query, inputs)
	contextBlock := buildSourceContext(selected)

	var attachments []gemini.Attachment
	for _, rs := range selected {
		src, ok := byKey[rs]
		if !ok || !src.HasAttachment() || sp.bucket == nil {
			continue
		}
		data, dErr := sp.bucket.DownloadFile(ctx, src.AttachmentKey)
		if dErr != nil {
			sp.log.Warn("Skipping attachment; download failed", "key", src.AttachmentKey, "error", dErr)
			continue
		}
		attachments = append(attachments, gemini.Attachment{
			MIMEType: src.AttachmentMIME,
			Data:     data,
		})
	}
	return contextBlock, attachments, nil
}
