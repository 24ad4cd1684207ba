package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/checklist"
	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type ChecklistService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	Generate(ctx context.Context, userID uuid.UUID, topic string) (*types.StudySession, error)
	Toggle(ctx context.Context, userID uuid.UUID, itemID string, completed bool) (*types.StudySession, error)
	Reset(ctx context.Context, userID uuid.UUID) (*types.StudySession, error)
}

type checklistService struct {
	log      *logger.Logger
	sessions *session.Manager[types.ChecklistPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
}

func NewChecklistService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
) ChecklistService {
	serviceLog := log.With("service", "ChecklistService")
	cfg := session.Config[types.ChecklistPayload]{
		Feature: types.FeatureChecklist,
		Empty:   func() types.ChecklistPayload { return types.ChecklistPayload{} },
		Derive: func(p types.ChecklistPayload) int {
			return checklist.Progress(p.Items)
		},
	}
	return &checklistService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
	}
}

func (cs *checklistService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return cs.sessions.List(ctx, userID)
}

func (cs *checklistService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error) {
	return cs.sessions.For(userID).Open(ctx, sessionID)
}

func (cs *checklistService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := cs.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

func (cs *checklistService) Generate(ctx context.Context, userID uuid.UUID, topic string) (*types.StudySession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("missing checklist topic")
	}
	store := cs.sessions.For(userID)
	if _, err := store.StartNew(topic); err != nil {
		return nil, err
	}
	gen := store.Generation()

	contextBlock, attachments, err := cs.picker.Pick(ctx, userID, topic)
	if err != nil {
		cs.log.Warn("Source selection failed; generating without documents", "error", err)
	}
	prompt := checklistPrompt(topic)
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + prompt
	}

	cs.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureChecklist})
	var out struct {
		Items []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Children    []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"children"`
		} `json:"items"`
	}
	if err := cs.llm.GenerateJSON(ctx, gemini.Request{
		SystemInstruction: checklistSystemInstruction,
		Prompt:            prompt,
		Attachments:       attachments,
		JSONOutput:        true,
	}, &out); err != nil {
		cs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureChecklist,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}

	items := make([]*checklist.Item, 0, len(out.Items))
	for _, it := range out.Items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		item := &checklist.Item{
			ID:          uuid.New().String(),
			Title:       it.Title,
			Description: it.Description,
		}
		for _, child := range it.Children {
			if strings.TrimSpace(child.Title) == "" {
				continue
			}
			item.Children = append(item.Children, &checklist.Item{
				ID:          uuid.New().String(),
				Title:       child.Title,
				Description: child.Description,
			})
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		cs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{"feature": types.FeatureChecklist})
		return nil, fmt.Errorf("model returned no checklist items")
	}

	rec, ok := store.ApplyIfCurrent(gen, func(p types.ChecklistPayload) types.ChecklistPayload {
		p.Items = items
		return p
	})
	if !ok {
		return nil, fmt.Errorf("checklist changed while generating")
	}
	cs.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureChecklist})
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (cs *checklistService) Toggle(ctx context.Context, userID uuid.UUID, itemID string, completed bool) (*types.StudySession, error) {
	rec, err := cs.sessions.For(userID).Mutate(func(p types.ChecklistPayload) types.ChecklistPayload {
		p.Items = checklist.Toggle(p.Items, itemID, completed)
		return p
	})
	if err != nil {
		return nil, err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (cs *checklistService) Reset(ctx context.Context, userID uuid.UUID) (*types.StudySession, error) {
	rec, err := cs.sessions.For(userID).Mutate(func(p types.ChecklistPayload) types.ChecklistPayload {
		p.Items = checklist.Reset(p.Items)
		return p
	})
	if err != nil {
		return nil, err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}
