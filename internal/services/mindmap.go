package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/graph"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/outline"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// MindMapView pairs the stored session with the tree derived from its
// markdown, so clients never parse the outline themselves.
type MindMapView struct {
	Session *types.StudySession `json:"session"`
	Root    *outline.Node       `json:"root"`
}

type MindMapService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*MindMapView, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	Generate(ctx context.Context, userID uuid.UUID, topic string) (*MindMapView, error)
}

type mindMapService struct {
	log      *logger.Logger
	sessions *session.Manager[types.MindMapPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
	graph    *graph.Client
}

// NewMindMapService wires mind-map generation. graphClient may be nil;
// the Neo4j projection is then skipped.
func NewMindMapService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
	graphClient *graph.Client,
) MindMapService {
	serviceLog := log.With("service", "MindMapService")
	cfg := session.Config[types.MindMapPayload]{
		Feature: types.FeatureMindMap,
		Empty:   func() types.MindMapPayload { return types.MindMapPayload{} },
	}
	return &mindMapService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
		graph:    graphClient,
	}
}

func (ms *mindMapService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return ms.sessions.List(ctx, userID)
}

func (ms *mindMapService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*MindMapView, error) {
	store := ms.sessions.For(userID)
	rec, err := store.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	_, payload, _ := store.Active()
	return &MindMapView{Session: rec, Root: outline.Parse(payload.Markdown)}, nil
}

func (ms *mindMapService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := ms.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	ms.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

// Generate asks the model for a markdown outline, stores it raw and
// derives the tree on the way out. When Neo4j is configured the tree is
// also projected there, best effort.
func (ms *mindMapService) Generate(ctx context.Context, userID uuid.UUID, topic string) (*MindMapView, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("missing mind map topic")
	}
	store := ms.sessions.For(userID)
	if _, err := store.StartNew(topic); err != nil {
		return nil, err
	}
	gen := store.Generation()

	contextBlock, attachments, err := ms.picker.Pick(ctx, userID, topic)
	if err != nil {
		ms.log.Warn("Source selection failed; generating without documents", "error", err)
	}
	prompt := mindMapPrompt(topic)
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + prompt
	}

	ms.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureMindMap})
	markdown, err := ms.llm.GenerateText(ctx, gemini.Request{
		SystemInstruction: mindMapSystemInstruction,
		Prompt:            prompt,
		Attachments:       attachments,
	})
	if err != nil {
		ms.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureMindMap,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}
	markdown = gemini.StripJSONFence(markdown)

	rec, ok := store.ApplyIfCurrent(gen, func(p types.MindMapPayload) types.MindMapPayload {
		p.Markdown = markdown
		return p
	})
	if !ok {
		return nil, fmt.Errorf("mind map changed while generating")
	}

	root := outline.Parse(markdown)
	if ms.graph != nil {
		if gErr := graph.UpsertMindMap(ctx, ms.graph, ms.log, userID, rec.ID, root); gErr != nil {
			ms.log.Warn("Neo4j projection failed", "session_id", rec.ID, "error", gErr)
		}
	}

	ms.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureMindMap})
	ms.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return &MindMapView{Session: rec, Root: root}, nil
}
