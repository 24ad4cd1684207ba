package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type FlashcardService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	Generate(ctx context.Context, userID uuid.UUID, topic string, cardCount int) (*types.StudySession, error)
	MarkKnown(ctx context.Context, userID uuid.UUID, cardID string, known bool) (*types.StudySession, error)
	Navigate(ctx context.Context, userID uuid.UUID, index int) (*types.StudySession, error)
	ResetProgress(ctx context.Context, userID uuid.UUID) (*types.StudySession, error)
}

type flashcardService struct {
	log      *logger.Logger
	sessions *session.Manager[types.FlashcardPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
}

func NewFlashcardService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
) FlashcardService {
	serviceLog := log.With("service", "FlashcardService")
	cfg := session.Config[types.FlashcardPayload]{
		Feature: types.FeatureFlashcard,
		Empty: func() types.FlashcardPayload {
			return types.FlashcardPayload{Known: map[string]bool{}}
		},
		Derive: flashcardProgress,
	}
	return &flashcardService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
	}
}

func flashcardProgress(p types.FlashcardPayload) int {
	if len(p.Cards) == 0 {
		return 0
	}
	known := 0
	for _, c := range p.Cards {
		if p.Known[c.ID] {
			known++
		}
	}
	return int(float64(known)/float64(len(p.Cards))*100 + 0.5)
}

func (fs *flashcardService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return fs.sessions.List(ctx, userID)
}

func (fs *flashcardService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error) {
	return fs.sessions.For(userID).Open(ctx, sessionID)
}

func (fs *flashcardService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := fs.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	fs.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

func (fs *flashcardService) Generate(ctx context.Context, userID uuid.UUID, topic string, cardCount int) (*types.StudySession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("missing deck topic")
	}
	store := fs.sessions.For(userID)
	if _, err := store.StartNew(topic); err != nil {
		return nil, err
	}
	gen := store.Generation()

	contextBlock, attachments, err := fs.picker.Pick(ctx, userID, topic)
	if err != nil {
		fs.log.Warn("Source selection failed; generating without documents", "error", err)
	}
	prompt := flashcardPrompt(topic, cardCount)
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + prompt
	}

	fs.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureFlashcard})
	var out struct {
		Cards []struct {
			Front string `json:"front"`
			Back  string `json:"back"`
		} `json:"cards"`
	}
	if err := fs.llm.GenerateJSON(ctx, gemini.Request{
		SystemInstruction: flashcardSystemInstruction,
		Prompt:            prompt,
		Attachments:       attachments,
		JSONOutput:        true,
	}, &out); err != nil {
		fs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureFlashcard,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}

	cards := make([]types.Flashcard, 0, len(out.Cards))
	for _, c := range out.Cards {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			continue
		}
		cards = append(cards, types.Flashcard{
			ID:    uuid.New().String(),
			Front: c.Front,
			Back:  c.Back,
		})
	}
	if len(cards) == 0 {
		fs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{"feature": types.FeatureFlashcard})
		return nil, fmt.Errorf("model returned no cards")
	}

	rec, ok := store.ApplyIfCurrent(gen, func(p types.FlashcardPayload) types.FlashcardPayload {
		p.Cards = cards
		p.Known = map[string]bool{}
		p.CurrentIndex = 0
		return p
	})
	if !ok {
		return nil, fmt.Errorf("deck changed while generating")
	}
	fs.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureFlashcard})
	fs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (fs *flashcardService) MarkKnown(ctx context.Context, userID uuid.UUID, cardID string, known bool) (*types.StudySession, error) {
	rec, err := fs.sessions.For(userID).Mutate(func(p types.FlashcardPayload) types.FlashcardPayload {
		next := make(map[string]bool, len(p.Known)+1)
		for k, v := range p.Known {
			next[k] = v
		}
		if known {
			next[cardID] = true
		} else {
			delete(next, cardID)
		}
		p.Known = next
		return p
	})
	if err != nil {
		return nil, err
	}
	fs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (fs *flashcardService) Navigate(ctx context.Context, userID uuid.UUID, index int) (*types.StudySession, error) {
	return fs.sessions.For(userID).Mutate(func(p types.FlashcardPayload) types.FlashcardPayload {
		if index < 0 || index >= len(p.Cards) {
			return p
		}
		p.CurrentIndex = index
		return p
	})
}

func (fs *flashcardService) ResetProgress(ctx context.Context, userID uuid.UUID) (*types.StudySession, error) {
	rec, err := fs.sessions.For(userID).Mutate(func(p types.FlashcardPayload) types.FlashcardPayload {
		p.Known = map[string]bool{}
		p.CurrentIndex = 0
		return p
	})
	if err != nil {
		return nil, err
	}
	fs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}
