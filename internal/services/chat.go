package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type ChatService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error)
	StartSession(ctx context.Context, userID uuid.UUID) (*types.StudySession, error)
	RenameSession(ctx context.Context, userID uuid.UUID, title string) (*types.StudySession, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	SendMessage(ctx context.Context, userID uuid.UUID, message string) (*types.StudySession, error)
}

type chatService struct {
	log      *logger.Logger
	sessions *session.Manager[types.ChatPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
}

func NewChatService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	cfg := session.Config[types.ChatPayload]{
		Feature: types.FeatureChat,
		Empty:   func() types.ChatPayload { return types.ChatPayload{} },
		// A user always has at least one conversation to come back to.
		ReplaceLastOnDelete: true,
	}
	return &chatService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
	}
}

func (cs *chatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return cs.sessions.List(ctx, userID)
}

func (cs *chatService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error) {
	return cs.sessions.For(userID).Open(ctx, sessionID)
}

func (cs *chatService) StartSession(ctx context.Context, userID uuid.UUID) (*types.StudySession, error) {
	rec, err := cs.sessions.For(userID).StartNew("Nouvelle conversation")
	if err != nil {
		return nil, err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (cs *chatService) RenameSession(ctx context.Context, userID uuid.UUID, title string) (*types.StudySession, error) {
	rec, err := cs.sessions.For(userID).Rename(title)
	if err != nil {
		return nil, err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (cs *chatService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := cs.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

// SendMessage appends the user's message locally, calls the model with
// the conversation history and the relevant course documents, then
// appends the reply only if the session has not moved on in the
// meantime.
func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, message string) (*types.StudySession, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}
	store := cs.sessions.For(userID)
	if _, _, ok := store.Active(); !ok {
		if _, err := store.StartNew(chatTitleFrom(message)); err != nil {
			return nil, err
		}
	}

	rec, err := store.Mutate(func(p types.ChatPayload) types.ChatPayload {
		p.Messages = append(p.Messages, types.ChatMessage{
			Role:      "user",
			Content:   message,
			CreatedAt: time.Now().UTC(),
		})
		return p
	})
	if err != nil {
		return nil, err
	}
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	gen := store.Generation()

	_, payload, _ := store.Active()
	history := make([]gemini.Turn, 0, len(payload.Messages))
	for _, m := range payload.Messages[:len(payload.Messages)-1] {
		history = append(history, gemini.Turn{Role: m.Role, Content: m.Content})
	}

	contextBlock, attachments, err := cs.picker.Pick(ctx, userID, message)
	if err != nil {
		cs.log.Warn("Source selection failed; answering without documents", "error", err)
	}
	prompt := message
	if contextBlock != "" {
		prompt = contextBlock + "\n\nQuestion de l'étudiant :\n" + message
	}

	cs.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureChat})
	answer, err := cs.llm.GenerateText(ctx, gemini.Request{
		SystemInstruction: chatSystemInstruction,
		History:           history,
		Prompt:            prompt,
		Attachments:       attachments,
	})
	if err != nil {
		cs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureChat,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}

	rec, ok := store.ApplyIfCurrent(gen, func(p types.ChatPayload) types.ChatPayload {
		p.Messages = append(p.Messages, types.ChatMessage{
			Role:      "model",
			Content:   answer,
			CreatedAt: time.Now().UTC(),
		})
		return p
	})
	if !ok {
		cs.log.Debug("Chat reply arrived after session changed; dropped", "user_id", userID)
		return nil, fmt.Errorf("session changed while generating")
	}
	cs.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureChat})
	cs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func chatTitleFrom(message string) string {
	runes := []rune(message)
	if len(runes) > 48 {
		return string(runes[:48]) + "…"
	}
	return message
}
