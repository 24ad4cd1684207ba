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

type MnemonicService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	Generate(ctx context.Context, userID uuid.UUID, topic string) (*types.StudySession, error)
}

type mnemonicService struct {
	log      *logger.Logger
	sessions *session.Manager[types.MnemonicPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
}

func NewMnemonicService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
) MnemonicService {
	serviceLog := log.With("service", "MnemonicService")
	cfg := session.Config[types.MnemonicPayload]{
		Feature: types.FeatureMnemonic,
		Empty:   func() types.MnemonicPayload { return types.MnemonicPayload{} },
	}
	return &mnemonicService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
	}
}

func (ns *mnemonicService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return ns.sessions.List(ctx, userID)
}

func (ns *mnemonicService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error) {
	return ns.sessions.For(userID).Open(ctx, sessionID)
}

func (ns *mnemonicService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := ns.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	ns.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

func (ns *mnemonicService) Generate(ctx context.Context, userID uuid.UUID, topic string) (*types.StudySession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("missing mnemonic topic")
	}
	store := ns.sessions.For(userID)
	if _, err := store.StartNew(topic); err != nil {
		return nil, err
	}
	gen := store.Generation()

	contextBlock, attachments, err := ns.picker.Pick(ctx, userID, topic)
	if err != nil {
		ns.log.Warn("Source selection failed; generating without documents", "error", err)
	}
	prompt := mnemonicPrompt(topic)
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + prompt
	}

	ns.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureMnemonic})
	var out struct {
		Mnemonic string `json:"mnemonic"`
		Items    []struct {
			Letter  string `json:"letter"`
			Meaning string `json:"meaning"`
		} `json:"items"`
	}
	if err := ns.llm.GenerateJSON(ctx, gemini.Request{
		SystemInstruction: mnemonicSystemInstruction,
		Prompt:            prompt,
		Attachments:       attachments,
		JSONOutput:        true,
	}, &out); err != nil {
		ns.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureMnemonic,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}
	if strings.TrimSpace(out.Mnemonic) == "" || len(out.Items) == 0 {
		ns.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{"feature": types.FeatureMnemonic})
		return nil, fmt.Errorf("model returned no mnemonic")
	}

	items := make([]types.MnemonicItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, types.MnemonicItem{Letter: it.Letter, Meaning: it.Meaning})
	}

	rec, ok := store.ApplyIfCurrent(gen, func(p types.MnemonicPayload) types.MnemonicPayload {
		p.Topic = topic
		p.Mnemonic = out.Mnemonic
		p.Items = items
		return p
	})
	if !ok {
		return nil, fmt.Errorf("mnemonic changed while generating")
	}
	ns.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureMnemonic})
	ns.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}
