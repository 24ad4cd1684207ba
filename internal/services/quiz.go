package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	"github.com/parastudy/parastudy-backend/internal/grading"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/session"
	"github.com/parastudy/parastudy-backend/internal/sse"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type QuizService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error)
	OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
	Generate(ctx context.Context, userID uuid.UUID, topic string, questionCount int) (*types.StudySession, error)
	SelectAnswer(ctx context.Context, userID uuid.UUID, questionID string, selected []int) (*types.StudySession, error)
	Navigate(ctx context.Context, userID uuid.UUID, index int) (*types.StudySession, error)
	Finish(ctx context.Context, userID uuid.UUID) (*types.StudySession, error)
	Restart(ctx context.Context, userID uuid.UUID) (*types.StudySession, error)
}

type quizService struct {
	log      *logger.Logger
	sessions *session.Manager[types.QuizPayload]
	llm      gemini.Client
	picker   *SourcePicker
	notifier StudyNotifier
}

func NewQuizService(
	log *logger.Logger,
	records session.Records,
	llm gemini.Client,
	picker *SourcePicker,
	notifier StudyNotifier,
) QuizService {
	serviceLog := log.With("service", "QuizService")
	cfg := session.Config[types.QuizPayload]{
		Feature: types.FeatureQuiz,
		Empty: func() types.QuizPayload {
			return types.QuizPayload{UserAnswers: map[string][]int{}}
		},
		Derive: quizProgress,
	}
	return &quizService{
		log:      serviceLog,
		sessions: session.NewManager(serviceLog, records, cfg),
		llm:      llm,
		picker:   picker,
		notifier: notifier,
	}
}

// quizProgress is the share of questions answered, finished or not.
func quizProgress(p types.QuizPayload) int {
	if len(p.Questions) == 0 {
		return 0
	}
	answered := 0
	for _, q := range p.Questions {
		if len(p.UserAnswers[q.ID]) > 0 {
			answered++
		}
	}
	return int(float64(answered)/float64(len(p.Questions))*100 + 0.5)
}

func (qs *quizService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return qs.sessions.List(ctx, userID)
}

func (qs *quizService) OpenSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.StudySession, error) {
	return qs.sessions.For(userID).Open(ctx, sessionID)
}

func (qs *quizService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	if _, err := qs.sessions.For(userID).Delete(ctx, sessionID); err != nil {
		return err
	}
	qs.notifier.Emit(userID, sse.SSEEventSessionDeleted, map[string]any{"id": sessionID})
	return nil
}

// Generate builds a fresh quiz from the model. The new session becomes
// active immediately with an empty payload; questions land through the
// stale-guarded apply so an abandoned generation can never clobber a
// newer quiz.
func (qs *quizService) Generate(ctx context.Context, userID uuid.UUID, topic string, questionCount int) (*types.StudySession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("missing quiz topic")
	}
	store := qs.sessions.For(userID)
	if _, err := store.StartNew(topic); err != nil {
		return nil, err
	}
	gen := store.Generation()

	contextBlock, attachments, err := qs.picker.Pick(ctx, userID, topic)
	if err != nil {
		qs.log.Warn("Source selection failed; generating without documents", "error", err)
	}
	prompt := quizPrompt(topic, questionCount)
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + prompt
	}

	qs.notifier.Emit(userID, sse.SSEEventGenerationStarted, map[string]any{"feature": types.FeatureQuiz})
	var out struct {
		Questions []struct {
			Question       string   `json:"question"`
			Options        []string `json:"options"`
			CorrectIndices []int    `json:"correctIndices"`
			Explanation    string   `json:"explanation"`
		} `json:"questions"`
	}
	if err := qs.llm.GenerateJSON(ctx, gemini.Request{
		SystemInstruction: quizSystemInstruction,
		Prompt:            prompt,
		Attachments:       attachments,
		JSONOutput:        true,
	}, &out); err != nil {
		qs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{
			"feature": types.FeatureQuiz,
			"quota":   gemini.IsQuotaError(err),
		})
		return nil, err
	}
	if len(out.Questions) == 0 {
		qs.notifier.Emit(userID, sse.SSEEventGenerationFailed, map[string]any{"feature": types.FeatureQuiz})
		return nil, fmt.Errorf("model returned no questions")
	}

	questions := make([]types.QuizQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
			continue
		}
		questions = append(questions, types.QuizQuestion{
			ID:             uuid.New().String(),
			Question:       q.Question,
			Options:        q.Options,
			CorrectIndices: q.CorrectIndices,
			Explanation:    q.Explanation,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}

	rec, ok := store.ApplyIfCurrent(gen, func(p types.QuizPayload) types.QuizPayload {
		p.Questions = questions
		p.UserAnswers = map[string][]int{}
		p.CurrentIndex = 0
		p.Finished = false
		return p
	})
	if !ok {
		return nil, fmt.Errorf("quiz changed while generating")
	}
	qs.notifier.Emit(userID, sse.SSEEventGenerationCompleted, map[string]any{"feature": types.FeatureQuiz})
	qs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

// SelectAnswer replaces the stored selection for one question. Answers
// can change freely until Finish.
func (qs *quizService) SelectAnswer(ctx context.Context, userID uuid.UUID, questionID string, selected []int) (*types.StudySession, error) {
	rec, err := qs.sessions.For(userID).Mutate(func(p types.QuizPayload) types.QuizPayload {
		if p.Finished {
			return p
		}
		answers := make(map[string][]int, len(p.UserAnswers)+1)
		for k, v := range p.UserAnswers {
			answers[k] = v
		}
		answers[questionID] = append([]int(nil), selected...)
		p.UserAnswers = answers
		return p
	})
	if err != nil {
		return nil, err
	}
	qs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

func (qs *quizService) Navigate(ctx context.Context, userID uuid.UUID, index int) (*types.StudySession, error) {
	return qs.sessions.For(userID).Mutate(func(p types.QuizPayload) types.QuizPayload {
		if index < 0 || index >= len(p.Questions) {
			return p
		}
		p.CurrentIndex = index
		return p
	})
}

// Finish grades the quiz by set equality per question and freezes the
// answers.
func (qs *quizService) Finish(ctx context.Context, userID uuid.UUID) (*types.StudySession, error) {
	rec, err := qs.sessions.For(userID).Mutate(func(p types.QuizPayload) types.QuizPayload {
		if p.Finished || len(p.Questions) == 0 {
			return p
		}
		answerKey := make(map[string][]int, len(p.Questions))
		for _, q := range p.Questions {
			answerKey[q.ID] = q.CorrectIndices
		}
		result := grading.Grade(answerKey, p.UserAnswers)
		p.Finished = true
		p.Score = result.Score
		p.Percentage = result.Percentage
		p.OutOf20 = result.OutOf20
		return p
	})
	if err != nil {
		return nil, err
	}
	qs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}

// Restart keeps the questions and wipes answers and grading.
func (qs *quizService) Restart(ctx context.Context, userID uuid.UUID) (*types.StudySession, error) {
	rec, err := qs.sessions.For(userID).Mutate(func(p types.QuizPayload) types.QuizPayload {
		p.UserAnswers = map[string][]int{}
		p.CurrentIndex = 0
		p.Finished = false
		p.Score = 0
		p.Percentage = 0
		p.OutOf20 = 0
		return p
	})
	if err != nil {
		return nil, err
	}
	qs.notifier.Emit(userID, sse.SSEEventSessionUpdated, rec)
	return rec, nil
}
