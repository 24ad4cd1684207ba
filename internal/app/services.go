package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
	redisbus "github.com/parastudy/parastudy-backend/internal/clients/redis"
	"github.com/parastudy/parastudy-backend/internal/graph"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/services"
	"github.com/parastudy/parastudy-backend/internal/sse"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Material  services.MaterialService
	Chat      services.ChatService
	Quiz      services.QuizService
	Checklist services.ChecklistService
	Flashcard services.FlashcardService
	MindMap   services.MindMapService
	Mnemonic  services.MnemonicService

	Notifier services.StudyNotifier
	EventBus redisbus.EventBus
	Graph    *graph.Client
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.SSEHub) (Services, error) {
	var s Services

	var bus redisbus.EventBus
	if cfg.RedisAddr != "" {
		var err error
		bus, err = redisbus.NewEventBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return s, fmt.Errorf("init redis event bus: %w", err)
		}
	}
	notifier := services.NewStudyNotifier(log, hub, bus)

	llm, err := gemini.NewClient(log, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		MaxRetries: cfg.GeminiMaxRetries,
	})
	if err != nil {
		return s, fmt.Errorf("init gemini client: %w", err)
	}

	var bucket services.BucketService
	if os.Getenv("GCS_BUCKET_NAME") != "" {
		bucket, err = services.NewBucketService(log)
		if err != nil {
			return s, fmt.Errorf("init bucket service: %w", err)
		}
	} else {
		log.Warn("GCS_BUCKET_NAME not set; binary attachments disabled")
	}

	graphClient, err := graph.NewClient(log, graph.Options{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		// The projection is an enrichment; the app runs without it.
		log.Warn("Neo4j unavailable; mind map projection disabled", "error", err)
		graphClient = nil
	}

	records := services.NewSessionRecords(r.StudySession)
	picker := services.NewSourcePicker(log, r.CourseSource, bucket)

	s = Services{
		Auth: services.NewAuthService(
			db, log, r.User, r.UserToken,
			cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
			cfg.AdminEmails,
		),
		User:      services.NewUserService(db, log, r.User),
		Material:  services.NewMaterialService(db, log, r.CourseSource, bucket, notifier),
		Chat:      services.NewChatService(log, records, llm, picker, notifier),
		Quiz:      services.NewQuizService(log, records, llm, picker, notifier),
		Checklist: services.NewChecklistService(log, records, llm, picker, notifier),
		Flashcard: services.NewFlashcardService(log, records, llm, picker, notifier),
		MindMap:   services.NewMindMapService(log, records, llm, picker, notifier, graphClient),
		Mnemonic:  services.NewMnemonicService(log, records, llm, picker, notifier),
		Notifier:  notifier,
		EventBus:  bus,
		Graph:     graphClient,
	}
	return s, nil
}
