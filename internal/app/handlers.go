package app

import (
	"github.com/parastudy/parastudy-backend/internal/handlers"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/server"
	"github.com/parastudy/parastudy-backend/internal/sse"
)

func wireHandlers(log *logger.Logger, s Services, hub *sse.SSEHub) server.Handlers {
	return server.Handlers{
		Healthcheck: handlers.NewHealthcheckHandler(log),
		Auth:        handlers.NewAuthHandler(log, s.Auth),
		User:        handlers.NewUserHandler(log, s.User),
		Material:    handlers.NewMaterialHandler(log, s.Material),
		Chat:        handlers.NewChatHandler(log, s.Chat),
		Quiz:        handlers.NewQuizHandler(log, s.Quiz),
		Checklist:   handlers.NewChecklistHandler(log, s.Checklist),
		Flashcard:   handlers.NewFlashcardHandler(log, s.Flashcard),
		MindMap:     handlers.NewMindMapHandler(log, s.MindMap),
		Mnemonic:    handlers.NewMnemonicHandler(log, s.Mnemonic),
		SSE:         handlers.NewSSEHandler(log, hub),
	}
}
