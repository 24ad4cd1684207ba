package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/parastudy/parastudy-backend/internal/handlers"
	"github.com/parastudy/parastudy-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	TracingEnabled bool
}

type Handlers struct {
	Healthcheck *handlers.HealthcheckHandler
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Material    *handlers.MaterialHandler
	Chat        *handlers.ChatHandler
	Quiz        *handlers.QuizHandler
	Checklist   *handlers.ChecklistHandler
	Flashcard   *handlers.FlashcardHandler
	MindMap     *handlers.MindMapHandler
	Mnemonic    *handlers.MnemonicHandler
	SSE         *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig, h Handlers, authMW *middleware.AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.Healthcheck.Healthcheck)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(authMW.RequireAuth())
	{
		protected.POST("/auth/logout", h.Auth.Logout)

		protected.GET("/me", h.User.GetMe)
		protected.PATCH("/me", h.User.UpdateMe)

		materials := protected.Group("/materials")
		{
			materials.GET("", h.Material.List)
			materials.POST("", h.Material.Upload)
			materials.DELETE("/:id", h.Material.Delete)
		}

		chat := protected.Group("/chat")
		{
			chat.GET("/sessions", h.Chat.ListSessions)
			chat.POST("/sessions", h.Chat.StartSession)
			chat.POST("/sessions/:id/open", h.Chat.OpenSession)
			chat.PATCH("/sessions/title", h.Chat.RenameSession)
			chat.DELETE("/sessions/:id", h.Chat.DeleteSession)
			chat.POST("/messages", h.Chat.SendMessage)
		}

		quiz := protected.Group("/quiz")
		{
			quiz.GET("/sessions", h.Quiz.ListSessions)
			quiz.POST("/sessions/:id/open", h.Quiz.OpenSession)
			quiz.DELETE("/sessions/:id", h.Quiz.DeleteSession)
			quiz.POST("/generate", h.Quiz.Generate)
			quiz.POST("/answer", h.Quiz.SelectAnswer)
			quiz.POST("/navigate", h.Quiz.Navigate)
			quiz.POST("/finish", h.Quiz.Finish)
			quiz.POST("/restart", h.Quiz.Restart)
		}

		checklist := protected.Group("/checklist")
		{
			checklist.GET("/sessions", h.Checklist.ListSessions)
			checklist.POST("/sessions/:id/open", h.Checklist.OpenSession)
			checklist.DELETE("/sessions/:id", h.Checklist.DeleteSession)
			checklist.POST("/generate", h.Checklist.Generate)
			checklist.POST("/toggle", h.Checklist.Toggle)
			checklist.POST("/reset", h.Checklist.Reset)
		}

		flashcards := protected.Group("/flashcards")
		{
			flashcards.GET("/sessions", h.Flashcard.ListSessions)
			flashcards.POST("/sessions/:id/open", h.Flashcard.OpenSession)
			flashcards.DELETE("/sessions/:id", h.Flashcard.DeleteSession)
			flashcards.POST("/generate", h.Flashcard.Generate)
			flashcards.POST("/known", h.Flashcard.MarkKnown)
			flashcards.POST("/navigate", h.Flashcard.Navigate)
			flashcards.POST("/reset", h.Flashcard.ResetProgress)
		}

		mindmap := protected.Group("/mindmap")
		{
			mindmap.GET("/sessions", h.MindMap.ListSessions)
			mindmap.POST("/sessions/:id/open", h.MindMap.OpenSession)
			mindmap.DELETE("/sessions/:id", h.MindMap.DeleteSession)
			mindmap.POST("/generate", h.MindMap.Generate)
		}

		mnemonic := protected.Group("/mnemonic")
		{
			mnemonic.GET("/sessions", h.Mnemonic.ListSessions)
			mnemonic.POST("/sessions/:id/open", h.Mnemonic.OpenSession)
			mnemonic.DELETE("/sessions/:id", h.Mnemonic.DeleteSession)
			mnemonic.POST("/generate", h.Mnemonic.Generate)
		}

		protected.GET("/events", h.SSE.Stream)
	}

	return r
}
