package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/db"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/observability"
	"github.com/parastudy/parastudy-backend/internal/server"
	"github.com/parastudy/parastudy-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *sse.SSEHub

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "parastudy-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	database, err := db.NewDatabaseService(log, cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := database.DB()

	hub := sse.NewSSEHub(log)
	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, hub)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	authMW := wireMiddleware(log, serviceset)
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    "parastudy-backend",
		AllowedOrigins: cfg.AllowedOrigins,
		TracingEnabled: otelShutdown != nil,
	}, handlerset, authMW)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background collaborators: the Redis forwarder that
// feeds cross-instance events into the local hub.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.EventBus != nil {
		if err := a.Services.EventBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Warn("Redis forwarder failed to start", "error", err)
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.EventBus != nil {
		_ = a.Services.EventBus.Close()
	}
	if a.Services.Graph != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.Services.Graph.Close(ctx)
		cancel()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
