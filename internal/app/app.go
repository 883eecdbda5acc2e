package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-live-chatroom/internal/config"
	"go-live-chatroom/internal/database"
	"go-live-chatroom/internal/event"
	"go-live-chatroom/internal/handler"
	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/presence"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/internal/router"
	"go-live-chatroom/internal/service"
	"go-live-chatroom/internal/storage"
	"go-live-chatroom/internal/subscription"
	"go-live-chatroom/internal/websocket"
)

type App struct {
	server       *http.Server
	stopRealtime func()
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	store, err := storage.New(cfg.ImageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	dir, closeDir, err := openDirectory(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}

	appRouter, stop := newHandler(cfg, dir, store)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		stopRealtime: stop,
		cleanupFuncs: []func(){closeDir},
	}, nil
}

func openDirectory(ctx context.Context, cfg config.DatabaseConfig) (repository.Directory, func(), error) {
	if cfg.Driver == config.DriverMemory {
		slog.Warn("using in-memory directory, data is lost on restart")
		return repository.NewMemoryDirectory(), func() {}, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg)
	if err != nil {
		return repository.Directory{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return repository.Directory{}, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	return repository.NewPostgresDirectory(db.Pool), db.Close, nil
}

// newHandler wires the realtime core and HTTP surface over a directory.
// stop detaches every subscriber and stops the connection hub.
func newHandler(cfg *config.Config, dir repository.Directory, store *storage.Storage) (http.Handler, func()) {
	bus := event.NewBus(cfg.SubscriberBuffer)
	tracker := presence.NewTracker(bus)
	gateway := subscription.NewGateway(bus)

	sessions := service.NewSessionManager(dir.Users, cfg.Tokens)
	authService := service.NewAuthService(dir.Users, sessions)
	images := service.NewImageService(store, cfg.PublicURL, cfg.MaxImageBytes)
	userService := service.NewUserService(dir, images)
	chatroomService := service.NewChatroomService(dir, images, tracker, bus)
	liveService := service.NewLiveChatroomService(dir, tracker)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(func(userID int64) {
		if left := liveService.Disconnect(userID); len(left) > 0 {
			slog.Info("user disconnected from live chatrooms", "user_id", userID, "chatrooms", left)
		}
	})
	go hub.Run(hubCtx)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(sessions), router.Handlers{
		Auth:      handler.NewAuthHandler(authService, cfg.CookieSecure),
		User:      handler.NewUserHandler(userService, cfg.MaxImageBytes),
		Chatroom:  handler.NewChatroomHandler(chatroomService, liveService, userService, cfg.MaxImageBytes),
		Health:    handler.NewHealthHandler(dir.Health),
		Websocket: websocket.NewServer(sessions, gateway, hub, cfg.WSHandshakeTimeout, cfg.CORSOrigins),
		Images:    store.FileSystem(),
	})

	return appRouter, func() {
		bus.Close()
		hubCancel()
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown does not wait for hijacked websocket connections.
	a.stopRealtime()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
