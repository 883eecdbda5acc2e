package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-live-chatroom/internal/config"
	"go-live-chatroom/internal/handler"
	"go-live-chatroom/internal/metrics"
	"go-live-chatroom/internal/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Chatroom  *handler.ChatroomHandler
	Health    *handler.HealthHandler
	Websocket http.Handler
	Images    fs.FS
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", h.Health.Check)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServerFS(h.Images)))

	// Long-lived: no recovery envelope or request timeout.
	r.Get("/ws", h.Websocket.ServeHTTP)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Recovery)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/logout", h.Auth.Logout)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.With(authMiddleware.RequireAuth).Put("/users/me", h.User.UpdateProfile)
		api.With(authMiddleware.RequireAuth).Get("/users", h.User.Search)

		api.Route("/chatrooms", func(rooms chi.Router) {
			rooms.Use(authMiddleware.RequireAuth)

			rooms.Post("/", h.Chatroom.Create)
			rooms.Get("/", h.Chatroom.List)
			rooms.Delete("/{id}", h.Chatroom.Delete)
			rooms.Post("/{id}/users", h.Chatroom.AddUsers)
			rooms.Get("/{id}/users", h.Chatroom.Users)
			rooms.Get("/{id}/messages", h.Chatroom.Messages)
			rooms.Post("/{id}/messages", h.Chatroom.SendMessage)
			rooms.Post("/{id}/enter", h.Chatroom.Enter)
			rooms.Post("/{id}/leave", h.Chatroom.Leave)
			rooms.Get("/{id}/live-users", h.Chatroom.LiveUsers)
			rooms.Post("/{id}/typing/start", h.Chatroom.StartTyping)
			rooms.Post("/{id}/typing/stop", h.Chatroom.StopTyping)
		})
	})

	return r
}
