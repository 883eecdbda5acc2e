package handler

import (
	"context"
	"net/http"
	"time"

	"go-live-chatroom/internal/repository"
)

type HealthHandler struct {
	directory repository.Pinger
}

func NewHealthHandler(directory repository.Pinger) *HealthHandler {
	return &HealthHandler{directory: directory}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.directory.Ping(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
