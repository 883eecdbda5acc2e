package handler

import (
	"net/http"

	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/service"
	"go-live-chatroom/pkg/apierror"
)

type UserHandler struct {
	service   *service.UserService
	bodyLimit int64
}

func NewUserHandler(service *service.UserService, maxImageBytes int64) *UserHandler {
	return &UserHandler{service: service, bodyLimit: imageBodyLimit(maxImageBytes)}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	var payload model.UpdateProfileRequest
	if err := decodeJSON(w, r, &payload, h.bodyLimit); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	users, err := h.service.Search(r.Context(), claims.UserID, r.URL.Query().Get("fullname"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users)
}
