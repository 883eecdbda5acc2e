package handler

import (
	"net/http"

	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/service"
	"go-live-chatroom/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookies cookieWriter
}

func NewAuthHandler(service *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookieWriter{secure: secureCookies}}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload, maxJSONBody); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.session(w, session.Tokens)
	writeSuccess(w, http.StatusCreated, session.User)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload, maxJSONBody); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.session(w, session.Tokens)
	writeSuccess(w, http.StatusOK, session.User)
}

// Logout only clears the cookies. Tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)
	writeSuccess(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var raw string
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		raw = cookie.Value
	}

	access, err := h.service.Refresh(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.access(w, access)
	writeSuccess(w, http.StatusOK, access)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}
