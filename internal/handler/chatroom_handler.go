package handler

import (
	"net/http"

	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/service"
	"go-live-chatroom/pkg/apierror"
)

type ChatroomHandler struct {
	chatrooms *service.ChatroomService
	live      *service.LiveChatroomService
	users     *service.UserService
	// Message bodies may carry an image.
	messageLimit int64
}

func NewChatroomHandler(chatrooms *service.ChatroomService, live *service.LiveChatroomService, users *service.UserService, maxImageBytes int64) *ChatroomHandler {
	return &ChatroomHandler{
		chatrooms:    chatrooms,
		live:         live,
		users:        users,
		messageLimit: imageBodyLimit(maxImageBytes),
	}
}

// caller resolves the authenticated user and, when idParam is set, the
// chatroom id from the route. It writes the error response itself.
func caller(w http.ResponseWriter, r *http.Request, idParam string) (int64, int64, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return 0, 0, false
	}
	if idParam == "" {
		return claims.UserID, 0, true
	}

	chatroomID, err := pathID(r, idParam)
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	return claims.UserID, chatroomID, true
}

func (h *ChatroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := caller(w, r, "")
	if !ok {
		return
	}

	var payload model.CreateChatroomRequest
	if err := decodeJSON(w, r, &payload, maxJSONBody); err != nil {
		writeError(w, err)
		return
	}

	chatroom, err := h.chatrooms.Create(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, chatroom)
}

func (h *ChatroomHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := caller(w, r, "")
	if !ok {
		return
	}

	chatrooms, err := h.chatrooms.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, chatrooms)
}

func (h *ChatroomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	message, err := h.chatrooms.Delete(r.Context(), chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, message)
}

func (h *ChatroomHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
	_, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	var payload model.AddUsersRequest
	if err := decodeJSON(w, r, &payload, maxJSONBody); err != nil {
		writeError(w, err)
		return
	}

	chatroom, err := h.chatrooms.AddUsers(r.Context(), chatroomID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, chatroom)
}

func (h *ChatroomHandler) Users(w http.ResponseWriter, r *http.Request) {
	_, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	users, err := h.users.UsersOfChatroom(r.Context(), chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users)
}

func (h *ChatroomHandler) Messages(w http.ResponseWriter, r *http.Request) {
	_, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	messages, err := h.chatrooms.Messages(r.Context(), chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, messages)
}

func (h *ChatroomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	var payload model.SendMessageRequest
	if err := decodeJSON(w, r, &payload, h.messageLimit); err != nil {
		writeError(w, err)
		return
	}

	message, err := h.chatrooms.SendMessage(r.Context(), userID, chatroomID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, message)
}

func (h *ChatroomHandler) Enter(w http.ResponseWriter, r *http.Request) {
	userID, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	entered, err := h.live.Enter(r.Context(), userID, chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entered)
}

func (h *ChatroomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	left, err := h.live.Leave(r.Context(), userID, chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, left)
}

func (h *ChatroomHandler) LiveUsers(w http.ResponseWriter, r *http.Request) {
	_, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	live, err := h.live.LiveUsers(r.Context(), chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, live)
}

func (h *ChatroomHandler) StartTyping(w http.ResponseWriter, r *http.Request) {
	userID, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	user, err := h.chatrooms.StartTyping(r.Context(), userID, chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

func (h *ChatroomHandler) StopTyping(w http.ResponseWriter, r *http.Request) {
	userID, chatroomID, ok := caller(w, r, "id")
	if !ok {
		return
	}

	user, err := h.chatrooms.StopTyping(r.Context(), userID, chatroomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}
