package service

import (
	"context"
	"log/slog"

	"go-live-chatroom/internal/event"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/presence"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/internal/util"
	"go-live-chatroom/pkg/apierror"
)

const chatroomDeletedMessage = "Chatroom deleted successfully"

type ChatroomService struct {
	chatrooms repository.ChatroomStore
	users     repository.UserStore
	messages  repository.MessageStore
	images    *ImageService
	presence  *presence.Tracker
	bus       event.Bus
}

func NewChatroomService(dir repository.Directory, images *ImageService, tracker *presence.Tracker, bus event.Bus) *ChatroomService {
	return &ChatroomService{
		chatrooms: dir.Chatrooms,
		users:     dir.Users,
		messages:  dir.Messages,
		images:    images,
		presence:  tracker,
		bus:       bus,
	}
}

// Create makes a chatroom with the creator as its first member.
func (s *ChatroomService) Create(ctx context.Context, userID int64, req model.CreateChatroomRequest) (model.Chatroom, error) {
	name, err := util.SanitizeName("name", req.Name, util.MaxChatroomNameRunes)
	if err != nil {
		return model.Chatroom{}, err
	}

	chatroom, err := s.chatrooms.Create(ctx, name, userID)
	if err != nil {
		return model.Chatroom{}, err
	}

	slog.Info("chatroom created", "chatroom_id", chatroom.ID, "user_id", userID)
	return s.withUsers(ctx, chatroom)
}

func (s *ChatroomService) AddUsers(ctx context.Context, chatroomID int64, req model.AddUsersRequest) (model.Chatroom, error) {
	if len(req.UserIDs) == 0 {
		return model.Chatroom{}, apierror.InvalidInput("user_ids cannot be empty", "")
	}
	for _, id := range req.UserIDs {
		if id <= 0 {
			return model.Chatroom{}, apierror.InvalidInput("user ids must be positive", "")
		}
	}

	chatroom, err := s.chatrooms.FindByID(ctx, chatroomID)
	if err != nil {
		return model.Chatroom{}, err
	}

	if err := s.chatrooms.AddUsers(ctx, chatroomID, req.UserIDs); err != nil {
		return model.Chatroom{}, err
	}

	return s.withUsers(ctx, chatroom)
}

// Delete removes the chatroom with its memberships and messages, and forgets
// its live set.
func (s *ChatroomService) Delete(ctx context.Context, chatroomID int64) (string, error) {
	if err := s.chatrooms.Delete(ctx, chatroomID); err != nil {
		return "", err
	}

	s.presence.Drop(chatroomID)
	slog.Info("chatroom deleted", "chatroom_id", chatroomID)
	return chatroomDeletedMessage, nil
}

func (s *ChatroomService) ListForUser(ctx context.Context, userID int64) ([]model.Chatroom, error) {
	chatrooms, err := s.chatrooms.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range chatrooms {
		if chatrooms[i], err = s.withUsers(ctx, chatrooms[i]); err != nil {
			return nil, err
		}
	}
	return chatrooms, nil
}

func (s *ChatroomService) Messages(ctx context.Context, chatroomID int64) ([]model.Message, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return nil, err
	}
	return s.messages.ListByChatroom(ctx, chatroomID)
}

// SendMessage persists the message and only then publishes it, so
// subscribers never see a message the directory does not hold.
func (s *ChatroomService) SendMessage(ctx context.Context, userID int64, chatroomID int64, req model.SendMessageRequest) (model.Message, error) {
	content, err := util.SanitizeMessage(req.Content)
	if err != nil {
		return model.Message{}, err
	}
	if content == "" && req.ImageBase64 == "" {
		return model.Message{}, apierror.InvalidInput("message must have content or an image", "")
	}

	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return model.Message{}, err
	}
	sender, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.Message{}, err
	}

	var imageURL string
	if req.ImageBase64 != "" {
		if imageURL, err = s.images.Save(req.ImageBase64); err != nil {
			return model.Message{}, err
		}
	}

	msg, err := s.messages.Create(ctx, model.Message{
		ChatroomID: chatroomID,
		SenderID:   userID,
		Content:    content,
		ImageURL:   imageURL,
	})
	if err != nil {
		if imageURL != "" {
			s.images.Discard(imageURL)
		}
		return model.Message{}, err
	}

	public := sender.Public()
	msg.Sender = &public
	s.bus.Publish(event.Topic(event.KindMessage, chatroomID), event.NewMessage(msg))
	return msg, nil
}

func (s *ChatroomService) StartTyping(ctx context.Context, userID int64, chatroomID int64) (model.PublicUser, error) {
	return s.typing(ctx, event.KindTypingStart, userID, chatroomID)
}

func (s *ChatroomService) StopTyping(ctx context.Context, userID int64, chatroomID int64) (model.PublicUser, error) {
	return s.typing(ctx, event.KindTypingStop, userID, chatroomID)
}

func (s *ChatroomService) typing(ctx context.Context, kind event.Kind, userID int64, chatroomID int64) (model.PublicUser, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return model.PublicUser{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}

	public := user.Public()
	s.bus.Publish(event.Topic(kind, chatroomID), event.NewTyping(kind, chatroomID, public))
	return public, nil
}

func (s *ChatroomService) withUsers(ctx context.Context, chatroom model.Chatroom) (model.Chatroom, error) {
	users, err := s.users.ListByChatroom(ctx, chatroom.ID)
	if err != nil {
		return model.Chatroom{}, err
	}
	chatroom.Users = users
	return chatroom, nil
}
