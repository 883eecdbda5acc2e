package service

import (
	"context"
	"errors"
	"strconv"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/presence"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/pkg/apierror"
)

// LiveChatroomService resolves users and chatrooms against the directory
// before touching the presence tracker.
type LiveChatroomService struct {
	chatrooms repository.ChatroomStore
	users     repository.UserStore
	presence  *presence.Tracker
}

func NewLiveChatroomService(dir repository.Directory, tracker *presence.Tracker) *LiveChatroomService {
	return &LiveChatroomService{chatrooms: dir.Chatrooms, users: dir.Users, presence: tracker}
}

func (s *LiveChatroomService) Enter(ctx context.Context, userID int64, chatroomID int64) (bool, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return false, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if _, err := s.presence.Enter(chatroomID, user.Public()); err != nil {
		if errors.Is(err, presence.ErrChatroomDropped) {
			return false, apierror.NotFound("chatroom not found", strconv.FormatInt(chatroomID, 10))
		}
		return false, err
	}
	return true, nil
}

func (s *LiveChatroomService) Leave(ctx context.Context, userID int64, chatroomID int64) (bool, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return false, err
	}

	s.presence.Leave(chatroomID, userID)
	return true, nil
}

func (s *LiveChatroomService) LiveUsers(ctx context.Context, chatroomID int64) (model.LiveUsers, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return model.LiveUsers{}, err
	}

	return model.LiveUsers{ChatroomID: chatroomID, Users: s.presence.Snapshot(chatroomID)}, nil
}

// Disconnect drops the user from every live set, used when their last
// realtime connection closes.
func (s *LiveChatroomService) Disconnect(userID int64) []int64 {
	return s.presence.Evict(userID)
}
