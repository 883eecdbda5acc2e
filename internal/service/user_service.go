package service

import (
	"context"
	"strings"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/internal/util"
	"go-live-chatroom/pkg/apierror"
)

type UserService struct {
	users     repository.UserStore
	chatrooms repository.ChatroomStore
	images    *ImageService
}

func NewUserService(dir repository.Directory, images *ImageService) *UserService {
	return &UserService{users: dir.Users, chatrooms: dir.Chatrooms, images: images}
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (model.AuthUser, error) {
	fullname, err := util.SanitizeName("fullname", req.Fullname, util.MaxFullnameRunes)
	if err != nil {
		return model.AuthUser{}, err
	}

	var avatarURL string
	if req.ImageBase64 != "" {
		if avatarURL, err = s.images.Save(req.ImageBase64); err != nil {
			return model.AuthUser{}, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, fullname, avatarURL)
	if err != nil {
		if avatarURL != "" {
			s.images.Discard(avatarURL)
		}
		return model.AuthUser{}, err
	}

	return user.Auth(), nil
}

// Search matches on a fragment of the full name and never returns the caller.
func (s *UserService) Search(ctx context.Context, userID int64, fullname string) ([]model.PublicUser, error) {
	fullname = strings.TrimSpace(fullname)
	if fullname == "" {
		return nil, apierror.InvalidInput("fullname query is required", "")
	}
	return s.users.Search(ctx, fullname, userID)
}

func (s *UserService) UsersOfChatroom(ctx context.Context, chatroomID int64) ([]model.PublicUser, error) {
	if _, err := s.chatrooms.FindByID(ctx, chatroomID); err != nil {
		return nil, err
	}
	return s.users.ListByChatroom(ctx, chatroomID)
}
