package repository

import (
	"context"

	"go-live-chatroom/internal/model"
)

// UserStore, ChatroomStore and MessageStore make up the chatroom directory.
// Lookups of absent rows return an apierror NOT_FOUND.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, id int64, fullname string, avatarURL string) (model.User, error)
	Search(ctx context.Context, fullname string, excludeID int64) ([]model.PublicUser, error)
	ListByChatroom(ctx context.Context, chatroomID int64) ([]model.PublicUser, error)
}

type ChatroomStore interface {
	Create(ctx context.Context, name string, ownerID int64) (model.Chatroom, error)
	FindByID(ctx context.Context, id int64) (model.Chatroom, error)
	AddUsers(ctx context.Context, chatroomID int64, userIDs []int64) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64) ([]model.Chatroom, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg model.Message) (model.Message, error)
	ListByChatroom(ctx context.Context, chatroomID int64) ([]model.Message, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Directory bundles one driver's stores.
type Directory struct {
	Users     UserStore
	Chatrooms ChatroomStore
	Messages  MessageStore
	Health    Pinger
}
