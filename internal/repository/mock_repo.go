package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-live-chatroom/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, id int64, fullname string, avatarURL string) (model.User, error) {
	args := m.Called(ctx, id, fullname, avatarURL)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Search(ctx context.Context, fullname string, excludeID int64) ([]model.PublicUser, error) {
	args := m.Called(ctx, fullname, excludeID)
	if users, ok := args.Get(0).([]model.PublicUser); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) ListByChatroom(ctx context.Context, chatroomID int64) ([]model.PublicUser, error) {
	args := m.Called(ctx, chatroomID)
	if users, ok := args.Get(0).([]model.PublicUser); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockChatroomStore struct {
	mock.Mock
}

func (m *MockChatroomStore) Create(ctx context.Context, name string, ownerID int64) (model.Chatroom, error) {
	args := m.Called(ctx, name, ownerID)
	return args.Get(0).(model.Chatroom), args.Error(1)
}

func (m *MockChatroomStore) FindByID(ctx context.Context, id int64) (model.Chatroom, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Chatroom), args.Error(1)
}

func (m *MockChatroomStore) AddUsers(ctx context.Context, chatroomID int64, userIDs []int64) error {
	args := m.Called(ctx, chatroomID, userIDs)
	return args.Error(0)
}

func (m *MockChatroomStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChatroomStore) ListForUser(ctx context.Context, userID int64) ([]model.Chatroom, error) {
	args := m.Called(ctx, userID)
	if chatrooms, ok := args.Get(0).([]model.Chatroom); ok {
		return chatrooms, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MockMessageStore) ListByChatroom(ctx context.Context, chatroomID int64) ([]model.Message, error) {
	args := m.Called(ctx, chatroomID)
	if messages, ok := args.Get(0).([]model.Message); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}
