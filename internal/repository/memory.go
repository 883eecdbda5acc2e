package repository

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/pkg/apierror"
)

// memoryState backs the in-process directory driver. All three stores share
// one lock so cross-table invariants (membership, cascades) hold.
type memoryState struct {
	mu          sync.RWMutex
	users       map[int64]model.User
	chatrooms   map[int64]model.Chatroom
	members     map[int64]map[int64]struct{}
	messages    []model.Message
	nextUser    int64
	nextRoom    int64
	nextMessage int64
}

type MemoryUserRepository struct{ s *memoryState }
type MemoryChatroomRepository struct{ s *memoryState }
type MemoryMessageRepository struct{ s *memoryState }

// NewMemoryDirectory returns a directory whose state lives only as long as
// the process.
func NewMemoryDirectory() Directory {
	s := &memoryState{
		users:     make(map[int64]model.User),
		chatrooms: make(map[int64]model.Chatroom),
		members:   make(map[int64]map[int64]struct{}),
	}

	return Directory{
		Users:     &MemoryUserRepository{s: s},
		Chatrooms: &MemoryChatroomRepository{s: s},
		Messages:  &MemoryMessageRepository{s: s},
		Health:    s,
	}
}

func (s *memoryState) Ping(context.Context) error {
	return nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) (model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.TrimSpace(u.Email)
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, email) {
			return model.User{}, apierror.Conflict("user already exists", u.Email)
		}
	}

	s.nextUser++
	u.ID = s.nextUser
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, apierror.NotFound("user not found", email)
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id int64, fullname string, avatarURL string) (model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[id]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}

	u.Fullname = fullname
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (r *MemoryUserRepository) Search(_ context.Context, fullname string, excludeID int64) ([]model.PublicUser, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(fullname))
	out := []model.PublicUser{}
	for _, u := range s.users {
		if u.ID == excludeID || !strings.Contains(strings.ToLower(u.Fullname), needle) {
			continue
		}
		out = append(out, u.Public())
	}

	slices.SortFunc(out, func(a, b model.PublicUser) int {
		return cmp.Or(cmp.Compare(a.Fullname, b.Fullname), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *MemoryUserRepository) ListByChatroom(_ context.Context, chatroomID int64) ([]model.PublicUser, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.PublicUser{}
	for userID := range s.members[chatroomID] {
		out = append(out, s.users[userID].Public())
	}

	slices.SortFunc(out, func(a, b model.PublicUser) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *MemoryChatroomRepository) Create(_ context.Context, name string, ownerID int64) (model.Chatroom, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chatrooms {
		if c.Name == name {
			return model.Chatroom{}, apierror.InvalidInput("chatroom already exists", name)
		}
	}
	if _, exists := s.users[ownerID]; !exists {
		return model.Chatroom{}, apierror.NotFound("user not found", strconv.FormatInt(ownerID, 10))
	}

	s.nextRoom++
	now := time.Now().UTC()
	c := model.Chatroom{ID: s.nextRoom, Name: name, CreatedAt: now, UpdatedAt: now}
	s.chatrooms[c.ID] = c
	s.members[c.ID] = map[int64]struct{}{ownerID: {}}
	return c, nil
}

func (r *MemoryChatroomRepository) FindByID(_ context.Context, id int64) (model.Chatroom, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.chatrooms[id]
	if !exists {
		return model.Chatroom{}, apierror.NotFound("chatroom not found", strconv.FormatInt(id, 10))
	}
	return c, nil
}

func (r *MemoryChatroomRepository) AddUsers(_ context.Context, chatroomID int64, userIDs []int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.chatrooms[chatroomID]
	if !exists {
		return apierror.NotFound("user or chatroom not found", strconv.FormatInt(chatroomID, 10))
	}
	for _, userID := range userIDs {
		if _, exists := s.users[userID]; !exists {
			return apierror.NotFound("user or chatroom not found", strconv.FormatInt(userID, 10))
		}
	}

	for _, userID := range userIDs {
		s.members[chatroomID][userID] = struct{}{}
	}
	c.UpdatedAt = time.Now().UTC()
	s.chatrooms[chatroomID] = c
	return nil
}

func (r *MemoryChatroomRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chatrooms[id]; !exists {
		return apierror.NotFound("chatroom not found", strconv.FormatInt(id, 10))
	}

	delete(s.chatrooms, id)
	delete(s.members, id)
	s.messages = slices.DeleteFunc(s.messages, func(m model.Message) bool {
		return m.ChatroomID == id
	})
	return nil
}

func (r *MemoryChatroomRepository) ListForUser(_ context.Context, userID int64) ([]model.Chatroom, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Chatroom{}
	for chatroomID, members := range s.members {
		if _, ok := members[userID]; ok {
			out = append(out, s.chatrooms[chatroomID])
		}
	}

	slices.SortFunc(out, func(a, b model.Chatroom) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg model.Message) (model.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	_, roomExists := s.chatrooms[msg.ChatroomID]
	_, userExists := s.users[msg.SenderID]
	if !roomExists || !userExists {
		return model.Message{}, apierror.NotFound("chatroom or sender not found", strconv.FormatInt(msg.ChatroomID, 10))
	}

	s.nextMessage++
	msg.ID = s.nextMessage
	msg.CreatedAt = time.Now().UTC()
	msg.Sender = nil
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (r *MemoryMessageRepository) ListByChatroom(_ context.Context, chatroomID int64) ([]model.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Message{}
	for _, m := range s.messages {
		if m.ChatroomID != chatroomID {
			continue
		}
		sender := s.users[m.SenderID].Public()
		m.Sender = &sender
		out = append(out, m)
	}
	return out, nil
}
