package presence

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"go-live-chatroom/internal/event"
	"go-live-chatroom/internal/metrics"
	"go-live-chatroom/internal/model"
)

// ErrChatroomDropped is returned by Enter once the chatroom has been dropped.
var ErrChatroomDropped = errors.New("chatroom dropped")

// Tracker owns the live set of every chatroom. Each chatroom has its own
// lock; the outer lock only guards the chatroom index.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[int64]*room
	// Chatroom ids are never reused, so a dropped id stays refused.
	dropped map[int64]struct{}
	bus     event.Bus
}

type room struct {
	mu      sync.Mutex
	users   map[int64]model.PublicUser
	dropped bool
}

func NewTracker(bus event.Bus) *Tracker {
	return &Tracker{
		rooms:   make(map[int64]*room),
		dropped: make(map[int64]struct{}),
		bus:     bus,
	}
}

// Enter adds the user to the chatroom's live set and publishes the resulting
// snapshot. Entering twice keeps a single entry.
func (t *Tracker) Enter(chatroomID int64, user model.PublicUser) ([]model.PublicUser, error) {
	r := t.room(chatroomID)
	if r == nil {
		return nil, ErrChatroomDropped
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop may have won the race after room() returned.
	if r.dropped {
		return nil, ErrChatroomDropped
	}

	if _, present := r.users[user.ID]; !present {
		metrics.PresenceEntries.Inc()
	}
	r.users[user.ID] = user

	snapshot := r.snapshot()
	t.bus.Publish(event.Topic(event.KindPresence, chatroomID), event.NewPresence(chatroomID, snapshot))
	return snapshot, nil
}

// Leave removes the user and publishes the new snapshot. Leaving a chatroom
// the user is not live in changes nothing and publishes nothing.
func (t *Tracker) Leave(chatroomID int64, userID int64) []model.PublicUser {
	snapshot, _ := t.leave(chatroomID, userID)
	return snapshot
}

func (t *Tracker) leave(chatroomID int64, userID int64) ([]model.PublicUser, bool) {
	t.mu.RLock()
	r, exists := t.rooms[chatroomID]
	t.mu.RUnlock()
	if !exists {
		return []model.PublicUser{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.users[userID]; !present {
		return r.snapshot(), false
	}
	delete(r.users, userID)
	metrics.PresenceEntries.Dec()

	snapshot := r.snapshot()
	t.bus.Publish(event.Topic(event.KindPresence, chatroomID), event.NewPresence(chatroomID, snapshot))
	return snapshot, true
}

func (t *Tracker) Snapshot(chatroomID int64) []model.PublicUser {
	t.mu.RLock()
	r, exists := t.rooms[chatroomID]
	t.mu.RUnlock()
	if !exists {
		return []model.PublicUser{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Evict removes the user from every chatroom they are live in, e.g. after
// their last connection drops. It returns the chatrooms that changed.
func (t *Tracker) Evict(userID int64) []int64 {
	t.mu.RLock()
	ids := make([]int64, 0, len(t.rooms))
	for id, r := range t.rooms {
		r.mu.Lock()
		_, present := r.users[userID]
		r.mu.Unlock()
		if present {
			ids = append(ids, id)
		}
	}
	t.mu.RUnlock()

	slices.Sort(ids)
	changed := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := t.leave(id, userID); ok {
			changed = append(changed, id)
		}
	}

	return changed
}

// Drop forgets a chatroom entirely, used when the chatroom is deleted.
// Nothing is published; the chatroom no longer exists. Later Enter calls
// for the id fail with ErrChatroomDropped.
func (t *Tracker) Drop(chatroomID int64) {
	t.mu.Lock()
	r, exists := t.rooms[chatroomID]
	delete(t.rooms, chatroomID)
	t.dropped[chatroomID] = struct{}{}
	t.mu.Unlock()
	if !exists {
		return
	}

	r.mu.Lock()
	metrics.PresenceEntries.Sub(float64(len(r.users)))
	clear(r.users)
	r.dropped = true
	r.mu.Unlock()
}

// room returns the chatroom's live set, creating it on first use. It
// returns nil for a dropped chatroom.
func (t *Tracker) room(chatroomID int64) *room {
	t.mu.RLock()
	r, exists := t.rooms[chatroomID]
	t.mu.RUnlock()
	if exists {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r, exists = t.rooms[chatroomID]; exists {
		return r
	}
	if _, gone := t.dropped[chatroomID]; gone {
		return nil
	}
	r = &room{users: make(map[int64]model.PublicUser)}
	t.rooms[chatroomID] = r
	return r
}

// snapshot must be called with r.mu held.
func (r *room) snapshot() []model.PublicUser {
	users := make([]model.PublicUser, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b model.PublicUser) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users
}
