package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-live-chatroom/internal/event"
	"go-live-chatroom/internal/model"
)

var (
	alice = model.PublicUser{ID: 1, Fullname: "Alice"}
	bob   = model.PublicUser{ID: 2, Fullname: "Bob"}
)

func nextSnapshot(t *testing.T, ch <-chan event.Event) []model.PublicUser {
	t.Helper()

	select {
	case e := <-ch:
		require.Equal(t, event.KindPresence, e.Kind)
		return e.Payload().([]model.PublicUser)
	case <-time.After(time.Second):
		t.Fatal("no presence snapshot published")
		return nil
	}
}

func requireQuiet(t *testing.T, ch <-chan event.Event) {
	t.Helper()

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %s on %s", e.ID, e.Topic())
	default:
	}
}

func TestEnterIsIdempotent(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(16)
	tracker := NewTracker(bus)
	ch, unsubscribe := bus.Subscribe(event.Topic(event.KindPresence, 5))
	defer unsubscribe()

	tracker.Enter(5, alice)
	tracker.Enter(5, alice)

	require.Equal(t, []model.PublicUser{alice}, tracker.Snapshot(5))
	// Every enter publishes, even when the set did not change.
	require.Equal(t, []model.PublicUser{alice}, nextSnapshot(t, ch))
	require.Equal(t, []model.PublicUser{alice}, nextSnapshot(t, ch))
}

func TestLeave(t *testing.T) {
	t.Parallel()

	t.Run("removes the user and publishes the new set", func(t *testing.T) {
		bus := event.NewBus(16)
		tracker := NewTracker(bus)
		tracker.Enter(5, alice)
		tracker.Enter(5, bob)

		ch, unsubscribe := bus.Subscribe(event.Topic(event.KindPresence, 5))
		defer unsubscribe()

		snapshot := tracker.Leave(5, bob.ID)
		require.Equal(t, []model.PublicUser{alice}, snapshot)
		require.Equal(t, []model.PublicUser{alice}, nextSnapshot(t, ch))
		require.NotContains(t, tracker.Snapshot(5), bob)
	})

	t.Run("absent user is a no-op without an event", func(t *testing.T) {
		bus := event.NewBus(16)
		tracker := NewTracker(bus)
		tracker.Enter(5, alice)

		ch, unsubscribe := bus.Subscribe(event.Topic(event.KindPresence, 5))
		defer unsubscribe()

		require.Equal(t, []model.PublicUser{alice}, tracker.Leave(5, bob.ID))
		require.Empty(t, tracker.Leave(6, bob.ID))
		requireQuiet(t, ch)
	})
}

func TestSnapshotIsSortedAndDetached(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(event.NewBus(4))
	tracker.Enter(1, bob)
	tracker.Enter(1, alice)

	snapshot := tracker.Snapshot(1)
	require.Equal(t, []model.PublicUser{alice, bob}, snapshot)

	snapshot[0].Fullname = "changed"
	require.Equal(t, "Alice", tracker.Snapshot(1)[0].Fullname)
	require.NotNil(t, tracker.Snapshot(99))
}

func TestEvictLeavesEveryChatroom(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(16)
	tracker := NewTracker(bus)
	tracker.Enter(1, alice)
	tracker.Enter(2, alice)
	tracker.Enter(2, bob)
	tracker.Enter(3, bob)

	require.Equal(t, []int64{1, 2}, tracker.Evict(alice.ID))
	assert.Empty(t, tracker.Snapshot(1))
	assert.Equal(t, []model.PublicUser{bob}, tracker.Snapshot(2))
	assert.Equal(t, []model.PublicUser{bob}, tracker.Snapshot(3))
	assert.Empty(t, tracker.Evict(alice.ID))
}

func TestDropForgetsChatroom(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(event.NewBus(4))
	tracker.Enter(1, alice)
	tracker.Drop(1)
	tracker.Drop(1)

	require.Empty(t, tracker.Snapshot(1))
}

func TestEnterAfterDropIsRefused(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(4)
	tracker := NewTracker(bus)
	ch, unsubscribe := bus.Subscribe(event.Topic(event.KindPresence, 9))
	defer unsubscribe()

	tracker.Drop(9)

	snapshot, err := tracker.Enter(9, alice)
	require.ErrorIs(t, err, ErrChatroomDropped)
	assert.Nil(t, snapshot)
	assert.Empty(t, tracker.Snapshot(9))
	requireQuiet(t, ch)

	// Other chatrooms are unaffected.
	snapshot, err = tracker.Enter(10, alice)
	require.NoError(t, err)
	assert.Equal(t, []model.PublicUser{alice}, snapshot)
}

func TestConcurrentEnterAndLeaveKeepsSetConsistent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(event.NewBus(1))

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			tracker.Enter(7, model.PublicUser{ID: id})
		}(i)
		go func(id int64) {
			defer wg.Done()
			tracker.Enter(8, model.PublicUser{ID: id})
			tracker.Leave(8, id)
		}(i)
	}
	wg.Wait()

	snapshot := tracker.Snapshot(7)
	require.Len(t, snapshot, 50)
	for i, u := range snapshot {
		require.Equal(t, int64(i+1), u.ID)
	}
	require.Empty(t, tracker.Snapshot(8))
}
