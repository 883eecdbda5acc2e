package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"go-live-chatroom/internal/metrics"
)

const defaultSubscriberBuffer = 64

// InMemoryBus is the process-wide broker. Each topic owns its subscriber set
// and its own lock; publishes to one topic are serialized under that lock so
// every subscriber of the topic sees the same order.
type InMemoryBus struct {
	mu     sync.RWMutex
	topics map[string]*topic
	buffer int
	closed bool
}

type topic struct {
	mu          sync.Mutex
	name        string
	subscribers map[string]chan Event
	// dead is set once the topic has been unlinked from the bus.
	dead bool
}

func NewBus(bufferSize int) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = defaultSubscriberBuffer
	}

	return &InMemoryBus{
		topics: make(map[string]*topic),
		buffer: bufferSize,
	}
}

// Publish never blocks on a subscriber: a full buffer drops the event for
// that subscriber only.
func (b *InMemoryBus) Publish(name string, e Event) {
	b.mu.RLock()
	t := b.topics[name]
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(e.Kind)).Inc()
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, ch := range t.subscribers {
		select {
		case ch <- e:
		default:
			metrics.EventsDropped.WithLabelValues(string(e.Kind)).Inc()
			slog.Warn("event dropped for slow subscriber", "topic", name, "subscriber", id, "event_id", e.ID)
		}
	}
}

// Subscribe registers a new subscriber on the topic. The returned function
// unregisters it and closes the channel before returning; it is safe to call
// more than once.
func (b *InMemoryBus) Subscribe(name string) (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)

	for {
		t, ok := b.topicFor(name)
		if !ok {
			close(ch)
			return ch, func() {}
		}

		t.mu.Lock()
		if t.dead {
			// Lost a race with the last unsubscribe of this topic.
			t.mu.Unlock()
			continue
		}
		t.subscribers[id] = ch
		t.mu.Unlock()

		metrics.ActiveSubscriptions.Inc()
		return ch, func() { b.unsubscribe(t, id) }
	}
}

func (b *InMemoryBus) SubscriberCount(name string) int {
	b.mu.RLock()
	t := b.topics[name]
	b.mu.RUnlock()
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

// Close detaches every subscriber and refuses new ones.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for name, t := range b.topics {
		t.mu.Lock()
		for id, ch := range t.subscribers {
			close(ch)
			delete(t.subscribers, id)
			metrics.ActiveSubscriptions.Dec()
		}
		t.dead = true
		t.mu.Unlock()
		delete(b.topics, name)
	}
}

func (b *InMemoryBus) topicFor(name string) (*topic, bool) {
	b.mu.RLock()
	t, exists := b.topics[name]
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, false
	}
	if exists {
		return t, true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	if t, exists = b.topics[name]; exists {
		return t, true
	}

	t = &topic{name: name, subscribers: make(map[string]chan Event)}
	b.topics[name] = t
	return t, true
}

func (b *InMemoryBus) unsubscribe(t *topic, id string) {
	t.mu.Lock()
	ch, exists := t.subscribers[id]
	if !exists {
		t.mu.Unlock()
		return
	}
	delete(t.subscribers, id)
	close(ch)
	metrics.ActiveSubscriptions.Dec()

	empty := len(t.subscribers) == 0
	if empty {
		t.dead = true
	}
	t.mu.Unlock()

	if !empty {
		return
	}

	b.mu.Lock()
	if b.topics[t.name] == t {
		delete(b.topics, t.name)
	}
	b.mu.Unlock()
}
